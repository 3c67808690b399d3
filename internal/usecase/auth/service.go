// Package auth implements bearer-credential checks for service callers
// and client applications.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bnema/appupdate/internal/boundaries/out"
	"github.com/bnema/appupdate/internal/domain"
	"github.com/bnema/appupdate/internal/logging"
)

// SchemeBearer is the only accepted authorization scheme.
const SchemeBearer = "Bearer"

// Service implements the AuthService interface.
type Service struct {
	apiKey    []byte
	validator out.ClientTokenValidator
	log       *log.Logger
}

// NewService creates a new auth service. validator may be nil, in which
// case only the API key is accepted.
func NewService(apiKey string, validator out.ClientTokenValidator, logger *log.Logger) *Service {
	return &Service{
		apiKey:    []byte(apiKey),
		validator: validator,
		log:       logger.With(logging.FieldLayer, "usecase", logging.FieldUseCase, "Authorize"),
	}
}

// AuthorizeService accepts only the configured API key.
func (s *Service) AuthorizeService(_ context.Context, scheme, token string) error {
	if err := checkScheme(scheme, token); err != nil {
		return err
	}
	if !s.isAPIKey(token) {
		return fmt.Errorf("%w: invalid api key", domain.ErrUnauthorized)
	}
	return nil
}

// AuthorizeClient accepts the API key or a token the CRM confirms.
// A CRM failure denies access.
func (s *Service) AuthorizeClient(ctx context.Context, scheme, token string) error {
	if err := checkScheme(scheme, token); err != nil {
		return err
	}
	if s.isAPIKey(token) {
		return nil
	}
	if s.validator == nil {
		return fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	ok, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		s.log.Error("client token validation failed", "error", err)
		return fmt.Errorf("%w: token could not be validated", domain.ErrUnauthorized)
	}
	if !ok {
		return fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return nil
}

func (s *Service) isAPIKey(token string) bool {
	return len(s.apiKey) > 0 && subtle.ConstantTimeCompare([]byte(token), s.apiKey) == 1
}

func checkScheme(scheme, token string) error {
	if !strings.EqualFold(scheme, SchemeBearer) {
		return fmt.Errorf("%w: unsupported authorization scheme %q", domain.ErrUnauthorized, scheme)
	}
	if token == "" {
		return fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	return nil
}
