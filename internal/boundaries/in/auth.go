package in

import "context"

// AuthService decides whether a bearer credential may call an operation.
type AuthService interface {
	// AuthorizeService accepts only the configured service API key.
	AuthorizeService(ctx context.Context, scheme, token string) error

	// AuthorizeClient accepts the service API key or a valid client token.
	AuthorizeClient(ctx context.Context, scheme, token string) error
}
