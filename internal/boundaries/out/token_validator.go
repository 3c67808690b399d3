package out

import "context"

// ClientTokenValidator checks bearer tokens issued to client applications
// by an external system.
type ClientTokenValidator interface {
	// ValidateToken reports whether the token is currently valid.
	ValidateToken(ctx context.Context, token string) (bool, error)
}
