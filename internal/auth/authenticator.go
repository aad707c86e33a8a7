package auth

import (
	"context"

	"github.com/mmynk/messmate/internal/models"
)

// Authenticator owns account credentials. The RPC layer only sees users.
type Authenticator interface {
	// Register creates an account. Emails are unique after normalization.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account matching email and credential, or
	// ErrInvalidCredentials without saying which part was wrong.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}
