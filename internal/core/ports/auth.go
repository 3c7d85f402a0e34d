package ports

import (
	"context"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

// LoginRequest carries the credentials a role family's login form submits.
type LoginRequest struct {
	Family   string
	Email    string
	Password string
}

// Authenticator is the login collaborator: it exchanges credentials for a
// token and a user payload.
type Authenticator interface {
	Authenticate(ctx context.Context, req LoginRequest) (domain.LoginData, error)
}

// AccountRepository persists operator accounts for the local authenticator.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// SessionService drives the per-family session stores on behalf of the HTTP
// surface.
type SessionService interface {
	Login(ctx context.Context, req LoginRequest) (domain.Envelope[*domain.LoginResponse], error)
	Logout(family string) error
	UpdateProfile(family string, patch domain.IdentityPatch) (*domain.Identity, error)
	Session(family string) (domain.SessionView, error)
}

// RegisterInput describes a new operator account.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Role         string
	Capabilities map[string]map[string]bool
}
