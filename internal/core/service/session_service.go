package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/family"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

// SessionService routes login, logout and profile edits to the store of the
// right role family.
type SessionService struct {
	registry *family.Registry
	auth     ports.Authenticator
	log      zerolog.Logger
}

func NewSessionService(registry *family.Registry, auth ports.Authenticator, log zerolog.Logger) *SessionService {
	return &SessionService{registry: registry, auth: auth, log: log}
}

// Login exchanges credentials through the login collaborator and, on
// success, records the identity and token in the family's store. An identity
// whose role the family does not admit is rejected like bad credentials and
// never reaches the store.
func (s *SessionService) Login(ctx context.Context, req ports.LoginRequest) (domain.Envelope[*domain.LoginResponse], error) {
	m, err := s.registry.Lookup(req.Family)
	if err != nil {
		return failure(err), err
	}

	data, err := s.auth.Authenticate(ctx, req)
	if err != nil {
		s.log.Info().Err(err).Str("family", req.Family).Msg("login rejected")
		return failure(err), err
	}
	if data.Token == "" {
		err := fmt.Errorf("%w: login succeeded without a token", domain.ErrUpstream)
		return failure(err), err
	}

	identity, err := domain.NewIdentity(data.User)
	if err != nil {
		s.log.Warn().Err(err).Str("family", req.Family).Msg("login returned an unusable user")
		return failure(err), err
	}
	if !slices.Contains(m.Roles, identity.Role) {
		s.log.Info().Str("family", req.Family).Str("role", string(identity.Role)).Msg("login for a role outside the family")
		return failure(domain.ErrInvalidCredentials), domain.ErrInvalidCredentials
	}

	m.Store.SetAuth(identity, data.Token)
	s.log.Info().Str("family", req.Family).Str("user_id", identity.ID).Msg("login succeeded")

	return domain.Envelope[*domain.LoginResponse]{
		Success: true,
		Data:    &domain.LoginResponse{Token: data.Token, User: identity},
	}, nil
}

// Logout clears the family's session.
func (s *SessionService) Logout(familyName string) error {
	m, err := s.registry.Lookup(familyName)
	if err != nil {
		return err
	}
	m.Store.Logout()
	return nil
}

// UpdateProfile merges patch into the family's current identity.
func (s *SessionService) UpdateProfile(familyName string, patch domain.IdentityPatch) (*domain.Identity, error) {
	m, err := s.registry.Lookup(familyName)
	if err != nil {
		return nil, err
	}
	if !m.Store.State().IsAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}
	m.Store.UpdateUser(patch)
	return m.Store.State().Identity, nil
}

// Session reports the family's session without its token.
func (s *SessionService) Session(familyName string) (domain.SessionView, error) {
	m, err := s.registry.Lookup(familyName)
	if err != nil {
		return domain.SessionView{}, err
	}
	st := m.Store.State()
	view := domain.SessionView{
		Family:          familyName,
		Hydrated:        st.Hydrated,
		IsAuthenticated: st.Hydrated && st.IsAuthenticated,
	}
	if view.IsAuthenticated {
		view.User = st.Identity
	}
	return view, nil
}

func failure(err error) domain.Envelope[*domain.LoginResponse] {
	return domain.Envelope[*domain.LoginResponse]{Success: false, Message: publicMessage(err)}
}

// publicMessage keeps internal error detail out of login responses.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, domain.ErrInactiveUser):
		return "account is inactive"
	case errors.Is(err, domain.ErrUnknownFamily):
		return "unknown role family"
	default:
		return "login failed"
	}
}
