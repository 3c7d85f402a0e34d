package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Capabilities = a.Capabilities.Clone()
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if _, exists := r.accounts[account.Email]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneAccount(account)
	if copy.ID == "" {
		copy.ID = "id-" + account.Email
	}
	r.accounts[copy.Email] = cloneAccount(copy)
	return cloneAccount(copy), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := r.accounts[email]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrUserNotFound
}

func register(t *testing.T, svc *AuthService, email, password, role string) *domain.Account {
	t.Helper()
	acc, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Operator",
		Email:    email,
		Password: password,
		Role:     role,
		Capabilities: map[string]map[string]bool{
			"orders": {"view": true, "refund": false},
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return acc
}

func TestAuthService_Register_Success(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	acc := register(t, svc, "alice@example.com", "pass123", "branch_manager")

	if acc.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if acc.Role != domain.RoleCenterAdmin {
		t.Fatalf("unexpected role: %s", acc.Role)
	}
	if !acc.IsActive {
		t.Fatalf("expected new accounts to be active")
	}
	if !acc.Capabilities.Allows(domain.ModuleOrders, domain.ActionView) {
		t.Fatalf("expected capabilities stored")
	}
}

func TestAuthService_Register_SuperAdminHasNoMatrix(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	acc := register(t, svc, "root@example.com", "pass", "superadmin")
	if acc.Capabilities != nil {
		t.Fatalf("expected superadmin without capability matrix, got %v", acc.Capabilities)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Password: "p", Role: "admin"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "b@example.com", Password: "p", Role: "wrong"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)

	register(t, svc, "bob@example.com", "pass", "admin")
	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "bob@example.com", Password: "p2", Role: "admin"})
	if err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), "secret", time.Hour)
	register(t, svc, "carol@example.com", "s3cret", "admin")

	data, err := svc.Authenticate(context.Background(), ports.LoginRequest{Family: "admin", Email: "carol@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if data.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if data.User.Role != "admin" || data.User.ID == "" {
		t.Fatalf("unexpected user: %+v", data.User)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(data.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != "admin" || claims["sub"] != data.User.ID {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestAuthService_Authenticate_Rejections(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAuthService(repo, "secret", time.Hour)
	register(t, svc, "dave@example.com", "goodpass", "support_agent")
	register(t, svc, "erin@example.com", "goodpass", "support_agent")
	repo.accounts["erin@example.com"].IsActive = false

	cases := []struct {
		name string
		req  ports.LoginRequest
		want error
	}{
		{"empty", ports.LoginRequest{}, domain.ErrInvalidCredentials},
		{"bad password", ports.LoginRequest{Email: "dave@example.com", Password: "bad"}, domain.ErrInvalidCredentials},
		{"unknown email", ports.LoginRequest{Email: "ghost@example.com", Password: "pass"}, domain.ErrInvalidCredentials},
		{"inactive", ports.LoginRequest{Email: "erin@example.com", Password: "goodpass"}, domain.ErrInactiveUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Authenticate(context.Background(), tc.req); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
