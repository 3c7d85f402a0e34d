package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

// AuthService is the local login collaborator: it checks credentials against
// the account repository and issues HS256 tokens.
type AuthService struct {
	repo      ports.AccountRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.AccountRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates an operator account.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" || in.Role == "" {
		return nil, domain.ErrInvalidCredentials
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:         in.Name,
		Email:        email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !role.IsSuper() {
		account.Capabilities = domain.ParseCapabilityMatrix(in.Capabilities)
	}

	return s.repo.Create(ctx, account)
}

// Authenticate satisfies ports.Authenticator. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, req ports.LoginRequest) (domain.LoginData, error) {
	if req.Email == "" || req.Password == "" {
		return domain.LoginData{}, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.LoginData{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.LoginData{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return domain.LoginData{}, domain.ErrInvalidCredentials
	}
	if !account.IsActive {
		return domain.LoginData{}, domain.ErrInactiveUser
	}

	token, err := s.generateToken(account)
	if err != nil {
		return domain.LoginData{}, err
	}

	return domain.LoginData{Token: token, User: account.Payload()}, nil
}

func (s *AuthService) generateToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"role":  string(account.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
