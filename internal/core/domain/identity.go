package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Identity is the authenticated principal held by a session store.
type Identity struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Role         Role             `json:"role"`
	IsActive     bool             `json:"is_active"`
	Capabilities CapabilityMatrix `json:"capabilities,omitempty"`
}

// Clone returns a deep copy so stores never share an identity by reference.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Capabilities = i.Capabilities.Clone()
	return &cp
}

// Apply merges the non-nil fields of p into i. ID and Role are never changed.
func (i *Identity) Apply(p IdentityPatch) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Email != nil {
		i.Email = *p.Email
	}
	if p.Phone != nil {
		i.Phone = *p.Phone
	}
	if p.IsActive != nil {
		i.IsActive = *p.IsActive
	}
	if p.Capabilities != nil {
		i.Capabilities = p.Capabilities.Clone()
	}
}

// IdentityPatch is a partial profile update. Nil fields are left untouched.
type IdentityPatch struct {
	Name         *string          `json:"name,omitempty"   validate:"omitempty,min=1"`
	Email        *string          `json:"email,omitempty"  validate:"omitempty,email"`
	Phone        *string          `json:"phone,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
	Capabilities CapabilityMatrix `json:"capabilities,omitempty"`
}

// UserPayload is the loosely typed user object found in a login response.
type UserPayload struct {
	ID           string                     `json:"id"`
	MongoID      string                     `json:"_id,omitempty"`
	Name         string                     `json:"name"`
	Email        string                     `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string                     `json:"phone,omitempty"`
	Role         string                     `json:"role"            validate:"required"`
	IsActive     *bool                      `json:"is_active,omitempty"`
	Capabilities map[string]map[string]bool `json:"capabilities,omitempty"`
}

var payloadValidator = validator.New()

// NewIdentity validates a login-response user and converts it into an
// Identity with a closed role and a filtered capability matrix.
func NewIdentity(p UserPayload) (*Identity, error) {
	if err := payloadValidator.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = strings.TrimSpace(p.MongoID)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidIdentity)
	}
	role, err := ParseRole(p.Role)
	if err != nil {
		return nil, err
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	ident := &Identity{
		ID:       id,
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
		Role:     role,
		IsActive: active,
	}
	// The super-role never carries a matrix; its access is a bypass.
	if !role.IsSuper() {
		ident.Capabilities = ParseCapabilityMatrix(p.Capabilities)
	}
	return ident, nil
}

// Account is an operator record known to the local login collaborator.
type Account struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Phone        string           `json:"phone,omitempty"`
	PasswordHash string           `json:"-"`
	Role         Role             `json:"role"`
	IsActive     bool             `json:"is_active"`
	Capabilities CapabilityMatrix `json:"capabilities,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Payload renders the account the way a login response carries it.
func (a *Account) Payload() UserPayload {
	active := a.IsActive
	var caps map[string]map[string]bool
	if a.Capabilities != nil {
		caps = make(map[string]map[string]bool, len(a.Capabilities))
		for m, row := range a.Capabilities {
			r := make(map[string]bool, len(row))
			for act, v := range row {
				r[string(act)] = v
			}
			caps[string(m)] = r
		}
	}
	return UserPayload{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Role:         string(a.Role),
		IsActive:     &active,
		Capabilities: caps,
	}
}
