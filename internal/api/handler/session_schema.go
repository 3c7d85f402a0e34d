package handler

import "github.com/lavanderia/ops-console/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Name         *string                    `json:"name"         validate:"omitempty,min=1"`
	Email        *string                    `json:"email"        validate:"omitempty,email"`
	Phone        *string                    `json:"phone"`
	IsActive     *bool                      `json:"is_active"`
	Capabilities map[string]map[string]bool `json:"capabilities"`
}

func (r updateProfileRequest) patch() domain.IdentityPatch {
	return domain.IdentityPatch{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		IsActive:     r.IsActive,
		Capabilities: domain.ParseCapabilityMatrix(r.Capabilities),
	}
}

type permissionResponse struct {
	Module  string `json:"module"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

type navigationResponse struct {
	Family  string   `json:"family"`
	Modules []string `json:"modules"`
}

type profileResponse struct {
	User *domain.Identity `json:"user"`
}
