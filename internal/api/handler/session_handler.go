package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lavanderia/ops-console/internal/api/metrics"
	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

// Checker answers capability questions for one family's session.
type Checker interface {
	Can(module domain.Module, action domain.Action) bool
	CanAccess(module domain.Module) bool
}

// SessionHandler serves the auth endpoints of a single role family.
type SessionHandler struct {
	family  string
	service ports.SessionService
	checker Checker
}

func NewSessionHandler(family string, service ports.SessionService, checker Checker) *SessionHandler {
	return &SessionHandler{family: family, service: service, checker: checker}
}

// Login handles POST {login route}.
//
// @Summary      Log in to a role family
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.Envelope[domain.LoginResponse]
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  domain.Envelope[domain.LoginResponse]
// @Failure      422   {object}  map[string]string
// @Router       /{family}/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	env, err := h.service.Login(c.Request().Context(), ports.LoginRequest{
		Family:   h.family,
		Email:    req.Email,
		Password: req.Password,
	})
	metrics.Login(h.family, err == nil)
	if err != nil {
		return c.JSON(loginStatus(err), env)
	}
	return c.JSON(http.StatusOK, env)
}

// Logout handles POST {base}/auth/logout.
//
// @Summary      Log out of a role family
// @Tags         auth
// @Success      204
// @Router       /{family}/auth/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.service.Logout(h.family); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session handles GET {base}/auth/session.
//
// @Summary      Current session of a role family
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionView
// @Router       /{family}/auth/session [get]
func (h *SessionHandler) Session(c echo.Context) error {
	view, err := h.service.Session(h.family)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateProfile handles PATCH {base}/auth/me.
//
// @Summary      Update the logged-in profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /{family}/auth/me [patch]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.UpdateProfile(h.family, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{User: user})
}

// Permission handles GET {base}/auth/permissions/:module/:action.
//
// @Summary      Check a capability
// @Tags         auth
// @Produce      json
// @Param        module  path      string  true  "Module (e.g. orders)"
// @Param        action  path      string  true  "Action (e.g. refund)"
// @Success      200     {object}  permissionResponse
// @Failure      400     {object}  map[string]string
// @Router       /{family}/auth/permissions/{module}/{action} [get]
func (h *SessionHandler) Permission(c echo.Context) error {
	module, ok := domain.ParseModule(c.Param("module"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown module")
	}
	action, ok := domain.ParseAction(c.Param("action"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action")
	}
	return c.JSON(http.StatusOK, permissionResponse{
		Module:  string(module),
		Action:  string(action),
		Allowed: h.checker.Can(module, action),
	})
}

// Navigation handles GET {base}/auth/navigation: the modules the sidebar
// should show.
//
// @Summary      Modules visible to the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  navigationResponse
// @Router       /{family}/auth/navigation [get]
func (h *SessionHandler) Navigation(c echo.Context) error {
	resp := navigationResponse{Family: h.family, Modules: []string{}}
	for _, m := range domain.Modules() {
		if h.checker.CanAccess(m) {
			resp.Modules = append(resp.Modules, string(m))
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func loginStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInactiveUser):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnknownFamily):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidIdentity), errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
