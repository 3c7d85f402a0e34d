package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

// Checker answers capability questions for the current session.
type Checker interface {
	Can(module domain.Module, action domain.Action) bool
	CanAccess(module domain.Module) bool
}

// RequirePermission lets a request through only when the session holds the
// given capability.
func RequirePermission(ck Checker, module domain.Module, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ck.Can(module, action) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireModule lets a request through when the session holds any capability
// in module.
func RequireModule(ck Checker, module domain.Module) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ck.CanAccess(module) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireMethodPermission derives the action from the HTTP method: reads need
// view, POST needs create, PUT and PATCH need update, DELETE needs delete.
func RequireMethodPermission(ck Checker, module domain.Module) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			action, ok := methodAction(c.Request().Method)
			if !ok || !ck.Can(module, action) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

func methodAction(method string) (domain.Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return domain.ActionView, true
	case http.MethodPost:
		return domain.ActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return domain.ActionUpdate, true
	case http.MethodDelete:
		return domain.ActionDelete, true
	default:
		return "", false
	}
}
