package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lavanderia/ops-console/internal/core/guard"
)

// Guard gates a role family's routes. It waits for the family's session to
// rehydrate, then either passes the request on or sends the caller to the
// family's login route. Both denial kinds look the same to the caller.
func Guard(g *guard.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch g.Decide(c.Request().Context()) {
			case guard.Granted:
				c.Set("family", g.Family())
				return next(c)
			case guard.Pending:
				// The request went away before the session was ready.
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session not ready")
			default:
				return toLogin(c, g.LoginRoute())
			}
		}
	}
}

// toLogin redirects browsers and answers API clients with a 401 that names
// the login route.
func toLogin(c echo.Context, route string) error {
	if wantsJSON(c.Request()) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":    "unauthorized",
			"redirect": route,
		})
	}
	return c.Redirect(http.StatusFound, route)
}

func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
