package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

const maxProxyBody = 1 << 20

// Upstream performs authenticated calls against the laundry API.
type Upstream interface {
	Do(ctx context.Context, family, method, path string, body any) (json.RawMessage, error)
}

// ProxyHandler forwards a family's panel data requests to the laundry API
// with the family's bearer token.
type ProxyHandler struct {
	family   string
	prefix   string
	upstream Upstream
	sessions ports.SessionService
	log      zerolog.Logger
}

// NewProxyHandler forwards requests below prefix; the remainder of the path
// is the API path.
func NewProxyHandler(family, prefix string, upstream Upstream, sessions ports.SessionService, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		family:   family,
		prefix:   strings.TrimSuffix(prefix, "/"),
		upstream: upstream,
		sessions: sessions,
		log:      log.With().Str("component", "proxy").Str("family", family).Logger(),
	}
}

// Forward handles {base}/api/... The API's envelope data is returned as is.
// When the API no longer accepts the token the family is logged out, which
// sends every watching shell back to its login route.
//
// @Summary      Forward a request to the laundry API
// @Tags         api
// @Accept       json
// @Produce      json
// @Success      200  {object}  object
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /{family}/api/{path} [get]
func (h *ProxyHandler) Forward(c echo.Context) error {
	path := strings.TrimPrefix(c.Request().URL.Path, h.prefix)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if q := c.QueryString(); q != "" {
		path += "?" + q
	}

	var body any
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxProxyBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(raw) > 0 {
		if !json.Valid(raw) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		body = json.RawMessage(raw)
	}

	data, err := h.upstream.Do(c.Request().Context(), h.family, c.Request().Method, path, body)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			h.log.Info().Str("path", path).Msg("token rejected, logging out")
			if lerr := h.sessions.Logout(h.family); lerr != nil {
				h.log.Error().Err(lerr).Msg("logout after rejected token")
			}
		}
		return err
	}
	if len(data) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSONBlob(http.StatusOK, data)
}
