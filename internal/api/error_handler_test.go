package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusUnprocessableEntity, "email is required"), http.StatusUnprocessableEntity, "email is required"},
		{"not authenticated", domain.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"wrapped unknown family", fmt.Errorf("%w: laundromat", domain.ErrUnknownFamily), http.StatusNotFound, "unknown role family"},
		{"upstream", fmt.Errorf("%w: status 500", domain.ErrUpstream), http.StatusBadGateway, "upstream unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, resp.Error)
			}
		})
	}
}
