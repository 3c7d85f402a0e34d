package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

type stubUpstream struct {
	doFn func(ctx context.Context, family, method, path string, body any) (json.RawMessage, error)
}

func (s *stubUpstream) Do(ctx context.Context, family, method, path string, body any) (json.RawMessage, error) {
	return s.doFn(ctx, family, method, path, body)
}

func TestProxyHandler_Forward(t *testing.T) {
	e := echo.New()
	up := &stubUpstream{
		doFn: func(ctx context.Context, family, method, path string, body any) (json.RawMessage, error) {
			if family != "branch" || method != http.MethodPost || path != "/orders?status=open" {
				t.Fatalf("unexpected call: %s %s %s", family, method, path)
			}
			raw, ok := body.(json.RawMessage)
			if !ok || string(raw) != `{"note":"rush"}` {
				t.Fatalf("unexpected body: %#v", body)
			}
			return json.RawMessage(`{"id":"o-1"}`), nil
		},
	}
	h := NewProxyHandler("branch", "/center-admin/api", up, &stubSessionService{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/center-admin/api/orders?status=open", strings.NewReader(`{"note":"rush"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Forward(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"id":"o-1"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestProxyHandler_EmptyResponse(t *testing.T) {
	e := echo.New()
	up := &stubUpstream{
		doFn: func(ctx context.Context, family, method, path string, body any) (json.RawMessage, error) {
			return nil, nil
		},
	}
	h := NewProxyHandler("admin", "/admin/api", up, &stubSessionService{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodDelete, "/admin/api/orders/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Forward(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestProxyHandler_RejectedTokenLogsOut(t *testing.T) {
	e := echo.New()
	up := &stubUpstream{
		doFn: func(context.Context, string, string, string, any) (json.RawMessage, error) {
			return nil, domain.ErrNotAuthenticated
		},
	}
	loggedOut := ""
	sessions := &stubSessionService{
		logoutFn: func(family string) error {
			loggedOut = family
			return nil
		},
	}
	h := NewProxyHandler("admin", "/admin/api", up, sessions, zerolog.Nop())

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/api/reports", nil), httptest.NewRecorder())

	if err := h.Forward(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if loggedOut != "admin" {
		t.Fatalf("expected admin to be logged out, got %q", loggedOut)
	}
}

func TestProxyHandler_ForbiddenKeepsSession(t *testing.T) {
	e := echo.New()
	up := &stubUpstream{
		doFn: func(context.Context, string, string, string, any) (json.RawMessage, error) {
			return nil, domain.ErrForbidden
		},
	}
	sessions := &stubSessionService{
		logoutFn: func(string) error {
			t.Fatalf("forbidden must not log out")
			return nil
		},
	}
	h := NewProxyHandler("admin", "/admin/api", up, sessions, zerolog.Nop())

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/admin/api/staff/7", nil), httptest.NewRecorder())

	if err := h.Forward(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestProxyHandler_InvalidBody(t *testing.T) {
	e := echo.New()
	up := &stubUpstream{
		doFn: func(context.Context, string, string, string, any) (json.RawMessage, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewProxyHandler("admin", "/admin/api", up, &stubSessionService{}, zerolog.Nop())

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/api/orders", strings.NewReader("{oops")), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := h.Forward(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
