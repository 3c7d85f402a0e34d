package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lavanderia/ops-console/internal/core/domain"
)

type stubChecker struct {
	can    func(domain.Module, domain.Action) bool
	access func(domain.Module) bool
}

func (s stubChecker) Can(m domain.Module, a domain.Action) bool { return s.can(m, a) }
func (s stubChecker) CanAccess(m domain.Module) bool            { return s.access(m) }

func TestRequirePermission_Allowed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ck := stubChecker{can: func(m domain.Module, a domain.Action) bool {
		return m == domain.ModuleOrders && a == domain.ActionCreate
	}}

	called := false
	h := RequirePermission(ck, domain.ModuleOrders, domain.ActionCreate)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequirePermission_Forbidden(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ck := stubChecker{can: func(domain.Module, domain.Action) bool { return false }}

	h := RequirePermission(ck, domain.ModulePayments, domain.ActionRefund)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireModule(t *testing.T) {
	e := echo.New()
	ck := stubChecker{access: func(m domain.Module) bool { return m == domain.ModuleReports }}

	tests := []struct {
		module domain.Module
		want   int
	}{
		{domain.ModuleReports, http.StatusOK},
		{domain.ModuleStaff, http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		h := RequireModule(ck, tt.module)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != tt.want {
			t.Fatalf("module %s: expected %d, got %d", tt.module, tt.want, rec.Code)
		}
	}
}

func TestRequireMethodPermission(t *testing.T) {
	e := echo.New()
	ck := stubChecker{can: func(m domain.Module, a domain.Action) bool {
		return m == domain.ModuleOrders && (a == domain.ActionView || a == domain.ActionUpdate)
	}}

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodPatch, http.StatusOK},
		{http.MethodPost, http.StatusForbidden},
		{http.MethodDelete, http.StatusForbidden},
		{http.MethodOptions, http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(tt.method, "/", nil), rec)
		h := RequireMethodPermission(ck, domain.ModuleOrders)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.method, tt.want, rec.Code)
		}
	}
}
