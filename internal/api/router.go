package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/lavanderia/ops-console/docs"
	"github.com/lavanderia/ops-console/internal/api/handler"
	"github.com/lavanderia/ops-console/internal/api/middleware"
	"github.com/lavanderia/ops-console/internal/core/domain"
	"github.com/lavanderia/ops-console/internal/core/family"
	"github.com/lavanderia/ops-console/internal/core/permission"
	"github.com/lavanderia/ops-console/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Registry *family.Registry
	Sessions ports.SessionService
	// Upstream enables the {base}/api proxy routes. Nil disables them.
	Upstream handler.Upstream
	// Readiness lists the dependencies /health/ready pings.
	Readiness map[string]handler.Pinger
	// Heartbeat is the keep-alive interval of the event streams.
	Heartbeat time.Duration
	// Metrics receives the HTTP request metrics and backs /metrics. Nil
	// means the default Prometheus registry.
	Metrics *prometheus.Registry
	Logger  zerolog.Logger
}

// actionRoutes need a capability beyond what their HTTP method implies.
// Paths are relative to the module group.
var actionRoutes = []struct {
	method string
	module domain.Module
	path   string
	action domain.Action
}{
	{echo.POST, domain.ModulePayments, "/:id/refund", domain.ActionRefund},
	{echo.GET, domain.ModuleReports, "/export", domain.ActionExport},
	{echo.GET, domain.ModuleOrders, "/export", domain.ActionExport},
	{echo.POST, domain.ModuleTickets, "/:id/assign", domain.ActionAssign},
	{echo.POST, domain.ModuleOrders, "/:id/assign", domain.ActionAssign},
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: registerer,
	}))

	// --- Role families ---
	for _, m := range deps.Registry.All() {
		mountFamily(e, m, deps)
	}

	// --- Health probes, metrics and docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Registry, deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – sessions hydrated, dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func mountFamily(e *echo.Echo, m *family.Member, deps Deps) {
	checker := permission.For(m.Store)
	gate := middleware.Guard(m.Guard)
	sessionHandler := handler.NewSessionHandler(m.Name, deps.Sessions, checker)
	eventsHandler := handler.NewEventsHandler(m.Guard, deps.Heartbeat, deps.Logger)

	e.POST(m.LoginRoute, sessionHandler.Login)

	base := e.Group(m.BasePath)
	auth := base.Group("/auth")
	auth.POST("/logout", sessionHandler.Logout)
	auth.GET("/session", sessionHandler.Session)
	auth.GET("/events", eventsHandler.Stream)
	auth.PATCH("/me", sessionHandler.UpdateProfile, gate)
	auth.GET("/permissions/:module/:action", sessionHandler.Permission, gate)
	auth.GET("/navigation", sessionHandler.Navigation, gate)

	if deps.Upstream == nil {
		return
	}
	prefix := m.BasePath + "/api"
	proxy := handler.NewProxyHandler(m.Name, prefix, deps.Upstream, deps.Sessions, deps.Logger)
	api := base.Group("/api", gate)
	for _, mod := range domain.Modules() {
		// A module the session cannot see at all is closed before any
		// per-action check runs.
		g := api.Group("/"+string(mod), middleware.RequireModule(checker, mod))
		for _, r := range actionRoutes {
			if r.module == mod {
				g.Add(r.method, r.path, proxy.Forward, middleware.RequirePermission(checker, mod, r.action))
			}
		}
		byMethod := middleware.RequireMethodPermission(checker, mod)
		g.Any("", proxy.Forward, byMethod)
		g.Any("/*", proxy.Forward, byMethod)
	}
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
