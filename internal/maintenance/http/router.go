package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/pkg/httpx"
	"github.com/aussiebroadwan/traceline/pkg/jwtx"
	"github.com/aussiebroadwan/traceline/pkg/slogx"

	_ "github.com/aussiebroadwan/traceline/api/maintenance" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger is a dependency probed by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	Runner    *service.Runner
	Schedules []service.Schedule

	// Lock is pinged by /readyz when the job lock lives outside the process.
	Lock Pinger
}

// NewRouter builds a router. A nil verifier disables the /v1 admin routes;
// only the health endpoints are served.
func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	runner *service.Runner,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		Runner:       runner,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()

	if r.verifier == nil {
		r.logger.Warn("admin API disabled, no token verifier configured")
	} else {
		r.registerJobs()
		r.registerAudit()
	}

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Traceline Maintenance Service API
//	@version		0.1.0
//	@description	Scheduled housekeeping for the traceline platform: whitelist expiry, session reaping,
//	@description	factory activity rollup and the weekly report. Jobs can also be triggered on demand.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/traceline
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				HS256 admin token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerJobs() {
	h := &JobsHandler{Runner: r.Runner, Schedules: r.Schedules}

	// Triggers are expensive; keep them on the strict tier.
	runOne := httpx.Chain(http.HandlerFunc(h.HandleRun),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(jwtx.ScopeMaintenanceRun),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)
	runAll := httpx.Chain(http.HandlerFunc(h.HandleRunAll),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(jwtx.ScopeMaintenanceRun),
		httpx.RateLimitByUser(httpx.StrictLimit),
	)
	list := httpx.Chain(http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(jwtx.ScopeMaintenanceRead, jwtx.ScopeMaintenanceRun),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/jobs/{name}/run", runOne)
	r.Mux.Handle("POST /v1/jobs/run", runAll)
	r.Mux.Handle("GET /v1/jobs", list)
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Store: r.store}

	r.Mux.Handle("GET /v1/audit",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeAuditRead),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Lock),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
