package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/internal/auth/store"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/jwtx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.AccessVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	SessionService *service.SessionService
	GateService    *service.GateService
}

func NewRouter(
	signer *jwtx.Signer,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerGates()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	// POST /login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /v1/sessions/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - strict rate limit by IP (token minting)
	refreshHandler := &RefreshHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /v1/sessions/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - authenticated, moderate rate limit by principal
	logoutHandler := &LogoutHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /v1/sessions/logout",
		httpx.Chain(logoutHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		),
	)

	// PUT /password - authenticated, strict rate limit by principal
	// (current-password verification is a credential check)
	passwordHandler := &PasswordHandler{SessionService: r.SessionService}
	r.Mux.Handle("PUT /v1/sessions/password",
		httpx.Chain(passwordHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByPrincipal(httpx.StrictLimit),
		),
	)

	// GET /sessions - authenticated, lenient rate limit by principal
	sessionsHandler := &SessionsHandler{SessionService: r.SessionService}
	r.Mux.Handle("GET /v1/sessions",
		httpx.Chain(sessionsHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByPrincipal(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerGates() {
	h := &GateHandler{GateService: r.GateService}

	// POST /code - authenticated, strict rate limit (passcode minting)
	securedCode := httpx.Chain(http.HandlerFunc(h.HandleRequestCode),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByPrincipal(httpx.StrictLimit),
	)

	// POST /toggle - authenticated, strict rate limit (prevents brute force
	// of passcodes and the shared secret)
	securedToggle := httpx.Chain(http.HandlerFunc(h.HandleToggle),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByPrincipal(httpx.StrictLimit),
	)

	// GET status - authenticated, lenient rate limit
	securedStatus := httpx.Chain(http.HandlerFunc(h.HandleStatus),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByPrincipal(httpx.LenientLimit),
	)

	r.Mux.Handle("POST /v1/gates/{gate}/code", securedCode)
	r.Mux.Handle("POST /v1/gates/{gate}/toggle", securedToggle)
	r.Mux.Handle("GET /v1/gates/{gate}", securedStatus)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
