package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quollhq/quoll/internal/auth/service"
	"github.com/quollhq/quoll/internal/auth/store"
	"github.com/quollhq/quoll/pkg/httpx"
	"github.com/quollhq/quoll/pkg/jwtx"
	"github.com/quollhq/quoll/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	LoginService      *service.LoginService
	AccountService    *service.AccountService
	EnrollmentService *service.EnrollmentService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccounts()
	r.registerSecondFactor()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{AccountService: r.AccountService}
	loginHandler := &LoginHandler{LoginService: r.LoginService}

	r.Mux.Handle("POST /v1/auth/register", registerHandler)
	r.Mux.Handle("POST /v1/auth/login", loginHandler)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}

	r.Mux.Handle("GET /v1/users/me", r.secured(http.HandlerFunc(h.HandleMe)))
	r.Mux.Handle("GET /v1/users", r.secured(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /v1/users/{id}", r.secured(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("DELETE /v1/users/{id}", r.secured(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerSecondFactor() {
	h := &SecondFactorHandler{EnrollmentService: r.EnrollmentService}

	r.Mux.Handle("POST /v1/2fa/enable", r.secured(http.HandlerFunc(h.HandleEnable)))
	r.Mux.Handle("POST /v1/2fa/disable", r.secured(http.HandlerFunc(h.HandleDisable)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}

func (r *Router) secured(h http.Handler) http.Handler {
	return httpx.Chain(h, httpx.AuthnMiddleware(r.verifier))
}
