package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"schoolhub.org/internal/auth"
	"schoolhub.org/internal/obs"
)

// Pinger is the readiness dependency, usually the pg store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options bundles the tunables New does not want as positional args.
type Options struct {
	Version      string
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

// API is the HTTP layer. Everything under /api/v1/auth speaks the
// response envelope; health and metrics endpoints stay plain.
type API struct {
	router  *mux.Router
	svc     *auth.Service
	codec   *auth.TokenCodec
	pinger  Pinger
	opts    Options
	version string
}

func New(svc *auth.Service, codec *auth.TokenCodec, pinger Pinger, opts Options) *API {
	a := &API{
		router:  mux.NewRouter(),
		svc:     svc,
		codec:   codec,
		pinger:  pinger,
		opts:    opts,
		version: opts.Version,
	}

	a.router.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)
	a.router.HandleFunc("/readyz", a.readyz).Methods(http.MethodGet)
	a.router.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	v1 := a.router.PathPrefix("/api/v1/auth").Subrouter()

	// public
	v1.HandleFunc("/register", a.register).Methods(http.MethodPost)
	v1.HandleFunc("/authenticate", a.authenticate).Methods(http.MethodPost)

	// role administration
	v1.HandleFunc("/create_role", a.requireIdentity(a.createRole)).Methods(http.MethodPost)
	v1.HandleFunc("/update_role_name", a.requireIdentity(a.updateRoleName)).Methods(http.MethodPost)
	v1.HandleFunc("/roles/{id}", a.requireIdentity(a.deleteRole)).Methods(http.MethodDelete)
	v1.HandleFunc("/roles/{id}", a.requireIdentity(a.getRole)).Methods(http.MethodGet)

	// role/permission hierarchy views
	v1.HandleFunc("/roles_with_permissions_tree", a.requireIdentity(a.rolesWithPermissionsTree)).Methods(http.MethodGet)
	v1.HandleFunc("/roles_with_permissions_grouped_by_group_name_tree", a.requireIdentity(a.rolesWithPermissionsGroupedTree)).Methods(http.MethodGet)
	v1.HandleFunc("/permissions_grouped_by_group_name", a.requireIdentity(a.permissionsGroupedByGroup)).Methods(http.MethodGet)

	// user administration
	v1.HandleFunc("/attachRolesToUser", a.requireIdentity(a.attachRolesToUser)).Methods(http.MethodPost)
	v1.HandleFunc("/user/update", a.requireIdentity(a.updateUser)).Methods(http.MethodPut)
	v1.HandleFunc("/user/{id}", a.requireIdentity(a.getUser)).Methods(http.MethodGet)
	v1.HandleFunc("/users", a.requireIdentity(a.listUsers)).Methods(http.MethodGet)

	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint")
	})
	a.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeInvalidArgument, "method not allowed")
	})

	return a
}

// Handler assembles the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "schoolhub-auth",
		"version": a.version,
	})
}

func (a *API) readyz(w http.ResponseWriter, r *http.Request) {
	if a.pinger != nil {
		if err := a.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
