package httpx

import (
	"net/http"
	"strings"

	apperrors "github.com/target/courseshop/internal/errors"
)

// RouteGroup mounts a set of routes under a path prefix.
type RouteGroup interface {
	Prefix() string
	Routes(g *Group)
}

// Router dispatches error-returning handlers through an http.ServeMux.
// Unmatched requests produce a not_found error.
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates a Router with the not-found catch-all installed.
func NewRouter() *Router {
	rt := &Router{mux: http.NewServeMux()}
	rt.mux.Handle("/", rt.adapt(func(_ http.ResponseWriter, r *http.Request) error {
		return apperrors.NotFoundf("page %s not found", r.URL.Path)
	}))
	return rt
}

// Mount registers every route of the given groups.
func (rt *Router) Mount(groups ...RouteGroup) *Router {
	for _, grp := range groups {
		grp.Routes(&Group{rt: rt, prefix: strings.TrimSuffix(grp.Prefix(), "/")})
	}
	return rt
}

// Handler returns the router as a HandlerFunc. Route errors are returned, not written.
func (rt *Router) Handler() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		st := StateFrom(r)
		st.routeErr = nil
		rt.mux.ServeHTTP(w, r)
		err := st.routeErr
		st.routeErr = nil
		return err
	}
}

func (rt *Router) adapt(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			StateFrom(r).routeErr = err
		}
	})
}

// Group registers routes below a prefix.
type Group struct {
	rt     *Router
	prefix string
}

// Handle registers h for method and path relative to the group prefix.
// Path "/" matches the prefix itself, with or without a trailing slash.
func (g *Group) Handle(method, path string, h HandlerFunc) {
	handler := g.rt.adapt(h)
	if path == "/" || path == "" {
		if g.prefix == "" {
			g.rt.mux.Handle(method+" /{$}", handler)
			return
		}
		g.rt.mux.Handle(method+" "+g.prefix, handler)
		g.rt.mux.Handle(method+" "+g.prefix+"/{$}", handler)
		return
	}
	g.rt.mux.Handle(method+" "+g.prefix+path, handler)
}

// Get registers a GET route. GET patterns also match HEAD.
func (g *Group) Get(path string, h HandlerFunc) { g.Handle(http.MethodGet, path, h) }

// Post registers a POST route.
func (g *Group) Post(path string, h HandlerFunc) { g.Handle(http.MethodPost, path, h) }

// Delete registers a DELETE route.
func (g *Group) Delete(path string, h HandlerFunc) { g.Handle(http.MethodDelete, path, h) }
