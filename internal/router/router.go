package router

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/jt828/go-http-template/internal/interceptor"
	"github.com/jt828/go-http-template/pkg/observability"
)

type Route struct {
	Method  string
	Pattern string
	Name    string
}

// Router is an http.ServeMux that remembers what was registered on it.
type Router struct {
	mux *http.ServeMux
	log observability.Logger

	mu     sync.Mutex
	routes []Route
}

func New(log observability.Logger) *Router {
	return &Router{
		mux: http.NewServeMux(),
		log: log,
	}
}

func (rt *Router) Handle(method, pattern, name string, h http.Handler) {
	rt.mux.Handle(method+" "+pattern, h)

	rt.mu.Lock()
	rt.routes = append(rt.routes, Route{Method: method, Pattern: pattern, Name: name})
	rt.mu.Unlock()
}

// HandleFunc registers an error-returning handler behind the error
// interceptor.
func (rt *Router) HandleFunc(method, pattern, name string, h interceptor.HandlerFunc) {
	rt.Handle(method, pattern, name, interceptor.ErrorInterceptor(rt.log, h))
}

// Routes returns the registered routes ordered by pattern, then method.
func (rt *Router) Routes() []Route {
	rt.mu.Lock()
	routes := slices.Clone(rt.routes)
	rt.mu.Unlock()

	slices.SortFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Pattern, b.Pattern); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return routes
}

func (rt *Router) LogRoutes() {
	for _, route := range rt.Routes() {
		rt.log.Info("route registered",
			observability.String("name", route.Name),
			observability.String("method", route.Method),
			observability.String("pattern", route.Pattern),
		)
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}
