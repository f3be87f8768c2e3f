package implementation

import (
	"errors"
	"net/http"

	"github.com/jt828/go-http-template/pkg/observability"
)

// StartMetricsServer serves only the exposition handler on addr, next to the
// application listener.
func StartMetricsServer(
	addr string,
	path string,
	handler http.Handler,
	log observability.Logger,
) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET "+path, handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Info("metrics server running", observability.String("addr", addr), observability.String("path", path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", observability.Err(err))
		}
	}()

	return srv
}
