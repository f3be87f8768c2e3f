package interceptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jt828/go-http-template/pkg/apperror"
	"github.com/jt828/go-http-template/pkg/observability"
)

// HandlerFunc is an http handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type errorBody struct {
	Error string `json:"error"`
}

// ErrorInterceptor maps errors returned by handler to HTTP statuses and turns
// panics into 500s. http.ErrAbortHandler is re-raised so net/http can abort
// the connection.
func ErrorInterceptor(log observability.Logger, handler HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error("panic recovered",
					observability.String("panic", fmt.Sprintf("%v", p)),
					observability.String("method", r.Method),
					observability.String("endpoint", EndpointLabel(r.Pattern)),
					observability.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		err := handler(w, r)
		if err == nil {
			return
		}

		switch {
		case errors.Is(err, apperror.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, apperror.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error("unhandled error",
				observability.Err(err),
				observability.String("method", r.Method),
				observability.String("endpoint", EndpointLabel(r.Pattern)),
				observability.String("request_id", RequestIDFromContext(r.Context())),
			)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
