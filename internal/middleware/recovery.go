package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/R3E-Network/heroapps/internal/httputil"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

// Recovery turns a handler panic into the generic 500 reply.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).
					WithField("panic", fmt.Sprint(rec)).
					WithField("stack", string(debug.Stack())).
					Error("handler panicked")
				httputil.InternalError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
