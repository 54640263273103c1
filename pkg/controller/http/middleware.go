package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/utils/errutil"
)

const corsAllowHeaders = "Content-Type, Authorization"

// cors sets the CORS headers on every response of the route, errors included
func cors(methods ...string) func(http.Handler) http.Handler {
	allowMethods := strings.Join(methods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			next.ServeHTTP(w, r)
		})
	}
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// recoverer turns a panic into a JSON 500. Headers set before the panic,
// such as CORS, are kept.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err := goerr.New("internal server error",
				goerr.V("panic", fmt.Sprint(rec)),
				goerr.V("path", r.URL.Path))
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
