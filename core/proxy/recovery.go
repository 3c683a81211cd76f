package proxy

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

// handleRecovery turns a panic in a handler into a regular 500 {error} response
func (p *Proxy) handleRecovery() {

	recoveryMiddleware := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Errorf("recovered from panic: %v\n%s", rec, debug.Stack())
				writeError(w, r, fmt.Errorf("recovered from panic: %v", rec))
			}()
			h.ServeHTTP(w, r)
		})
	}
	p.router.Use(recoveryMiddleware)
}
