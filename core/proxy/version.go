package proxy

import (
	"net/http"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

var (
	// Version is the version of the current build, set with -ldflags
	Version = "unset"
)

func (p *Proxy) handleVersion() {
	logger.Default().Debugln("version")
	logger.Default().Debugln("  handle version route: /version GET")
	p.router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, map[string]string{"version": Version})
	}).Methods(http.MethodOptions, http.MethodGet)
}
