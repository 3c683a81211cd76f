package proxy

import (
	"net/http"

	"github.com/relabs-tech/feishu-proxy/core/logger"
)

func (p *Proxy) handleConfig() {
	logger.Default().Debugln("config")
	logger.Default().Debugln("  handle config route: /api/config GET")
	p.router.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, p.config.Snapshot())
	}).Methods(http.MethodOptions, http.MethodGet)
}
