package proxy

import (
	"github.com/gorilla/handlers"
)

func (p *Proxy) handleCompression() {
	p.router.Use(handlers.CompressHandler)
}
