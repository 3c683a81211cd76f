package proxy

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/feishu-proxy/core/config"
	"github.com/relabs-tech/feishu-proxy/core/feishu"
	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
	"github.com/relabs-tech/feishu-proxy/core/schema"
	"github.com/relabs-tech/feishu-proxy/core/storage"
)

//go:embed schemas
var schemasFS embed.FS

// maxBodySize limits request bodies, uploads carry base64 images
const maxBodySize = 10 << 20

// Proxy is the HTTP surface in front of the Feishu open API
type Proxy struct {
	config    *config.Configuration
	router    *mux.Router
	feishu    feishu.RecordProxy
	storage   storage.Driver
	metrics   *metrics.Collector
	validator *schema.Validator
}

// Builder is a builder helper for the Proxy
type Builder struct {
	// Config is the service configuration. This is mandatory.
	Config *config.Configuration
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Feishu is the upstream client. This is mandatory.
	Feishu feishu.RecordProxy
	// Storage receives image uploads. Without it /api/github/upload is not installed.
	Storage storage.Driver
	// Metrics is exposed at /metrics if set.
	Metrics *metrics.Collector
}

// New realizes the proxy and adds all routes and middlewares to the router.
func New(b *Builder) *Proxy {
	if b.Config == nil {
		panic("Config is missing")
	}
	if b.Router == nil {
		panic("Router is missing")
	}
	if b.Feishu == nil {
		panic("Feishu is missing")
	}

	schemas, err := fs.Sub(schemasFS, "schemas")
	if err != nil {
		panic(err)
	}
	validator, err := schema.Load(schemas)
	if err != nil {
		panic(fmt.Errorf("cannot load request schemas: %w", err))
	}

	p := &Proxy{
		config:    b.Config,
		router:    b.Router,
		feishu:    b.Feishu,
		storage:   b.Storage,
		metrics:   b.Metrics,
		validator: validator,
	}

	logger.AddRequestID(p.router)
	p.handleRecovery()
	p.handleCORS()
	p.handleCompression()

	p.handleRoutes()
	return p
}

func (p *Proxy) handleRoutes() {
	logger.Default().Debugln("proxy: HandleRoutes")

	p.handleVersion()
	p.handleConfig()
	p.handleFeishu()
	if p.storage != nil {
		p.handleUpload()
	}
	if p.metrics != nil {
		logger.Default().Debugln("  handle metrics route: /metrics GET")
		p.router.Handle("/metrics", p.metrics.Handler()).Methods(http.MethodOptions, http.MethodGet)
	}
}

// Router returns the router the proxy is installed on
func (p *Proxy) Router() *mux.Router {
	return p.router
}
