package logger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestContextWithLogger_KeepsExistingLogger(t *testing.T) {
	ctx, rlog := logger.ContextWithLogger(context.Background())
	id := logger.RequestIDFromContext(ctx)
	assert.NotEmpty(t, id)

	ctx2, rlog2 := logger.ContextWithLogger(ctx)
	assert.Equal(t, ctx, ctx2)
	assert.Equal(t, rlog, rlog2)
	assert.Equal(t, id, logger.RequestIDFromContext(ctx2))
}

func TestContextWithOperation_KeepsRequestID(t *testing.T) {
	ctx, _ := logger.ContextWithRequestID(context.Background(), "abc")
	ctx, rlog := logger.ContextWithOperation(ctx, "search")
	assert.Equal(t, "abc", logger.RequestIDFromContext(ctx))
	assert.Equal(t, "search", rlog.Data["operation"])
}

func TestFromContext_WithoutLogger(t *testing.T) {
	assert.NotNil(t, logger.FromContext(context.Background()))
	assert.Equal(t, "", logger.RequestIDFromContext(context.Background()))
}

func TestAddRequestID(t *testing.T) {
	router := mux.NewRouter()
	logger.AddRequestID(router)
	var seen string
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	})

	// caller supplied id is reused
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(logger.RequestIDHeader, "from-caller")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "from-caller", seen)
	assert.Equal(t, "from-caller", rec.Header().Get(logger.RequestIDHeader))

	// otherwise a new one is generated
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "from-caller", seen)
	assert.Equal(t, seen, rec.Header().Get(logger.RequestIDHeader))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, logger.ParseLevel("nonsense"))
}
