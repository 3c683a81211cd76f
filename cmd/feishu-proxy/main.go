// feishu-proxy keeps the Feishu application secret away from the browser. It serves the
// front-end's configuration and forwards bitable record operations with a fresh tenant
// access token.
//
// All settings come from the environment, see core/config. --port and --log-level
// override PORT and LOG_LEVEL.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"

	"github.com/relabs-tech/feishu-proxy/core/config"
	"github.com/relabs-tech/feishu-proxy/core/feishu"
	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/metrics"
	"github.com/relabs-tech/feishu-proxy/core/proxy"
	"github.com/relabs-tech/feishu-proxy/core/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	c, err := config.FromEnvironment()
	if err != nil {
		return fmt.Errorf("cannot read configuration: %w", err)
	}

	flagSet := pflag.NewFlagSet("feishu-proxy", pflag.ContinueOnError)
	flagSet.IntVar(&c.Port, "port", c.Port, "port the HTTP server listens on (PORT)")
	flagSet.StringVar(&c.LogLevel, "log-level", c.LogLevel, "one of trace, debug, info, warn, error (LOG_LEVEL)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	logger.InitLogger(logger.ParseLevel(c.LogLevel))
	rlog := logger.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	router := mux.NewRouter()
	driver, err := storage.New(ctx, c, router, collector)
	if err != nil {
		return fmt.Errorf("cannot create storage driver: %w", err)
	}

	proxy.New(&proxy.Builder{
		Config: c,
		Router: router,
		Feishu: feishu.New(&feishu.Builder{
			BaseURL: c.Feishu.BaseURL,
			Timeout: c.Feishu.Timeout,
			Metrics: collector,
		}),
		Storage: driver,
		Metrics: collector,
	})

	if c.Feishu.AppID == "" {
		rlog.Warnln("FEISHU_APP_ID is not set, callers have to send app_id")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// leaves room for one token call and one data call
		WriteTimeout: 2*c.Feishu.Timeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		rlog.Infof("listen on port :%d (storage %s)", c.Port, c.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rlog.Infoln("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
