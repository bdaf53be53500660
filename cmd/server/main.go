// Command server runs the pipeline's HTTP façade: a trivial job endpoint
// backed by the same Pipeline the CLI drives directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kasai-dev/pageforge/internal/app"
	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/httpapi"
	"github.com/kasai-dev/pageforge/internal/logger"
)

// Module composes the application with the HTTP façade and its startup
// hook: infrastructure, clients, services, and an HTTP server module all
// wired into one fx graph.
var Module = fx.Options(
	app.Module,
	fx.Provide(httpapi.NewServer),
	fx.Invoke(registerHTTPServer),
)

func registerHTTPServer(lc fx.Lifecycle, srv *httpapi.Server, cfg *config.Config, log *zap.Logger) {
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: srv.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting HTTP façade", zap.String("addr", httpSrv.Addr))
			go func() {
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("HTTP façade stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpSrv.Shutdown(ctx)
		},
	})
}

func main() {
	application := fx.New(
		Module,
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()

	if err := application.Start(startCtx); err != nil {
		logger.Get().Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}

	<-application.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer stopCancel()

	if err := application.Stop(stopCtx); err != nil {
		logger.Get().Error("application shutdown failed", zap.Error(err))
	}
}

