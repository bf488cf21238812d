package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/viralink-scheduler/pkg/config"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

type ServerOpts struct {
	fx.In

	LC     fx.Lifecycle
	Router *gin.Engine
	Config *config.Config
	Logger logger.Logger
}

// NewServer binds the HTTP server to the fx lifecycle.
func NewServer(opts ServerOpts) *http.Server {
	log := opts.Logger.WithComponent("HTTP")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Config.App.Port),
		Handler:           opts.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			log.Info(fmt.Sprintf("Starting server on %s", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Server stopped unexpectedly", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping server")
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

func newEngine(h *Handler, cfg *config.Config) *gin.Engine {
	switch cfg.App.Env {
	case "", "development", "dev", "local":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	return NewRouter(h)
}

var Module = fx.Module("api",
	fx.Provide(
		NewHandler,
		newEngine,
		NewServer,
	),
	fx.Invoke(func(*http.Server) {}),
)
