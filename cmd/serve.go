package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"photocull-api/config"
	"photocull-api/handlers"
	"photocull-api/middleware"
	"photocull-api/preview"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("port", "", "listen address or port (e.g. 8081, :8081)")
	cmd.Flags().String("mode", "", "gin mode (debug, release, test)")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("server.mode", cmd.Flags().Lookup("mode"))
	return cmd
}

// NewRouter はミドルウェアとルートを登録した gin エンジンを作成する
func NewRouter(cfg *config.Config, logger zerolog.Logger) (*gin.Engine, error) {
	opts := cfg.Preview.Options()
	extractor, err := preview.NewFileExtractor(opts, nil)
	if err != nil {
		return nil, err
	}
	previewHandler := handlers.NewPreviewHandler(extractor, cfg.Preview.BasePath, cfg.Server.MaxConcurrentDecodes, logger)
	system := handlers.NewSystemInfo(version, opts, cfg.Server.MaxConcurrentDecodes)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(gin.CustomRecovery(middleware.HandlePanics(logger)))
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ErrorMiddleware(logger))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r.Group("/v1/api"), previewHandler, system)
	return r, nil
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	if info, err := os.Stat(cfg.Preview.BasePath); err != nil || !info.IsDir() {
		logger.Warn().Str("base_path", cfg.Preview.BasePath).Msg("Photo library root is not a readable directory")
	}

	r, err := NewRouter(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Port).
			Str("base_path", cfg.Preview.BasePath).
			Str("version", version).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start server")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown server")
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
