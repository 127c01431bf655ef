package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/claimassess/internal/api"
	"github.com/sprite-ai/claimassess/internal/config"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the claim wizard.

Endpoints:
  GET  /health        Health check
  GET  /api/steps     Step indicator for ?current=N
  POST /api/overlay   Damage marker geometry for an image size
  POST /api/validate  Check a photo's type and size before upload
  GET  /api/ws        WebSocket for interactive wizard sessions`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "port to listen on")

	_ = v.BindPFlag(config.KeyServerAddr, serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := api.New(cfg.Server.Address(), api.Options{
		Logger: logger,
		Wizard: cfg.WizardOptions(),
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
			return err
		}
		return nil
	})
	return g.Wait()
}
