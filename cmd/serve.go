package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatcher/internal/stubapi"
)

var (
	servePort int
	serveSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local stub of the Lead Watcher API backed by SQLite",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Stub.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		store, err := stubapi.Open(cfg.Stub.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if serveSeed {
			if err := stubapi.Seed(ctx, store); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Stub.Port),
			Handler: stubapi.NewServer(store, stubapi.Options{
				ConnectAfter:   cfg.Stub.ConnectAfter,
				AllowedOrigins: cfg.Stub.AllowedOrigins,
				Token:          cfg.API.Token,
			}).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting stub server",
			zap.Int("port", cfg.Stub.Port),
			zap.String("prefix", stubapi.Prefix),
			zap.String("database", cfg.Stub.DatabasePath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "load demo data into an empty database")
	rootCmd.AddCommand(serveCmd)
}
