package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/balkashynov/volhours/internal/api"
	"github.com/balkashynov/volhours/internal/auth"
	"github.com/balkashynov/volhours/internal/db"
)

// limiterIdle is how long a rate limit bucket may sit unused before a sweep drops it
const limiterIdle = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the hours ledger HTTP API.

The server needs VOLHOURS_JWT_SECRET (or auth.jwt_secret) to verify bearer
tokens. Mint tokens with 'volhours token <email>'.`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, a *app) error {
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.HTTP.Addr
		}

		server := api.NewServer(api.Options{
			Ledger:         a.ledger,
			Issuer:         issuer,
			Logger:         logger,
			RateLimitRPS:   cfg.HTTP.RateLimitRPS,
			RateLimitBurst: cfg.HTTP.RateLimitBurst,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if limiter := server.Limiter(); limiter != nil {
			go limiter.Run(ctx, limiterIdle)
		}

		return runHTTP(ctx, &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}, cfg.HTTP.ShutdownTimeout)
	}),
}

// runHTTP serves until ctx is done, then drains connections for at most
// timeout
func runHTTP(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("volhours api listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open migrates on connect
		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close(conn)

		logger.WithFields(logrus.Fields{
			"driver": cfg.Database.Driver,
		}).Info("schema is up to date")
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Database schema is up to date")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides http.addr)")
}
