package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"creator-ledger/internal/infra/api"
	pg "creator-ledger/internal/infra/db/postgres"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, f)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := pg.Migrate(ctx, a.pool); err != nil {
					return err
				}
				a.log.Info().Msg("schema applied")
			}

			go pg.ReportPoolStats(ctx, a.pool, 15*time.Second, a.log)
			a.workers.Start(ctx)
			a.scheduler.Start()

			auth := api.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer)
			srv := api.NewServer(a.tipUC, a.earningUC, a.subUC, a.webhookUC, auth, a.gateway.Name(), a.cfg.Server, a.log).HTTPServer()

			errc := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Str("provider", a.gateway.Name()).Msg("http listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case <-ctx.Done():
				a.log.Info().Msg("shutdown requested")
			case err := <-errc:
				if err != nil {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error().Err(err).Msg("http shutdown")
			}
			a.scheduler.Stop(shutdownCtx)
			a.log.Info().Msg("bye")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}
