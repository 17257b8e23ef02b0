package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/hotelier/internal/auth"
	"github.com/example/hotelier/internal/booking"
	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/config"
	"github.com/example/hotelier/internal/db"
	"github.com/example/hotelier/internal/migrate"
	"github.com/example/hotelier/internal/postgres"
	"github.com/example/hotelier/internal/sweeper"
	"github.com/example/hotelier/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the front-desk web API + no-show sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireSessionKeys(); err != nil {
				return err
			}

			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cat, err := catalog.Load(cfg.HotelConfigPath)
			if err != nil {
				return err
			}

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			repo := postgres.NewReservationRepo(d)
			svc := booking.NewService(repo, cat, log)

			sw := &sweeper.Sweeper{
				Store:    repo,
				Interval: cfg.SweepInterval,
				Log:      log,
			}
			go func() { _ = sw.Run(ctx) }()

			srv := web.NewServer(authStore, svc, cat, log)
			log.Info("serving",
				zap.String("addr", cfg.ListenAddr),
				zap.String("hotel", cat.HotelName))
			return web.Start(ctx, cfg.ListenAddr, srv.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
