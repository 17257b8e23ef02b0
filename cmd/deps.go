package cmd

import (
	"context"

	"github.com/example/hotelier/internal/booking"
	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/config"
	"github.com/example/hotelier/internal/db"
	"github.com/example/hotelier/internal/migrate"
	"github.com/example/hotelier/internal/postgres"
	"go.uber.org/zap"
)

// withService wires config, catalog, database and the booking service
// for one-shot CLI commands, and tears the database down afterwards.
func withService(ctx context.Context, fn func(cfg config.Config, svc *booking.Service) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.HotelConfigPath)
	if err != nil {
		return err
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := migrate.Up(ctx, d); err != nil {
		return err
	}

	svc := booking.NewService(postgres.NewReservationRepo(d), cat, zap.NewNop())
	return fn(cfg, svc)
}
