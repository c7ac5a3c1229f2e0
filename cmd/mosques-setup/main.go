// Command mosques-setup prepares a backend for first use: it creates the
// sheets with their header rows, seeds the governorate lookup and, with
// -seed-users, the demo accounts.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"mosques/internal/auth"
	"mosques/internal/cli"
	"mosques/internal/core"
	applog "mosques/internal/log"
)

func main() {
	seedUsers := flag.Bool("seed-users", false, "create the demo Admin and User accounts")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentSetup)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// InitBackend ensures the layout and seeds an empty geography table.
	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Close()

	if *seedUsers {
		for _, u := range core.DemoUsers {
			hash, err := auth.HashPassword(u.NationalID)
			if err != nil {
				logger.Error("Hashing password failed", applog.FieldError, err)
				os.Exit(1)
			}
			u.Password = hash
			switch err := res.Store.AddUser(ctx, u); {
			case errors.Is(err, core.ErrConflict):
				logger.Info("User already exists", applog.FieldNationalID, u.NationalID)
			case err != nil:
				logger.Error("Seeding user failed", applog.FieldNationalID, u.NationalID, applog.FieldError, err)
				os.Exit(1)
			default:
				logger.Info("User created", applog.FieldNationalID, u.NationalID, applog.FieldRole, u.Role)
			}
		}
	}

	geo, err := res.Store.ListGovernorateZones(ctx)
	if err != nil {
		logger.Error("Reading geography failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Setup complete", applog.FieldBackend, res.Type, "governorates", len(geo.Order))
}
