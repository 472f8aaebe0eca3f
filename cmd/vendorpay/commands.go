package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/simp-lee/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/app"
	"github.com/simp-lee/vendorpay/internal/auth"
	"github.com/simp-lee/vendorpay/internal/config"
	"github.com/simp-lee/vendorpay/internal/module/user"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			return a.Run()
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(*configPath, func(_ *config.Config, db *gorm.DB) error {
				if err := app.Migrate(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
				return nil
			})
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the bootstrap administrator and sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(*configPath, func(cfg *config.Config, db *gorm.DB) error {
				if err := app.Migrate(db); err != nil {
					return err
				}
				report, err := app.Seed(cmd.Context(), db, cfg.Auth.BcryptCost)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d vendors, %d payments\n",
					report.Users, report.Vendors, report.Payments)
				if report.Users > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "admin login: %s / %s\n", app.SeedAdminEmail, app.SeedAdminPassword)
				}
				return nil
			})
		},
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(*configPath, func(cfg *config.Config, db *gorm.DB) error {
				u, err := user.NewRepository(db).GetByID(cmd.Context(), userID)
				if err != nil {
					return fmt.Errorf("lookup user %s: %w", userID, err)
				}
				tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL())
				if err != nil {
					return err
				}
				defer tokens.Close()

				issued, err := tokens.Issue(u)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
				fmt.Fprintf(cmd.ErrOrStderr(), "user %s (%s), expires %s\n",
					u.Email, u.Role, issued.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to issue the token for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// withDatabase loads configuration, opens the database and runs fn, closing
// the connection and the logger afterwards.
func withDatabase(configPath string, fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closeLogger(log)

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	return fn(cfg, db)
}

func closeLogger(log *logger.Logger) {
	if err := log.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
}
