/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomoncle/bunrepo/config"
	"github.com/tomoncle/bunrepo/database"
	_ "github.com/tomoncle/bunrepo/internal/user"
	"github.com/tomoncle/bunrepo/utils"
)

var logger = utils.NewLogger("MIGRATE")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the application database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the process environment is read")
	cmd.AddCommand(newUpCommand(&envFile))
	cmd.AddCommand(newStatusCommand(&envFile))
	cmd.AddCommand(newSeedCommand(&envFile))
	return cmd
}

func loadConfig(envFile string) (*database.Config, error) {
	env, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	return env.ConfigLoader(), nil
}

// connect opens the database described by cfg and runs fn against it.
func connect(ctx context.Context, cfg *database.Config, fn func(mm *database.MigrationManager) error) error {
	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warnf("failed to close database: %v", err)
		}
	}()
	return fn(database.NewMigrationManager(db, nil, cfg))
}

func newUpCommand(envFile *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			cfg.DataMigrateConfig.EnableMigrateOnStartup = true
			cfg.DataInitConfig.AutoInitOnStartup = cfg.DataInitConfig.AutoInitOnStartup || seed
			return connect(cmd.Context(), cfg, func(mm *database.MigrationManager) error {
				return printApplied(cmd, mm)
			})
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Execute the SQL seed files after migrating")
	return cmd
}

func newStatusCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			cfg.DataMigrateConfig.EnableMigrateOnStartup = false
			cfg.DataInitConfig.AutoInitOnStartup = false
			return connect(cmd.Context(), cfg, func(mm *database.MigrationManager) error {
				return printApplied(cmd, mm)
			})
		},
	}
}

func newSeedCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Execute the SQL seed files for the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			cfg.DataMigrateConfig.EnableMigrateOnStartup = false
			cfg.DataInitConfig.AutoInitOnStartup = false
			return connect(cmd.Context(), cfg, func(mm *database.MigrationManager) error {
				return mm.InitData(cmd.Context())
			})
		},
	}
}

func printApplied(cmd *cobra.Command, mm *database.MigrationManager) error {
	applied, err := mm.AppliedMigrations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, m := range applied {
		fmt.Fprintf(out, "%s\t%s\t%s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
