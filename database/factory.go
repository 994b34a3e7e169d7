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

package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory builds a Manager from configuration and drives the
// startup sequence: connect, migrate, seed.
type BaseDatabaseFactory struct {
	manager Manager
	logger  Logger
	options []ManagerOption
}

// NewDatabaseFactory returns a factory using the global logger. The options
// are passed to every manager it creates.
func NewDatabaseFactory(opts ...ManagerOption) *BaseDatabaseFactory {
	return &BaseDatabaseFactory{logger: GetLogger(), options: opts}
}

// CreateFromConfig applies DB_* environment overrides to cfg and creates a
// manager for it.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	overrideFromEnv(cfg)
	if !IsSupportedType(cfg.Type) {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v",
			cfg.Type, []string{TypePostgres, TypeMySQL, TypeSQLite})
	}
	manager := NewDatabaseManager(cfg, f.options...)
	manager.SetLogger(f.logger)
	f.manager = manager
	return manager, nil
}

func overrideFromEnv(cfg *ConnectionConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
			*dst = v
		}
	}
	setString("DB_TYPE", &cfg.Type)
	setString("DB_DRIVER", &cfg.Driver)
	setString("DB_HOST", &cfg.Host)
	setInt("DB_PORT", &cfg.Port)
	setString("DB_USERNAME", &cfg.Username)
	setString("DB_PASSWORD", &cfg.Password)
	setString("DB_NAME", &cfg.DBName)
	setString("DB_SSLMODE", &cfg.SSLMode)
	setInt("DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns)
	setInt("DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns)
	var lifetime int
	setInt("DB_CONN_MAX_LIFETIME", &lifetime)
	if lifetime > 0 {
		cfg.ConnMaxLifetime = time.Duration(lifetime) * time.Second
	}
	setBool("DB_ENABLE_QUERY_LOG", &cfg.EnableQueryLog)
	setBool("DB_ENABLE_METRICS", &cfg.EnableMetrics)
}

// InitializeDatabase connects and then, as cfg asks, runs migrations and
// seeds data.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, cfg *Config) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.DataMigrateConfig.EnableMigrateOnStartup {
		if err := f.manager.RunMigrations(ctx, cfg); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := f.manager.InitData(ctx, &cfg.DataInitConfig); err != nil {
			return fmt.Errorf("failed to initialize data: %w", err)
		}
	}
	f.logger.Info("Database initialization completed")
	return nil
}

func (f *BaseDatabaseFactory) Manager() Manager {
	return f.manager
}

// DB returns the Bun database, or nil before a manager is created.
func (f *BaseDatabaseFactory) DB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.DB()
}

func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

func (f *BaseDatabaseFactory) HealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{LastError: "database manager not initialized", LastCheckTime: time.Now()}
	}
	return f.manager.HealthCheck(ctx)
}

func (f *BaseDatabaseFactory) Stats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.Stats()
}
