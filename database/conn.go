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
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
)

// InitDB connects the process-wide database described by cfg, running
// migrations and seeding as configured. Registered models are registered
// with Bun so relations between them resolve.
func InitDB(ctx context.Context, cfg *Config, opts ...ManagerOption) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory(opts...)
	if _, err := factory.CreateFromConfig(&cfg.ConnectionConfig); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx, cfg); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := factory.DB()
	db.RegisterModel(RegisteredModelInstances()...)

	globalMu.Lock()
	globalFactory, globalConfig = factory, cfg
	globalMu.Unlock()
	return db, nil
}

func current() (*BaseDatabaseFactory, *Config) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalFactory, globalConfig
}

// GetDB returns the process-wide database, or nil before InitDB.
func GetDB() *bun.DB {
	if f, _ := current(); f != nil {
		return f.DB()
	}
	return nil
}

func GetDatabaseManager() Manager {
	if f, _ := current(); f != nil {
		return f.Manager()
	}
	return nil
}

// CloseDB closes the process-wide database.
func CloseDB() error {
	globalMu.Lock()
	f := globalFactory
	globalFactory, globalConfig = nil, nil
	globalMu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

func GetHealthStatus(ctx context.Context) *HealthStatus {
	if f, _ := current(); f != nil {
		return f.HealthStatus(ctx)
	}
	return &HealthStatus{LastError: ErrNotConnected.Error()}
}

func GetDatabaseStats() *DBStats {
	if f, _ := current(); f != nil {
		return f.Stats()
	}
	return &DBStats{}
}

// RunMigrations runs migrations on the process-wide database.
func RunMigrations(ctx context.Context) error {
	f, cfg := current()
	if f == nil || f.Manager() == nil {
		return ErrNotConnected
	}
	return f.Manager().RunMigrations(ctx, cfg)
}

// InitData seeds the process-wide database for the configured environment.
func InitData(ctx context.Context) error {
	f, cfg := current()
	if f == nil || f.Manager() == nil {
		return ErrNotConnected
	}
	return f.Manager().InitData(ctx, &cfg.DataInitConfig)
}
