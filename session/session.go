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

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/bunrepo/database"
)

var (
	ErrAlreadyBegun  = errors.New("session: transaction already begun")
	ErrNoTransaction = errors.New("session: no transaction in progress")
)

// Provider forks new independent sessions.
type Provider interface {
	Fork() *Session
}

// Factory is the root session provider backed by a Bun database.
type Factory struct {
	db     *bun.DB
	logger database.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger handed to every forked session.
func WithLogger(logger database.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory returns a session provider for db.
func NewFactory(db *bun.DB, opts ...Option) *Factory {
	f := &Factory{db: db, logger: database.GetLogger()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) DB() *bun.DB { return f.db }

// Fork returns a new session. No connection is taken until the session
// queries, flushes or begins a transaction.
func (f *Factory) Fork() *Session {
	return &Session{id: uuid.NewString(), db: f.db, logger: f.logger}
}

// Session is one logical unit of work. It is not safe for concurrent
// operations: callers sequence the calls they make on a session.
type Session struct {
	id      string
	db      *bun.DB
	logger  database.Logger
	mu      sync.Mutex
	tx      bun.Tx
	active  bool
	pending []op
}

func (s *Session) ID() string { return s.id }

func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Begin starts a transaction. Every later read and flush of the session
// runs inside it until Commit or Rollback.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrAlreadyBegun
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	s.active = true
	s.logger.Debug("Session transaction begun", "session", s.id)
	return nil
}

// Commit flushes staged writes and commits. When the flush fails the
// transaction stays open and the caller must roll it back.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoTransaction
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	err := s.tx.Commit()
	s.active = false
	if err != nil {
		s.logger.Warn("Session commit failed", "session", s.id, "error", err)
		return err
	}
	s.logger.Debug("Session transaction committed", "session", s.id)
	return nil
}

// Rollback discards staged writes and rolls the transaction back.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if !s.active {
		return ErrNoTransaction
	}
	err := s.tx.Rollback()
	s.active = false
	s.logger.Debug("Session transaction rolled back", "session", s.id)
	return err
}

// Release drops staged writes and rolls back a transaction left open.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	if s.active {
		if err := s.tx.Rollback(); err != nil {
			s.logger.Warn("Failed to roll back released session", "session", s.id, "error", err)
		}
		s.active = false
	}
}

func (s *Session) conn() bun.IDB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return s.tx
	}
	return s.db
}
