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

package bunrepo

import (
	"context"
	"sync"

	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/repository"
	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/session"
	"github.com/tomoncle/bunrepo/types"
)

type Service[T any] interface {
	// Get returns the entity stored under key, or nil.
	Get(ctx context.Context, key schema.Key) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save creates an entity from data.
	Save(ctx context.Context, data schema.Patch) (*T, error)

	// Update applies patch to the entity stored under key.
	Update(ctx context.Context, key schema.Key, patch schema.Patch) (*T, error)

	// Delete removes the entity stored under key.
	Delete(ctx context.Context, key schema.Key) error

	// WithSession returns a service whose operations run in s.
	WithSession(s *session.Session) Service[T]
}

type baseServiceImpl[T any] struct {
	schema   *schema.Schema[T]
	provider func() session.Provider
	bound    *session.Session
	repo     repository.Repository[T]
	once     sync.Once
}

// NewService returns a Service backed by the global database connection.
// The connection is resolved on first use, so InitDB may run later.
func NewService[T any](sc *schema.Schema[T]) Service[T] {
	return &baseServiceImpl[T]{
		schema: sc,
		provider: func() session.Provider {
			return session.NewFactory(database.GetDB())
		},
	}
}

// NewServiceWithProvider returns a Service whose sessions come from provider.
func NewServiceWithProvider[T any](provider session.Provider, sc *schema.Schema[T]) Service[T] {
	return &baseServiceImpl[T]{
		schema:   sc,
		provider: func() session.Provider { return provider },
	}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() {
		repo := repository.NewRepository[T](s.provider(), s.schema)
		if s.bound != nil {
			repo = repo.WithTransaction(s.bound)
		}
		s.repo = repo
	})
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, key schema.Key) (*T, error) {
	return s.baseRepo().FindOneByPk(ctx, key, nil)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().Find(ctx, nil)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.baseRepo().Find(ctx, types.NewFindOptions(filter))
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, data schema.Patch) (*T, error) {
	return s.baseRepo().Create(ctx, data)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, key schema.Key, patch schema.Patch) (*T, error) {
	return s.baseRepo().Update(ctx, key, patch)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, key schema.Key) error {
	return s.baseRepo().Delete(ctx, key)
}

func (s *baseServiceImpl[T]) WithSession(sess *session.Session) Service[T] {
	return &baseServiceImpl[T]{schema: s.schema, provider: s.provider, bound: sess}
}

// Transaction runs fn in a new transaction forked from provider. The
// transaction commits when fn returns nil and rolls back when fn fails or
// panics; a panic is re-raised after the rollback.
func Transaction(ctx context.Context, provider session.Provider, fn func(ctx context.Context, s *session.Session) error) error {
	s := provider.Fork()
	defer s.Release()

	if err := s.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = s.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, s); err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			database.GetLogger().Warn("Failed to roll back transaction", "session", s.ID(), "error", rbErr)
		}
		return err
	}
	return s.Commit(ctx)
}
