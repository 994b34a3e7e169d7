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

package repository

import (
	"context"

	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/session"
	"github.com/tomoncle/bunrepo/types"
)

type baseRepositoryImpl[T any] struct {
	provider session.Provider
	schema   *schema.Schema[T]
	bound    *session.Session
}

// NewRepository returns a generic repository that forks a new session from
// provider for every call.
func NewRepository[T any](provider session.Provider, sc *schema.Schema[T]) Repository[T] {
	return &baseRepositoryImpl[T]{provider: provider, schema: sc}
}

func (r *baseRepositoryImpl[T]) Schema() *schema.Schema[T] { return r.schema }

func (r *baseRepositoryImpl[T]) Bound() bool { return r.bound != nil }

// WithTransaction always starts from the root provider and schema so a
// repository derived from another bound one never keeps the older session.
// A nil session yields an unbound repository.
func (r *baseRepositoryImpl[T]) WithTransaction(s *session.Session) Repository[T] {
	return &baseRepositoryImpl[T]{provider: r.provider, schema: r.schema, bound: s}
}

// currentSession returns the bound session, or a fresh one together with
// the function releasing it.
func (r *baseRepositoryImpl[T]) currentSession() (*session.Session, func()) {
	if r.bound != nil {
		return r.bound, func() {}
	}
	s := r.provider.Fork()
	return s, s.Release
}

func (r *baseRepositoryImpl[T]) FindOneByPk(ctx context.Context, key schema.Key, opts *types.FindOptions) (*T, error) {
	conds, err := r.schema.Conditions(key)
	if err != nil {
		return nil, err
	}
	s, release := r.currentSession()
	defer release()
	return r.findOne(ctx, s, conds, opts)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, opts *types.FindOptions) ([]*T, error) {
	s, release := r.currentSession()
	defer release()
	entities := make([]*T, 0)
	if err := s.FindAll(ctx, &entities, opts); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, 10)
	}
	s, release := r.currentSession()
	defer release()
	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	entities := make([]*T, 0)
	total, err := s.FindAndCount(ctx, &entities, page.FindOptions())
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, data schema.Patch) (*T, error) {
	entity, err := r.schema.Build(data)
	if err != nil {
		return nil, err
	}
	s, release := r.currentSession()
	defer release()
	s.Persist(entity)
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, key schema.Key, patch schema.Patch) (*T, error) {
	s, release := r.currentSession()
	defer release()
	entity, err := r.findOneOrFail(ctx, s, key)
	if err != nil {
		return nil, err
	}
	// The row is addressed by the key it was loaded with, so a patch that
	// moves the key onto another row fails in the store.
	where := r.schema.KeyConditions(entity)
	columns, err := r.schema.Merge(entity, patch)
	if err != nil {
		return nil, err
	}
	s.Modify(entity, r.schema.Values(entity, columns), where)
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, key schema.Key) error {
	s, release := r.currentSession()
	defer release()
	entity, err := r.findOneOrFail(ctx, s, key)
	if err != nil {
		return err
	}
	s.Remove(entity, r.schema.KeyConditions(entity))
	return s.Flush(ctx)
}

func (r *baseRepositoryImpl[T]) findOne(ctx context.Context, s *session.Session, conds []schema.Cond, opts *types.FindOptions) (*T, error) {
	entity := new(T)
	found, err := s.FindOne(ctx, entity, conds, opts)
	if err != nil || !found {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) findOneOrFail(ctx context.Context, s *session.Session, key schema.Key) (*T, error) {
	conds, err := r.schema.Conditions(key)
	if err != nil {
		return nil, err
	}
	entity, err := r.findOne(ctx, s, conds, nil)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &NotFoundError{Table: r.schema.Table(), Key: key}
	}
	return entity, nil
}
