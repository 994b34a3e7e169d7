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
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/types"
)

// FindOne loads the single row matching where into model. A missing row is
// reported as found == false with a nil error.
func (s *Session) FindOne(ctx context.Context, model any, where []schema.Cond, opts *types.FindOptions) (bool, error) {
	q := s.conn().NewSelect().Model(model)
	for _, c := range where {
		q = q.Where("?TableAlias.? = ?", bun.Ident(c.Column), c.Value)
	}
	q = withRelations(q, opts).Limit(1)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindAll loads every row selected by opts into dest, a pointer to a slice.
func (s *Session) FindAll(ctx context.Context, dest any, opts *types.FindOptions) error {
	q := s.conn().NewSelect().Model(dest)
	q = withWindow(withOrders(withFilter(withRelations(q, opts), opts), opts), opts)
	return q.Scan(ctx)
}

// FindAndCount counts the rows matching opts.Filter and loads the window
// described by opts into dest. The total ignores limit and offset.
func (s *Session) FindAndCount(ctx context.Context, dest any, opts *types.FindOptions) (int, error) {
	q := withFilter(s.conn().NewSelect().Model(dest), opts)
	total, err := q.Count(ctx)
	if err != nil || total == 0 {
		return total, err
	}
	q = withWindow(withOrders(withRelations(q, opts), opts), opts)
	if err := q.Scan(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

func withRelations(q *bun.SelectQuery, opts *types.FindOptions) *bun.SelectQuery {
	if opts == nil {
		return q
	}
	for _, rel := range opts.Relations {
		q = q.Relation(rel)
	}
	return q
}

func withFilter(q *bun.SelectQuery, opts *types.FindOptions) *bun.SelectQuery {
	if opts == nil || opts.Filter == nil || opts.Filter.Schema == "" {
		return q
	}
	return q.Where(opts.Filter.Schema, opts.Filter.Args...)
}

func withOrders(q *bun.SelectQuery, opts *types.FindOptions) *bun.SelectQuery {
	if opts == nil || len(opts.Orders) == 0 {
		return q
	}
	return q.Order(opts.Orders...)
}

func withWindow(q *bun.SelectQuery, opts *types.FindOptions) *bun.SelectQuery {
	if opts == nil {
		return q
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q
}
