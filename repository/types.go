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

// CrudRepository defines key-based CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	// FindOneByPk returns the entity stored under key, or nil without an
	// error when there is none.
	FindOneByPk(ctx context.Context, key schema.Key, opts *types.FindOptions) (*T, error)

	// Find returns the entities selected by opts in the order the store
	// yields them.
	Find(ctx context.Context, opts *types.FindOptions) ([]*T, error)

	// Create builds an entity from data, inserts it and returns it with any
	// generated key populated.
	Create(ctx context.Context, data schema.Patch) (*T, error)

	// Update loads the entity under key, applies the fields present in patch
	// and writes them. A missing entity is an error wrapping ErrNotFound.
	Update(ctx context.Context, key schema.Key, patch schema.Patch) (*T, error)

	// Delete removes the entity under key. A missing entity is an error
	// wrapping ErrNotFound.
	Delete(ctx context.Context, key schema.Key) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// TransactionRepository derives repositories bound to a caller-owned session.
type TransactionRepository[T any] interface {
	// WithTransaction returns a new repository over the same schema whose
	// operations all run on s. The receiver is left untouched.
	WithTransaction(s *session.Session) Repository[T]

	// Bound reports whether the repository runs on a caller-owned session.
	Bound() bool
}

// Repository combines CRUD, pagination and transaction binding.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Schema() *schema.Schema[T]
}
