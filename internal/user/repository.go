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

package user

import (
	"context"

	"github.com/tomoncle/bunrepo/repository"
	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/session"
)

// UserRepository stores users.
type UserRepository struct {
	repository.Repository[User]
	provider session.Provider
}

func NewUserRepository(provider session.Provider) *UserRepository {
	return &UserRepository{
		Repository: repository.NewRepository[User](provider, Schema),
		provider:   provider,
	}
}

// WithTransaction returns a repository bound to s.
func (r *UserRepository) WithTransaction(s *session.Session) *UserRepository {
	return &UserRepository{
		Repository: repository.NewRepository[User](r.provider, Schema).WithTransaction(s),
		provider:   r.provider,
	}
}

// FindByID returns the user with the given id, or nil.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.FindOneByPk(ctx, schema.Scalar(id), nil)
}

// Register creates a user.
func (r *UserRepository) Register(ctx context.Context, username, password string) (*User, error) {
	return r.Create(ctx, schema.Patch{"username": username, "password": password})
}

// Rename changes the username of a user.
func (r *UserRepository) Rename(ctx context.Context, id int64, username string) (*User, error) {
	return r.Update(ctx, schema.Scalar(id), schema.Patch{"username": username})
}
