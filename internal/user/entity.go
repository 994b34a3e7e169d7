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
	"github.com/uptrace/bun"

	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/schema"
)

// User is an application account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull,unique" json:"username"`
	Password string `bun:"password,notnull" json:"-"`
}

var Schema = schema.MustNew[User]("users",
	schema.PrimaryKey("id").AutoGenerated(),
	schema.Column("id", func(u *User) *int64 { return &u.ID }),
	schema.Column("username", func(u *User) *string { return &u.Username }, schema.Required),
	schema.Column("password", func(u *User) *string { return &u.Password }, schema.Required),
)

func init() {
	database.RegisterModel(database.NewModelAdapter((*User)(nil), 100))
}
