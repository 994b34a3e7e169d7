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
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   bool
		want SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true, DuplicateKeyErr},
		{"pgx wrapped fk", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), true, ForeignKeyViolationErr},
		{"pgx unmapped", &pgconn.PgError{Code: "40001"}, true, UnknownErr},
		{"pq not null", &pq.Error{Code: "23502"}, true, NotNullViolationErr},
		{"pq check", &pq.Error{Code: "23514"}, true, CheckConstraintViolationErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"mysql fk child row", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql fk parent row", fmt.Errorf("delete: %w", &mysql.MySQLError{Number: 1451}), true, ForeignKeyViolationErr},
		{"mysql legacy fk", &mysql.MySQLError{Number: 1216}, true, ForeignKeyViolationErr},
		{"mysql check", &mysql.MySQLError{Number: 3819}, true, CheckConstraintViolationErr},
		{"mariadb check", &mysql.MySQLError{Number: 4025}, true, CheckConstraintViolationErr},
		{"mysql unknown column", &mysql.MySQLError{Number: 1054}, true, NoColumnErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.username"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: users.password"), true, NotNullViolationErr},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"sqlite no table", errors.New("no such table: users"), true, NoTableErr},
		{"plain", errors.New("boom"), false, UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, got := IsSqlError(tc.err)
			assert.Equal(t, tc.is, is)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(driver.ErrBadConn))
	assert.True(t, IsConnectionError(fmt.Errorf("exec: %w", sql.ErrConnDone)))
	assert.True(t, IsConnectionError(sql.ErrTxDone))
	assert.True(t, IsConnectionError(mysql.ErrInvalidConn))
	assert.True(t, IsConnectionError(context.DeadlineExceeded))
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConnectionError(errors.New("syntax error")))
}
