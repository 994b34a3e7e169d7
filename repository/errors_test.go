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
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/session"
)

func TestKindOf(t *testing.T) {
	keyErr := &schema.KeyError{Table: "widgets", Expected: []string{"id"}, Reason: "empty key"}
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"not found", &NotFoundError{Table: "widgets", Key: schema.Scalar(1)}, KindNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", ErrNotFound), KindNotFound},
		{"key shape", keyErr, KindShapeMismatch},
		{"field shape", &schema.FieldError{Table: "widgets", Field: "size"}, KindShapeMismatch},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, KindConstraintViolation},
		{"pq not null", &pq.Error{Code: "23502"}, KindConstraintViolation},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, KindConstraintViolation},
		{"mysql fk child row", fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1452}), KindConstraintViolation},
		{"mysql fk parent row", &mysql.MySQLError{Number: 1451}, KindConstraintViolation},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: widgets.name (2067)"), KindConstraintViolation},
		{"pgx undefined table", &pgconn.PgError{Code: "42P01"}, KindUnknown},
		{"bad conn", driver.ErrBadConn, KindSessionFailure},
		{"conn done", fmt.Errorf("query: %w", sql.ErrConnDone), KindSessionFailure},
		{"no transaction", session.ErrNoTransaction, KindSessionFailure},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
	assert.Equal(t, "constraint_violation", KindConstraintViolation.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestCreateFlushFailureRollsBack(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "memberships"`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	repo := NewRepository(session.NewFactory(db), membershipSchema)
	created, err := repo.Create(context.Background(), schema.Patch{"team_id": 1, "user_id": 2, "role": "owner"})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, KindSessionFailure, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreErrorsAreReturnedUnmodified(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	storeErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "memberships"`).WillReturnError(storeErr)
	mock.ExpectRollback()

	repo := NewRepository(session.NewFactory(db), membershipSchema)
	_, err = repo.Create(context.Background(), schema.Patch{"team_id": 1, "user_id": 2, "role": "owner"})

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Same(t, storeErr, pgErr)
	assert.True(t, IsConstraintViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
