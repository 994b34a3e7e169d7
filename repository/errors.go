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
	"errors"
	"fmt"

	"github.com/tomoncle/bunrepo/database"
	"github.com/tomoncle/bunrepo/schema"
	"github.com/tomoncle/bunrepo/session"
)

// ErrNotFound is matched by every error reporting a missing entity.
var ErrNotFound = errors.New("repository: entity not found")

// NotFoundError reports that no row exists for a key.
type NotFoundError struct {
	Table string
	Key   schema.Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("repository: %s with key %s not found", e.Table, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Kind classifies errors returned by repository operations.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConstraintViolation
	KindShapeMismatch
	KindSessionFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindSessionFailure:
		return "session_failure"
	default:
		return "unknown"
	}
}

// KindOf classifies err without altering it. Repository operations return
// store errors as they are, so callers use KindOf to decide what to do.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, schema.ErrShapeMismatch):
		return KindShapeMismatch
	case errors.Is(err, session.ErrNoTransaction), errors.Is(err, session.ErrAlreadyBegun):
		return KindSessionFailure
	}
	if is, sqlErr := database.IsSqlError(err); is {
		switch sqlErr {
		case database.DuplicateKeyErr,
			database.NotNullViolationErr,
			database.ForeignKeyViolationErr,
			database.CheckConstraintViolationErr:
			return KindConstraintViolation
		}
	}
	if database.IsConnectionError(err) {
		return KindSessionFailure
	}
	return KindUnknown
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsConstraintViolation(err error) bool { return KindOf(err) == KindConstraintViolation }
