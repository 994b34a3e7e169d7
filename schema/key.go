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

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShapeMismatch is returned when a key or patch does not match the shape
// declared by a schema descriptor. It signals a caller error and must not be
// retried.
var ErrShapeMismatch = errors.New("schema: shape mismatch")

// Key is a primary key value: either a single scalar or an ordered tuple of
// scalars for composite keys. Components are forwarded to the store in the
// order they were given.
type Key struct {
	parts     []any
	composite bool
}

// Scalar returns a single-component key.
func Scalar(value any) Key {
	return Key{parts: []any{value}}
}

// Tuple returns a composite key whose components follow the column order of
// the schema's primary key.
func Tuple(values ...any) Key {
	parts := make([]any, len(values))
	copy(parts, values)
	return Key{parts: parts, composite: true}
}

func (k Key) IsZero() bool { return k.parts == nil }

func (k Key) IsComposite() bool { return k.composite }

// Len returns the number of key components.
func (k Key) Len() int { return len(k.parts) }

// Values returns a copy of the key components.
func (k Key) Values() []any {
	values := make([]any, len(k.parts))
	copy(values, k.parts)
	return values
}

func (k Key) String() string {
	if !k.composite && len(k.parts) == 1 {
		return fmt.Sprintf("%v", k.parts[0])
	}
	items := make([]string, len(k.parts))
	for i, p := range k.parts {
		items[i] = fmt.Sprintf("%v", p)
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// KeyShape declares the ordered primary key columns of an entity.
type KeyShape struct {
	columns   []string
	generated bool
}

// PrimaryKey declares the primary key columns in order.
func PrimaryKey(columns ...string) KeyShape {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return KeyShape{columns: cols}
}

// AutoGenerated marks the key as assigned by the store on insert.
func (s KeyShape) AutoGenerated() KeyShape {
	s.generated = true
	return s
}

func (s KeyShape) Columns() []string {
	cols := make([]string, len(s.columns))
	copy(cols, s.columns)
	return cols
}

func (s KeyShape) Arity() int { return len(s.columns) }

func (s KeyShape) Generated() bool { return s.generated }

func (s KeyShape) has(column string) bool {
	for _, c := range s.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Cond is a single "column = value" restriction handed to the session.
type Cond struct {
	Column string
	Value  any
}

// KeyError describes a key that does not fit the declared key shape.
type KeyError struct {
	Table    string
	Expected []string
	Key      Key
	Reason   string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("schema: key %s does not match %s(%s): %s",
		e.Key, e.Table, strings.Join(e.Expected, ", "), e.Reason)
}

func (e *KeyError) Unwrap() error { return ErrShapeMismatch }

// FieldError describes a patch entry that cannot be applied to an entity.
type FieldError struct {
	Table  string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("schema: field %s.%s: %s", e.Table, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrShapeMismatch }
