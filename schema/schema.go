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
	"fmt"
)

// Schema describes how an entity type T is stored: its table, its ordered
// primary key and the fields a patch may touch.
type Schema[T any] struct {
	table  string
	key    KeyShape
	fields []Field[T]
	index  map[string]int
}

// New validates and returns a schema descriptor for T.
func New[T any](table string, key KeyShape, fields ...Field[T]) (*Schema[T], error) {
	if table == "" {
		return nil, fmt.Errorf("schema: table name cannot be empty")
	}
	if key.Arity() == 0 {
		return nil, fmt.Errorf("schema: %s declares no primary key column", table)
	}
	if key.Generated() && key.Arity() > 1 {
		return nil, fmt.Errorf("schema: %s: composite keys cannot be auto-generated", table)
	}
	s := &Schema[T]{
		table:  table,
		key:    key,
		fields: make([]Field[T], 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.name == "" {
			return nil, fmt.Errorf("schema: %s: field name cannot be empty", table)
		}
		if _, dup := s.index[f.name]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate field %s", table, f.name)
		}
		s.index[f.name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	seen := map[string]struct{}{}
	for _, col := range key.columns {
		if _, ok := s.index[col]; !ok {
			return nil, fmt.Errorf("schema: %s: key column %s has no field", table, col)
		}
		if _, dup := seen[col]; dup {
			return nil, fmt.Errorf("schema: %s: key column %s declared twice", table, col)
		}
		seen[col] = struct{}{}
	}
	return s, nil
}

// MustNew is like New but panics on an invalid declaration. It is meant for
// package-level schema variables.
func MustNew[T any](table string, key KeyShape, fields ...Field[T]) *Schema[T] {
	s, err := New[T](table, key, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema[T]) Table() string { return s.table }

func (s *Schema[T]) Key() KeyShape { return s.key }

// Fields returns the declared field names in declaration order.
func (s *Schema[T]) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

func (s *Schema[T]) Field(name string) (Field[T], bool) {
	i, ok := s.index[name]
	if !ok {
		return Field[T]{}, false
	}
	return s.fields[i], true
}

// Conditions checks key against the declared key shape and returns one
// condition per key column, in declaration order. A Scalar key fits a
// single-column key only; a Tuple must carry exactly one component per key
// column. Components are converted to the key field types when lossless.
func (s *Schema[T]) Conditions(key Key) ([]Cond, error) {
	cols := s.key.columns
	switch {
	case key.IsZero():
		return nil, s.keyError(key, "empty key")
	case !key.composite && len(cols) != 1:
		return nil, s.keyError(key, fmt.Sprintf("scalar key given for %d key columns", len(cols)))
	case key.composite && key.Len() != len(cols):
		return nil, s.keyError(key, fmt.Sprintf("expected %d components, got %d", len(cols), key.Len()))
	}
	conds := make([]Cond, len(cols))
	for i, col := range cols {
		part := key.parts[i]
		if part == nil {
			return nil, s.keyError(key, fmt.Sprintf("component %d (%s) is nil", i, col))
		}
		f := s.fields[s.index[col]]
		v, ok := f.convert(part)
		if !ok {
			return nil, s.keyError(key, fmt.Sprintf("component %d (%s) is %T, want %s", i, col, part, f.typeName))
		}
		conds[i] = Cond{Column: col, Value: v}
	}
	return conds, nil
}

// KeyOf reads the primary key of entity.
func (s *Schema[T]) KeyOf(entity *T) Key {
	cols := s.key.columns
	if len(cols) == 1 {
		return Scalar(s.fields[s.index[cols[0]]].get(entity))
	}
	values := make([]any, len(cols))
	for i, col := range cols {
		values[i] = s.fields[s.index[col]].get(entity)
	}
	return Tuple(values...)
}

// KeyConditions returns the key restriction identifying entity as it is
// currently held in memory.
func (s *Schema[T]) KeyConditions(entity *T) []Cond {
	conds := make([]Cond, len(s.key.columns))
	for i, col := range s.key.columns {
		conds[i] = Cond{Column: col, Value: s.fields[s.index[col]].get(entity)}
	}
	return conds
}

// Values pairs each named column with its value in entity. Unknown names
// are skipped.
func (s *Schema[T]) Values(entity *T, columns []string) []Cond {
	values := make([]Cond, 0, len(columns))
	for _, col := range columns {
		if i, ok := s.index[col]; ok {
			values = append(values, Cond{Column: col, Value: s.fields[i].get(entity)})
		}
	}
	return values
}

func (s *Schema[T]) keyError(key Key, reason string) error {
	return &KeyError{Table: s.table, Expected: s.key.Columns(), Key: key, Reason: reason}
}
