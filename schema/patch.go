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
	"sort"
)

// Patch is a sparse field map keyed by field name. Only the fields present
// in the map are applied to an entity.
type Patch map[string]any

// Columns returns the patch field names in sorted order.
func (p Patch) Columns() []string {
	cols := make([]string, 0, len(p))
	for c := range p {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Merge assigns every field present in patch onto entity and returns the
// assigned field names in sorted order. Nothing is assigned when any entry
// is unknown or has an incompatible type.
func (s *Schema[T]) Merge(entity *T, patch Patch) ([]string, error) {
	cols := patch.Columns()
	fields := make([]Field[T], len(cols))
	for i, col := range cols {
		f, ok := s.Field(col)
		if !ok {
			return nil, &FieldError{Table: s.table, Field: col, Reason: "unknown field"}
		}
		if _, ok := f.convert(patch[col]); !ok {
			return nil, &FieldError{Table: s.table, Field: col, Reason: typeReason(patch[col], f.typeName)}
		}
		fields[i] = f
	}
	for i, f := range fields {
		f.set(entity, patch[cols[i]])
	}
	return cols, nil
}

// Build instantiates a new entity from patch. Required fields and every key
// column that the store does not generate must be present and non-nil.
func (s *Schema[T]) Build(patch Patch) (*T, error) {
	for _, f := range s.fields {
		mandatory := f.required || (s.key.has(f.name) && !s.key.generated)
		if !mandatory {
			continue
		}
		if v, ok := patch[f.name]; !ok || v == nil {
			return nil, &FieldError{Table: s.table, Field: f.name, Reason: "required field missing"}
		}
	}
	entity := new(T)
	if _, err := s.Merge(entity, patch); err != nil {
		return nil, err
	}
	return entity, nil
}

func typeReason(v any, want string) string {
	return fmt.Sprintf("cannot assign %T to %s", v, want)
}
