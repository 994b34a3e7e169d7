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
	"math"
)

// FieldOption tunes a field declaration.
type FieldOption int

const (
	// Required fields must be supplied when an entity is built from a patch.
	Required FieldOption = iota + 1
)

// Field is a typed accessor for one stored column of T. It is built with
// Column and never inspects T at runtime.
type Field[T any] struct {
	name     string
	required bool
	get      func(*T) any
	set      func(*T, any) bool
	convert  func(any) (any, bool)
	typeName string
}

// Column declares a stored field. ref must return a pointer to the field
// inside the given entity.
func Column[T, V any](name string, ref func(*T) *V, opts ...FieldOption) Field[T] {
	f := Field[T]{
		name: name,
		get:  func(e *T) any { return *ref(e) },
		set:  func(e *T, v any) bool { return assign(ref(e), v) },
		convert: func(v any) (any, bool) {
			var out V
			if !assign(&out, v) {
				return nil, false
			}
			return out, true
		},
		typeName: fmt.Sprintf("%T", *new(V)),
	}
	for _, opt := range opts {
		if opt == Required {
			f.required = true
		}
	}
	return f
}

func (f Field[T]) Name() string { return f.name }

func (f Field[T]) IsRequired() bool { return f.required }

// TypeName returns the Go type of the field, for error messages.
func (f Field[T]) TypeName() string { return f.typeName }

// assign stores v into dst. nil resets dst to its zero value. Integer and
// float kinds are converted when the conversion is lossless.
func assign[V any](dst *V, v any) bool {
	if v == nil {
		var zero V
		*dst = zero
		return true
	}
	if t, ok := v.(V); ok {
		*dst = t
		return true
	}
	switch d := any(dst).(type) {
	case *int64:
		n, ok := asInt64(v)
		if ok {
			*d = n
		}
		return ok
	case *int:
		n, ok := asInt64(v)
		if ok && n >= math.MinInt && n <= math.MaxInt {
			*d = int(n)
			return true
		}
	case *int32:
		n, ok := asInt64(v)
		if ok && n >= math.MinInt32 && n <= math.MaxInt32 {
			*d = int32(n)
			return true
		}
	case *int16:
		n, ok := asInt64(v)
		if ok && n >= math.MinInt16 && n <= math.MaxInt16 {
			*d = int16(n)
			return true
		}
	case *int8:
		n, ok := asInt64(v)
		if ok && n >= math.MinInt8 && n <= math.MaxInt8 {
			*d = int8(n)
			return true
		}
	case *uint64:
		n, ok := asUint64(v)
		if ok {
			*d = n
		}
		return ok
	case *uint:
		n, ok := asUint64(v)
		if ok && n <= math.MaxUint {
			*d = uint(n)
			return true
		}
	case *uint32:
		n, ok := asUint64(v)
		if ok && n <= math.MaxUint32 {
			*d = uint32(n)
			return true
		}
	case *uint16:
		n, ok := asUint64(v)
		if ok && n <= math.MaxUint16 {
			*d = uint16(n)
			return true
		}
	case *uint8:
		n, ok := asUint64(v)
		if ok && n <= math.MaxUint8 {
			*d = uint8(n)
			return true
		}
	case *float32:
		switch x := v.(type) {
		case float64:
			if f := float32(x); float64(f) == x {
				*d = f
				return true
			}
		default:
			n, ok := asInt64(v)
			if ok && n >= -(1<<24) && n <= 1<<24 {
				*d = float32(n)
				return true
			}
		}
	case *float64:
		switch x := v.(type) {
		case float32:
			*d = float64(x)
			return true
		default:
			n, ok := asInt64(v)
			if ok && n >= -(1<<53) && n <= 1<<53 {
				*d = float64(n)
				return true
			}
		}
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint64:
		return x, true
	}
	n, ok := asInt64(v)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}
