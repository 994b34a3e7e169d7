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

package types

// FindOptions carries read options from callers to the session untouched.
// The repository never interprets them.
type FindOptions struct {
	// Filter restricts the rows, nil selects all rows.
	Filter *QueryFilter
	// Relations names Bun relations to load with each row.
	Relations []string
	// Orders are ORDER BY expressions such as "id ASC".
	Orders []string
	Limit  int
	Offset int
}

// NewFindOptions returns options that only filter.
func NewFindOptions(filter *QueryFilter) *FindOptions {
	return &FindOptions{Filter: filter}
}

// WithRelations returns find options that load the named relations.
func WithRelations(relations ...string) *FindOptions {
	return &FindOptions{Relations: relations}
}
