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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID    int64
	Name  string
	Email *string
	Score float64
}

type grant struct {
	TenantID int32
	RoleID   int64
	Label    string
}

func accountSchema() *Schema[account] {
	return MustNew[account]("accounts",
		PrimaryKey("id").AutoGenerated(),
		Column("id", func(a *account) *int64 { return &a.ID }),
		Column("name", func(a *account) *string { return &a.Name }, Required),
		Column("email", func(a *account) **string { return &a.Email }),
		Column("score", func(a *account) *float64 { return &a.Score }),
	)
}

func grantSchema() *Schema[grant] {
	return MustNew[grant]("grants",
		PrimaryKey("tenant_id", "role_id"),
		Column("tenant_id", func(g *grant) *int32 { return &g.TenantID }),
		Column("role_id", func(g *grant) *int64 { return &g.RoleID }),
		Column("label", func(g *grant) *string { return &g.Label }),
	)
}

func TestNewRejectsInvalidDeclarations(t *testing.T) {
	name := Column("name", func(a *account) *string { return &a.Name })
	id := Column("id", func(a *account) *int64 { return &a.ID })

	_, err := New[account]("", PrimaryKey("id"), id)
	assert.Error(t, err)

	_, err = New[account]("accounts", PrimaryKey(), id)
	assert.Error(t, err)

	_, err = New[account]("accounts", PrimaryKey("missing"), id, name)
	assert.Error(t, err)

	_, err = New[account]("accounts", PrimaryKey("id"), id, id)
	assert.Error(t, err)

	_, err = New[account]("accounts", PrimaryKey("id", "name").AutoGenerated(), id, name)
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew[account]("", PrimaryKey("id"), id) })
}

func TestConditionsScalarKey(t *testing.T) {
	s := accountSchema()

	conds, err := s.Conditions(Scalar(7))
	require.NoError(t, err)
	require.Len(t, conds, 1)
	assert.Equal(t, "id", conds[0].Column)
	assert.Equal(t, int64(7), conds[0].Value)

	_, err = s.Conditions(Tuple(1, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Conditions(Scalar("seven"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Conditions(Scalar(nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Conditions(Key{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestConditionsCompositeKeyKeepsOrder(t *testing.T) {
	s := grantSchema()

	conds, err := s.Conditions(Tuple(3, 9))
	require.NoError(t, err)
	assert.Equal(t, []Cond{{Column: "tenant_id", Value: int32(3)}, {Column: "role_id", Value: int64(9)}}, conds)

	_, err = s.Conditions(Scalar(3))
	var keyErr *KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "grants", keyErr.Table)
	assert.Equal(t, []string{"tenant_id", "role_id"}, keyErr.Expected)

	_, err = s.Conditions(Tuple(1, 2, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Conditions(Tuple(int64(1)<<40, 1))
	assert.ErrorIs(t, err, ErrShapeMismatch, "tenant_id overflows int32")
}

type counter struct {
	ID     uint64
	Shard  uint32
	Small  int8
	Weight float32
}

func TestConditionsConvertUnsignedAndSmallKinds(t *testing.T) {
	s := MustNew[counter]("counters",
		PrimaryKey("id", "shard", "small"),
		Column("id", func(c *counter) *uint64 { return &c.ID }),
		Column("shard", func(c *counter) *uint32 { return &c.Shard }),
		Column("small", func(c *counter) *int8 { return &c.Small }),
		Column("weight", func(c *counter) *float32 { return &c.Weight }),
	)

	conds, err := s.Conditions(Tuple(5, int64(7), 3))
	require.NoError(t, err)
	assert.Equal(t, []Cond{
		{Column: "id", Value: uint64(5)},
		{Column: "shard", Value: uint32(7)},
		{Column: "small", Value: int8(3)},
	}, conds)

	_, err = s.Conditions(Tuple(-1, 1, 1))
	assert.ErrorIs(t, err, ErrShapeMismatch, "negative id")
	_, err = s.Conditions(Tuple(1, int64(1)<<33, 1))
	assert.ErrorIs(t, err, ErrShapeMismatch, "shard overflows uint32")
	_, err = s.Conditions(Tuple(1, 1, 200))
	assert.ErrorIs(t, err, ErrShapeMismatch, "small overflows int8")

	c := &counter{}
	_, err = s.Merge(c, Patch{"weight": 2.5, "id": uint64(1) << 63})
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), c.Weight)
	assert.Equal(t, uint64(1)<<63, c.ID)

	_, err = s.Merge(c, Patch{"weight": 0.1})
	assert.ErrorIs(t, err, ErrShapeMismatch, "0.1 is not exact in float32")
}

func TestValuesPairsColumnsWithEntity(t *testing.T) {
	s := grantSchema()
	g := &grant{TenantID: 2, RoleID: 4, Label: "ops"}
	assert.Equal(t, []Cond{
		{Column: "role_id", Value: int64(4)},
		{Column: "label", Value: "ops"},
	}, s.Values(g, []string{"role_id", "label", "missing"}))
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, Scalar(int64(5)), accountSchema().KeyOf(&account{ID: 5}))
	k := grantSchema().KeyOf(&grant{TenantID: 1, RoleID: 2})
	assert.True(t, k.IsComposite())
	assert.Equal(t, []any{int32(1), int64(2)}, k.Values())
	assert.Equal(t, "(1, 2)", k.String())
}

func TestMergeAppliesOnlyPresentFields(t *testing.T) {
	s := accountSchema()
	email := "a@example.com"
	a := &account{ID: 1, Name: "A", Email: &email, Score: 1.5}

	cols, err := s.Merge(a, Patch{"name": "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, cols)
	assert.Equal(t, "B", a.Name)
	assert.Equal(t, &email, a.Email)
	assert.Equal(t, 1.5, a.Score)

	cols, err = s.Merge(a, Patch{"email": nil, "score": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "score"}, cols)
	assert.Nil(t, a.Email)
	assert.Equal(t, 3.0, a.Score)
}

func TestMergeIsAllOrNothing(t *testing.T) {
	s := accountSchema()
	a := &account{Name: "A"}

	_, err := s.Merge(a, Patch{"name": "B", "unknown": 1})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "unknown", fieldErr.Field)
	assert.Equal(t, "A", a.Name)

	_, err = s.Merge(a, Patch{"name": 12})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, "A", a.Name)
}

func TestBuild(t *testing.T) {
	s := accountSchema()

	a, err := s.Build(Patch{"name": "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", a.Name)
	assert.Zero(t, a.ID)

	_, err = s.Build(Patch{"score": 2.0})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = grantSchema().Build(Patch{"tenant_id": 1, "label": "x"})
	assert.ErrorIs(t, err, ErrShapeMismatch, "non-generated key columns are required")

	g, err := grantSchema().Build(Patch{"tenant_id": 1, "role_id": 2})
	require.NoError(t, err)
	assert.Equal(t, int32(1), g.TenantID)
	assert.Equal(t, int64(2), g.RoleID)
}
