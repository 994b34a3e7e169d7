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

package session

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tomoncle/bunrepo/schema"
)

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	case opDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

type op struct {
	kind  opKind
	model any
	set   []schema.Cond
	where []schema.Cond
}

func (o op) exec(ctx context.Context, db bun.IDB) error {
	var err error
	switch o.kind {
	case opInsert:
		_, err = db.NewInsert().Model(o.model).Exec(ctx)
	case opUpdate:
		q := db.NewUpdate().Model(o.model)
		for _, c := range o.set {
			q = q.Set("? = ?", bun.Ident(c.Column), c.Value)
		}
		for _, c := range o.where {
			q = q.Where("? = ?", bun.Ident(c.Column), c.Value)
		}
		_, err = q.Exec(ctx)
	case opDelete:
		q := db.NewDelete().Model(o.model)
		for _, c := range o.where {
			q = q.Where("? = ?", bun.Ident(c.Column), c.Value)
		}
		_, err = q.Exec(ctx)
	default:
		err = fmt.Errorf("session: unknown operation %s", o.kind)
	}
	return err
}

// Persist stages an insert of model.
func (s *Session) Persist(model any) {
	s.stage(op{kind: opInsert, model: model})
}

// Modify stages an update assigning set to the row of model's table
// identified by where. Key columns may appear in set. Nothing is staged
// when set is empty.
func (s *Session) Modify(model any, set []schema.Cond, where []schema.Cond) {
	if len(set) == 0 {
		return
	}
	s.stage(op{kind: opUpdate, model: model, set: set, where: where})
}

// Remove stages a delete of the row identified by where.
func (s *Session) Remove(model any, where []schema.Cond) {
	s.stage(op{kind: opDelete, model: model, where: where})
}

// Pending returns the number of staged writes.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Session) stage(o op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, o)
}

// Flush executes staged writes in order. Inside a transaction they run on
// it; otherwise they run in a transaction of their own so that either all
// of them apply or none does. Staged writes are dropped whatever the outcome
// and errors from the store are returned as is.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	ops := s.pending
	s.pending = nil
	if len(ops) == 0 {
		return nil
	}
	run := func(ctx context.Context, db bun.IDB) error {
		for _, o := range ops {
			if err := o.exec(ctx, db); err != nil {
				s.logger.Debug("Session flush failed", "session", s.id, "op", o.kind, "error", err)
				return err
			}
		}
		return nil
	}
	var err error
	if s.active {
		err = run(ctx, s.tx)
	} else {
		err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return run(ctx, tx)
		})
	}
	if err == nil {
		s.logger.Debug("Session flushed", "session", s.id, "ops", len(ops), "transaction", s.active)
	}
	return err
}
