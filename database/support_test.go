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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/bunrepo/utils"
)

const foreignKeyYAML = `
foreign_keys:
  - table: books
    column: author_id
    reference_table: authors
    reference_column: id
    on_delete: cascade
  - table: books
    column: editor_id
    reference_table: ""
    reference_column: id
    on_update: EXPLODE
`

func TestLoadForeignKeyManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(foreignKeyYAML), 0o644))

	fkm, err := LoadForeignKeyManager(nil, path)
	require.NoError(t, err)
	require.Len(t, fkm.Constraints(), 2)
	assert.Len(t, fkm.ConstraintsByTable("BOOKS"), 2)
	assert.Empty(t, fkm.ConstraintsByTable("authors"))

	errs := fkm.ValidateConstraints()
	assert.Len(t, errs, 2)

	first := fkm.Constraints()[0]
	assert.Equal(t, "fk_books_author_id", first.Name())
	query, args := first.Query()
	assert.Equal(t, "ALTER TABLE ? ADD CONSTRAINT ? FOREIGN KEY (?) REFERENCES ? (?) ON DELETE CASCADE", query)
	assert.Len(t, args, 5)

	_, err = LoadForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestForeignKeyExport(t *testing.T) {
	fkm := NewForeignKeyManager(nil, ForeignKeyConstraint{
		Table: "books", Column: "author_id", ReferenceTable: "authors", ReferenceColumn: "id",
	})
	path := filepath.Join(t.TempDir(), "out", "fk.yaml")
	require.NoError(t, fkm.Export(path))

	loaded, err := LoadForeignKeyManager(nil, path)
	require.NoError(t, err)
	require.Len(t, loaded.Constraints(), 1)
	assert.Equal(t, "books.author_id -> authors.id", loaded.Constraints()[0].Description)
	assert.Empty(t, loaded.ValidateConstraints())
}

func TestMigrationRejectsInvalidForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(foreignKeyYAML), 0o644))

	db := newSQLiteDB(t)
	cfg := &Config{DataMigrateConfig: DataMigrateConfig{EnableForeignKey: true, ForeignKeyFile: path}}
	mm := NewMigrationManager(db, nil, cfg)

	err := mm.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002")
	assert.Equal(t, []string{"001"}, appliedVersions(t, mm))
}

func TestSplitSQLStatements(t *testing.T) {
	content := `
-- comment
INSERT INTO a VALUES (1);

INSERT INTO a
VALUES (2);
UPDATE a SET x = 1`
	assert.Equal(t, []string{
		"INSERT INTO a VALUES (1);",
		"INSERT INTO a VALUES (2);",
		"UPDATE a SET x = 1",
	}, splitSQLStatements(content))
}

func TestSQLFilesOrder(t *testing.T) {
	root := t.TempDir()
	writeSQL(t, filepath.Join(root, "common"), "002_b.sql", "")
	writeSQL(t, filepath.Join(root, "common"), "001_a.sql", "")
	writeSQL(t, filepath.Join(root, "prod"), "notes.sql", "")
	writeSQL(t, filepath.Join(root, "prod"), "010_z.sql", "")
	writeSQL(t, filepath.Join(root, "prod"), "readme.txt", "")

	s := NewSQLInitManager(nil, "")
	s.SetSQLRootPath(root)
	files, err := s.SQLFiles()
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Environment + "/" + f.Name
	}
	assert.Equal(t, []string{"common/001_a.sql", "common/002_b.sql", "prod/010_z.sql", "prod/notes.sql"}, names)
	assert.Equal(t, 999, parseFileOrder("notes.sql"))
}

func TestDefaultLoggerFields(t *testing.T) {
	buf := &bytes.Buffer{}
	utils.ConfigureConsole(buf, "json")
	t.Cleanup(func() { utils.ConfigureConsole(os.Stdout, "text") })

	log := NewDefaultLogger("DBTEST")
	log.Info("connected", "type", "sqlite", "dangling")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "connected", rec["message"])
	assert.Equal(t, map[string]interface{}{"type": "sqlite", "!BADKEY": "dangling"}, rec["fields"])

	buf.Reset()
	log.SetLevel(LogLevelError)
	log.Warn("hidden")
	assert.Zero(t, buf.Len())
}
