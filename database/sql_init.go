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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/uptrace/bun"
)

const defaultSQLRoot = "configs/sql"

var sqlFileOrder = regexp.MustCompile(`^(\d+)_`)

// SQLInitManager seeds data from SQL files. Files are read from
// <root>/common and then <root>/<environment>, each directory ordered by the
// numeric prefix of the file name (001_users.sql, 002_roles.sql).
type SQLInitManager struct {
	db          bun.IDB
	environment string
	sqlRootPath string
	logger      Logger
}

// SQLFileInfo describes a SQL file to execute.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// NewSQLInitManager returns a seeder for environment, "prod" when empty.
// When db is a *bun.DB every file runs in one transaction; any other
// bun.IDB, such as a bun.Tx, is used as is.
func NewSQLInitManager(db bun.IDB, environment string) *SQLInitManager {
	if environment == "" {
		environment = "prod"
	}
	return &SQLInitManager{
		db:          db,
		environment: environment,
		sqlRootPath: defaultSQLRoot,
		logger:      GetLogger(),
	}
}

func (s *SQLInitManager) SetSQLRootPath(path string) {
	s.sqlRootPath = path
}

func (s *SQLInitManager) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Execute runs every discovered file. Either all statements of all files
// are applied or none are.
func (s *SQLInitManager) Execute(ctx context.Context) error {
	files, err := s.SQLFiles()
	if err != nil {
		return fmt.Errorf("failed to list SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL files found to execute", "environment", s.environment, "sql_path", s.sqlRootPath)
		return nil
	}
	s.logger.Info("Starting SQL initialization", "environment", s.environment, "files", len(files))

	run := func(ctx context.Context, db bun.IDB) error {
		for _, file := range files {
			if err := s.executeFile(ctx, db, file); err != nil {
				return fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
			}
		}
		return nil
	}
	if db, ok := s.db.(*bun.DB); ok {
		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return run(ctx, tx)
		})
	} else {
		err = run(ctx, s.db)
	}
	if err != nil {
		s.logger.Error("SQL initialization failed", "error", err)
		return err
	}
	s.logger.Info("SQL initialization completed", "environment", s.environment, "files", len(files))
	return nil
}

// SQLFiles lists the files Execute runs, in execution order.
func (s *SQLInitManager) SQLFiles() ([]SQLFileInfo, error) {
	common, err := s.filesIn(filepath.Join(s.sqlRootPath, "common"), "common")
	if err != nil {
		return nil, err
	}
	env, err := s.filesIn(filepath.Join(s.sqlRootPath, s.environment), s.environment)
	if err != nil {
		return nil, err
	}
	return append(common, env...), nil
}

func (s *SQLInitManager) filesIn(dir, environment string) ([]SQLFileInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []SQLFileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		files = append(files, SQLFileInfo{
			Path:        filepath.Join(dir, e.Name()),
			Name:        e.Name(),
			Order:       parseFileOrder(e.Name()),
			Environment: environment,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// parseFileOrder returns the numeric prefix of name; unnumbered files sort last.
func parseFileOrder(name string) int {
	m := sqlFileOrder.FindStringSubmatch(name)
	if m == nil {
		return 999
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 999
	}
	return n
}

func (s *SQLInitManager) executeFile(ctx context.Context, db bun.IDB, file SQLFileInfo) error {
	start := time.Now()
	raw, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	content, err := s.render(string(raw))
	if err != nil {
		return err
	}
	var rows int64
	for _, stmt := range splitSQLStatements(content) {
		res, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, err)
		}
		n, _ := res.RowsAffected()
		rows += n
	}
	s.logger.Debug("SQL file executed", "file", file.Name, "duration", time.Since(start), "rows_affected", rows)
	return nil
}

// render expands {{.NAME}} references to environment variables plus
// ENVIRONMENT and TIMESTAMP. Files without template actions are unchanged.
func (s *SQLInitManager) render(content string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}
	tmpl, err := template.New("sql").Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	vars["ENVIRONMENT"] = s.environment
	vars["TIMESTAMP"] = time.Now().Format("2006-01-02 15:04:05")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// splitSQLStatements splits content on statement-terminating semicolons at
// the end of a line. Blank lines and "--" comment lines are dropped.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString(" ")
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
