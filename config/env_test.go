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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/bunrepo/database"
)

func environ(vars map[string]string) []string {
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	return out
}

func validVars() map[string]string {
	return map[string]string{
		"NODE_ENV":    "dev",
		"PORT":        "3000",
		"DB_HOST":     "localhost",
		"DB_PORT":     "5432",
		"DB_USERNAME": "app",
		"DB_PASSWORD": "",
		"DB_NAME":     "app",
	}
}

func TestFromEnvironValid(t *testing.T) {
	env, err := FromEnviron(environ(validVars()))
	require.NoError(t, err)
	assert.Equal(t, Development, env.Environment())
	assert.Equal(t, 3000, *env.Port)

	cfg := env.ConfigLoader()
	assert.Equal(t, database.TypePostgres, cfg.ConnectionConfig.Type)
	assert.Equal(t, database.DriverPQ, cfg.ConnectionConfig.Driver)
	assert.Equal(t, "localhost", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, "", cfg.ConnectionConfig.Password)
	assert.True(t, cfg.ConnectionConfig.EnableQueryLog)
	assert.False(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
	assert.False(t, cfg.DataMigrateConfig.EnableForeignKey)
	assert.Equal(t, "dev", cfg.DataInitConfig.Environment)
}

func TestFromEnvironOptionalSettings(t *testing.T) {
	vars := validVars()
	vars["NODE_ENV"] = "prod"
	vars["DB_TYPE"] = "sqlite"
	vars["DB_DRIVER"] = "pgx"
	vars["DB_AUTO_MIGRATE"] = "true"
	vars["DB_FOREIGN_KEY_FILE"] = "configs/fk.yaml"
	vars["DB_SEED_PATH"] = "configs/sql"
	vars["DB_SEED_ON_STARTUP"] = "1"
	vars["DB_ENABLE_METRICS"] = "true"

	env, err := FromEnviron(environ(vars))
	require.NoError(t, err)
	cfg := env.ConfigLoader()
	assert.Equal(t, database.TypeSQLite, cfg.ConnectionConfig.Type)
	assert.Equal(t, database.DriverPGX, cfg.ConnectionConfig.Driver)
	assert.False(t, cfg.ConnectionConfig.EnableQueryLog)
	assert.True(t, cfg.ConnectionConfig.EnableMetrics)
	assert.True(t, cfg.DataMigrateConfig.EnableMigrateOnStartup)
	assert.True(t, cfg.DataMigrateConfig.EnableForeignKey)
	assert.Equal(t, "configs/fk.yaml", cfg.DataMigrateConfig.ForeignKeyFile)
	assert.True(t, cfg.DataInitConfig.AutoInitOnStartup)
	assert.Equal(t, "configs/sql", cfg.DataInitConfig.Filepath)
	assert.Equal(t, "prod", cfg.DataInitConfig.Environment)
}

func TestFromEnvironAggregatesViolations(t *testing.T) {
	vars := validVars()
	vars["NODE_ENV"] = "staging"
	vars["PORT"] = "-1"
	vars["DB_PORT"] = "abc"
	vars["DB_TYPE"] = "oracle"
	delete(vars, "DB_HOST")

	_, err := FromEnviron(environ(vars))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"NODE_ENV", "PORT", "DB_TYPE", "DB_HOST", "DB_PORT"}, fields)

	assert.Equal(t, "Environment file validation has failed\n"+
		"\tNODE_ENV:\n\t- must be one of the following values: dev, test, prod\n"+
		"\tPORT:\n\t- must not be less than 0\n"+
		"\tDB_TYPE:\n\t- must be one of the following values: postgres, mysql, sqlite\n"+
		"\tDB_HOST:\n\t- must be set\n"+
		"\tDB_PORT:\n\t- must be an integer number",
		err.Error())
}

func TestFromEnvironParsesTypedValues(t *testing.T) {
	vars := validVars()
	vars["PORT"] = " 8080"
	vars["DB_SEED_ON_STARTUP"] = "maybe"
	vars["UNRELATED.KEY"] = "ignored"

	_, err := FromEnviron(environ(vars))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, Violation{Field: "PORT", Messages: []string{"must be an integer number"}}, verr.Violations[0])
	assert.Equal(t, Violation{Field: "DB_SEED_ON_STARTUP", Messages: []string{"must be a boolean value"}}, verr.Violations[1])

	vars["PORT"] = "8080"
	vars["DB_SEED_ON_STARTUP"] = "false"
	env, err := FromEnviron(environ(vars))
	require.NoError(t, err)
	assert.Equal(t, 8080, *env.Port)
	require.NotNil(t, env.DBSeedOnBoot)
	assert.False(t, *env.DBSeedOnBoot)
}

func TestLoadReadsEnvFile(t *testing.T) {
	for k := range validVars() {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("DB_NAME", "from-process")

	path := filepath.Join(t.TempDir(), ".env")
	content := "NODE_ENV=test\nPORT=8080\nDB_HOST=db\nDB_PORT=5432\nDB_USERNAME=app\nDB_PASSWORD=secret\nDB_NAME=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Cleanup(func() {
		for k := range validVars() {
			_ = os.Unsetenv(k)
		}
	})

	env, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Testing, env.Environment())
	assert.Equal(t, "from-process", *env.DBName)
	assert.Equal(t, "secret", *env.DBPassword)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
