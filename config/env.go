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
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"

	"github.com/tomoncle/bunrepo/database"
)

type NodeEnvironment string

const (
	Development NodeEnvironment = "dev"
	Testing     NodeEnvironment = "test"
	Production  NodeEnvironment = "prod"
)

// Env is the validated process environment. Pointer fields distinguish an
// unset variable from an empty one.
type Env struct {
	NodeEnv    *string `koanf:"NODE_ENV" validate:"required,oneof=dev test prod"`
	Port       *int    `koanf:"PORT" validate:"required,min=0"`
	DBType     *string `koanf:"DB_TYPE" validate:"omitempty,oneof=postgres mysql sqlite"`
	DBDriver   *string `koanf:"DB_DRIVER" validate:"omitempty,oneof=pq pgx"`
	DBHost     *string `koanf:"DB_HOST" validate:"required"`
	DBPort     *int    `koanf:"DB_PORT" validate:"required,min=0"`
	DBUsername *string `koanf:"DB_USERNAME" validate:"required"`
	DBPassword *string `koanf:"DB_PASSWORD" validate:"required"`
	DBName     *string `koanf:"DB_NAME" validate:"required"`
	DBSSLMode  *string `koanf:"DB_SSLMODE"`

	DBAutoMigrate  *bool   `koanf:"DB_AUTO_MIGRATE"`
	DBForeignKeys  *string `koanf:"DB_FOREIGN_KEY_FILE"`
	DBSeedPath     *string `koanf:"DB_SEED_PATH"`
	DBSeedOnBoot   *bool   `koanf:"DB_SEED_ON_STARTUP"`
	DBEnableMetric *bool   `koanf:"DB_ENABLE_METRICS"`
}

var _ database.ConfigProvider = (*Env)(nil)

// Violation lists the rules one variable breaks.
type Violation struct {
	Field    string
	Messages []string
}

// ValidationError reports every invalid variable at once.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := []string{"Environment file validation has failed"}
	for _, v := range e.Violations {
		lines = append(lines, "\t"+v.Field+":")
		for _, m := range v.Messages {
			lines = append(lines, "\t- "+m)
		}
	}
	return strings.Join(lines, "\n")
}

// Load reads the given .env files (".env" when none is given) without
// overriding variables already set, then parses and validates the
// environment. A missing .env file is not an error.
func Load(files ...string) (*Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnviron(os.Environ())
}

// envKeys lists the koanf tags of Env in declaration order.
var envKeys = func() []string {
	rt := reflect.TypeOf(Env{})
	keys := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		keys = append(keys, rt.Field(i).Tag.Get("koanf"))
	}
	return keys
}()

// FromEnviron parses and validates variables given as KEY=value pairs.
// Variables Env does not declare are ignored.
func FromEnviron(environ []string) (*Env, error) {
	known := make(map[string]bool, len(envKeys))
	for _, key := range envKeys {
		known[key] = true
	}
	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: func() []string { return environ },
		TransformFunc: func(key, value string) (string, any) {
			if !known[key] {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	e := &Env{}
	collected := newCollector()
	rv := reflect.ValueOf(e).Elem()
	for i, key := range envKeys {
		if !k.Exists(key) {
			continue
		}
		field := rv.Field(i)
		if err := k.Unmarshal(key, field.Addr().Interface()); err != nil {
			field.Set(reflect.Zero(field.Type()))
			collected.add(key, parseMessage(field.Type().Elem().Kind()))
		}
	}

	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			if fe.Tag() == "required" && collected.has(fe.Field()) {
				continue
			}
			collected.add(fe.Field(), describe(fe))
		}
	}
	if len(collected.order) > 0 {
		return nil, collected.err()
	}
	return e, nil
}

func parseMessage(kind reflect.Kind) string {
	switch kind {
	case reflect.Int:
		return "must be an integer number"
	case reflect.Bool:
		return "must be a boolean value"
	default:
		return "has an invalid value"
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	return v
}()

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be set"
	case "oneof":
		return "must be one of the following values: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must not be less than " + fe.Param()
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

type collector struct {
	order    []string
	messages map[string][]string
}

func newCollector() *collector {
	return &collector{messages: map[string][]string{}}
}

func (c *collector) add(field, msg string) {
	if _, seen := c.messages[field]; !seen {
		c.order = append(c.order, field)
	}
	c.messages[field] = append(c.messages[field], msg)
}

func (c *collector) has(field string) bool {
	_, ok := c.messages[field]
	return ok
}

// err orders violations by declaration order of the Env fields.
func (c *collector) err() error {
	verr := &ValidationError{}
	for _, name := range envKeys {
		if msgs, ok := c.messages[name]; ok {
			verr.Violations = append(verr.Violations, Violation{Field: name, Messages: msgs})
		}
	}
	return verr
}

func str(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Environment returns NODE_ENV.
func (e *Env) Environment() NodeEnvironment {
	return NodeEnvironment(str(e.NodeEnv, string(Production)))
}

// ConfigLoader builds the database configuration. Query logging is on
// outside production, and seeding reads the directory named after NODE_ENV.
func (e *Env) ConfigLoader() *database.Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = str(e.DBType, database.TypePostgres)
	conn.Driver = str(e.DBDriver, database.DriverPQ)
	conn.Host = str(e.DBHost, "")
	if e.DBPort != nil {
		conn.Port = *e.DBPort
	}
	conn.Username = str(e.DBUsername, "")
	conn.Password = str(e.DBPassword, "")
	conn.DBName = str(e.DBName, "")
	conn.SSLMode = str(e.DBSSLMode, "")
	conn.EnableQueryLog = e.Environment() != Production
	conn.EnableMetrics = flag(e.DBEnableMetric, false)

	return &database.Config{
		ConnectionConfig: *conn,
		DataMigrateConfig: database.DataMigrateConfig{
			EnableMigrateOnStartup: flag(e.DBAutoMigrate, false),
			EnableForeignKey:       e.DBForeignKeys != nil && *e.DBForeignKeys != "",
			ForeignKeyFile:         str(e.DBForeignKeys, ""),
		},
		DataInitConfig: database.DataInitConfig{
			AutoInitOnStartup: flag(e.DBSeedOnBoot, false),
			Filepath:          str(e.DBSeedPath, ""),
			Environment:       string(e.Environment()),
		},
	}
}
