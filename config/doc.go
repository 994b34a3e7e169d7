// Package config loads and validates the process environment, optionally
// seeded from .env files, and turns it into database configuration.
package config
