// Package types holds the query filter, pagination and read option types
// shared by sessions, repositories and services.
package types
