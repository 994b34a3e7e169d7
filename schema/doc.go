// Package schema declares how entities are stored: ordered primary keys,
// scalar or composite key values, typed field accessors and sparse patches.
package schema
