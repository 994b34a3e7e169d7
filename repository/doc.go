// Package repository provides a generic repository built on Bun sessions:
// key lookups over scalar or composite keys, collection queries, pagination,
// create/update/delete with immediate flush, and transaction-bound copies
// obtained with WithTransaction.
package repository
