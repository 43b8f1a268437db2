// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, deferred filtering, pagination, partial updates with
// schema-validated field names, and explicit session binding.
package repository
