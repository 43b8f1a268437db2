// Package database provides connection management for the repository layer:
// per-dialect engine construction, pool tuning, health checks, query logging
// hooks, SQL error classification, and YAML configuration loading, built on
// top of Bun.
package database
