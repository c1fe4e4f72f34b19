// Package store provides the concrete backing stores that expressions are
// evaluated against:
//
//   - Record: a single record of scalar values.
//   - Table: equal-length float64 columns.
//   - ArrowTable: columns backed by an Apache Arrow record batch.
//
// All stores implement core.Store. None of them are safe for concurrent
// writes.
package store
