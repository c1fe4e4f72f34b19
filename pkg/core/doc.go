// Package core defines the shared language of the vcol system.
//
// This package contains:
//   - The Value type produced and consumed by expressions
//   - The Store contract implemented by backing data stores
//   - The ordered Logic map that configures derived fields
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
