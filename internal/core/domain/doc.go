// Package domain defines the core business entities for Taxonomist.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A corpus record with its derived summary and label
//   - Category: One entry of a taxonomy
//   - SnapshotLog: The append-only history of taxonomy revisions
//   - RunConfig: The configuration threaded through a pipeline run
//   - RunResult: The immutable outcome of a completed run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
