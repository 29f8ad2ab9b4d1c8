// Package adapter defines the host-specific capability set the migration core depends on.
//
// The core treats Repository values as opaque identities and never compares them
// with ==; equality, parsing, working-copy primitives and pull request operations are
// all delegated to an Adapter implementation such as adapter/github.
package adapter
