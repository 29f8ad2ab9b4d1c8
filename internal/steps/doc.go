// Package steps runs the user-supplied shell commands of a migration phase.
//
// Commands execute strictly in order inside the repository working copy with
// herd's environment variables injected, and a phase stops at the first
// command that exits non-zero.
package steps
