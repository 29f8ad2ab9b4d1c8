// Package execshell runs the external processes herd depends on.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner in production) with
// structured logging, lifecycle observers and typed failures so git, gh and
// migration step scripts can be exercised with fakes in tests.
package execshell
