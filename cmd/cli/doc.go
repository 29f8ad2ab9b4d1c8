// Package cli constructs the herd command-line interface, wiring the Cobra command hierarchy,
// configuration loader, and structured logging around the migration commands.
package cli
