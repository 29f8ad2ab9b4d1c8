// Package ui renders herd's command execution events for people watching a terminal.
//
// Structured telemetry keeps flowing through the JSON logger; this package only
// translates execshell lifecycle events into short console lines.
package ui
