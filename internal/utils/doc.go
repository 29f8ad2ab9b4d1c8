// Package utils exposes the configuration loader, logger factory and command context helpers shared by
// the herd command-line interface.
package utils
