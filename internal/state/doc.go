// Package state persists the list of repositories enrolled in a migration.
//
// Reconciler merges the outcome of a checkout run into the stored list and
// FileStore reads and atomically rewrites that list as YAML.
package state
