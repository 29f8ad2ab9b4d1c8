// Package migrationspec loads the herd.yml file that defines a migration.
package migrationspec
