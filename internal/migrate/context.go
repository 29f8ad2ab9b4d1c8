package migrate

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/migrationspec"
	"github.com/temirov/herd/internal/state"
)

const (
	// AuthorshipMarkerConstant prefixes every commit herd records and identifies herd commits on a branch.
	AuthorshipMarkerConstant = "[herd]"

	commitMessageSeparatorConstant      = " "
	workspaceMissingMessageConstant     = "migration context requires a workspace directory"
	specificationMissingMessageConstant = "migration context requires a loaded migration"
)

// ErrWorkspaceDirectoryRequired indicates that no workspace directory was configured.
var ErrWorkspaceDirectoryRequired = errors.New(workspaceMissingMessageConstant)

// ErrSpecificationRequired indicates that the migration definition was not loaded.
var ErrSpecificationRequired = errors.New(specificationMissingMessageConstant)

// MigrationContext carries everything a command needs to know about the migration it operates on.
// It is created once per command invocation and passed to every collaborator.
type MigrationContext struct {
	Specification      migrationspec.Specification
	MigrationDirectory string
	WorkingDirectory   string
	Selection          []adapter.Repository
}

// NewMigrationContext places the migration working directory at <workspace>/<migration id>.
func NewMigrationContext(specification migrationspec.Specification, workspaceDirectory string, selection []adapter.Repository) (MigrationContext, error) {
	if len(strings.TrimSpace(specification.ID)) == 0 {
		return MigrationContext{}, ErrSpecificationRequired
	}
	trimmedWorkspace := strings.TrimSpace(workspaceDirectory)
	if len(trimmedWorkspace) == 0 {
		return MigrationContext{}, ErrWorkspaceDirectoryRequired
	}
	return MigrationContext{
		Specification:      specification,
		MigrationDirectory: specification.Directory,
		WorkingDirectory:   filepath.Join(trimmedWorkspace, filepath.FromSlash(specification.ID)),
		Selection:          append([]adapter.Repository(nil), selection...),
	}, nil
}

// Branch is the migration branch name.
func (migrationContext MigrationContext) Branch() string {
	return migrationContext.Specification.BranchName()
}

// StateFilePath is the location of the enrolled repository list.
func (migrationContext MigrationContext) StateFilePath() string {
	return filepath.Join(migrationContext.WorkingDirectory, state.FileNameConstant)
}

// CommitMessage is the message of the commit recorded by the commit command.
func (migrationContext MigrationContext) CommitMessage() string {
	return AuthorshipMarkerConstant + commitMessageSeparatorConstant + migrationContext.Specification.Title
}
