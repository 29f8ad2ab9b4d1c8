package steps

const (
	// RepositoryDirectoryVariableConstant names the working copy of the repository being migrated.
	RepositoryDirectoryVariableConstant = "HERD_REPO_DIR"
	// DataDirectoryVariableConstant names a per-repository scratch directory that survives between phases.
	DataDirectoryVariableConstant = "HERD_DATA_DIR"
	// MigrationDirectoryVariableConstant names the directory holding the migration definition.
	MigrationDirectoryVariableConstant = "HERD_MIGRATION_DIR"
	// BaseBranchVariableConstant names the default branch of the repository.
	BaseBranchVariableConstant = "HERD_BASE_BRANCH"
)

// EnvironmentInputs collects the values injected into every step of a phase.
type EnvironmentInputs struct {
	RepositoryDirectory string
	DataDirectory       string
	MigrationDirectory  string
	BaseBranch          string
	Extra               map[string]string
}

// Variables renders the inputs as environment assignments. Extra entries never override the
// standard variables.
func (inputs EnvironmentInputs) Variables() map[string]string {
	variables := make(map[string]string, len(inputs.Extra)+4)
	for extraKey, extraValue := range inputs.Extra {
		variables[extraKey] = extraValue
	}
	variables[RepositoryDirectoryVariableConstant] = inputs.RepositoryDirectory
	variables[DataDirectoryVariableConstant] = inputs.DataDirectory
	variables[MigrationDirectoryVariableConstant] = inputs.MigrationDirectory
	variables[BaseBranchVariableConstant] = inputs.BaseBranch
	return variables
}
