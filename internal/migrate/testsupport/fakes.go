package testsupport

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/steps"
)

// Operation names recorded by FakeAdapter.Calls and used as keys of FakeAdapter.Errors.
const (
	OperationResolveMetadata      = "resolve"
	OperationCheckout             = "checkout"
	OperationResetChangedFiles    = "reset-changes"
	OperationResetToDefaultBranch = "reset-branch"
	OperationCommitAll            = "commit"
	OperationPush                 = "push"
	OperationForcePush            = "force-push"
	OperationFetchWithPrune       = "fetch"
	OperationRemoteBranchExists   = "branch-exists"
	OperationCommitsAhead         = "commits-ahead"
	OperationPullRequestCount     = "pr-count"
	OperationPublishPullRequest   = "publish"
	OperationPullRequestStatus    = "pr-status"

	callSeparatorConstant          = " "
	defaultBranchNameConstant      = "main"
	repositoriesDirectoryConstant  = "repos"
	dataDirectoryConstant          = "data"
	ownerSeparatorConstant         = "/"
	defaultStepFailureTextConstant = "step failed"
)

// Call renders the key FakeAdapter records for an operation on a repository.
func Call(operation string, repositoryName string) string {
	return operation + callSeparatorConstant + repositoryName
}

// NewRepository builds an owner/name repository on the main branch.
func NewRepository(fullName string) adapter.Repository {
	owner, name, _ := strings.Cut(fullName, ownerSeparatorConstant)
	return adapter.Repository{Owner: owner, Name: name, DefaultBranch: defaultBranchNameConstant}
}

// FakeAdapter is an in-memory adapter.Adapter that records every call in order.
type FakeAdapter struct {
	Workspace         string
	Candidates        []adapter.Repository
	DiscoveryError    error
	Archived          map[string]bool
	Errors            map[string]error
	RemoteBranches    map[string]bool
	AheadCommits      map[string][]string
	PullRequestCounts map[string]int
	Outcomes          map[string]adapter.PullRequestOutcome
	Statuses          map[string]adapter.PullRequestStatus
	Published         map[string]adapter.PullRequestContent
	CommitMessages    map[string]string
	Calls             []string
}

var _ adapter.Adapter = (*FakeAdapter)(nil)

func (fake *FakeAdapter) record(operation string, repository adapter.Repository) error {
	call := Call(operation, repository.FullName())
	fake.Calls = append(fake.Calls, call)
	return fake.Errors[call]
}

// CallsFor returns the recorded operations of one repository.
func (fake *FakeAdapter) CallsFor(repositoryName string) []string {
	var operations []string
	for _, call := range fake.Calls {
		operation, name, _ := strings.Cut(call, callSeparatorConstant)
		if name == repositoryName {
			operations = append(operations, operation)
		}
	}
	return operations
}

// ParseRepository accepts owner/name.
func (fake *FakeAdapter) ParseRepository(reference string) (adapter.Repository, error) {
	repository := NewRepository(reference)
	repository.DefaultBranch = ""
	return repository, nil
}

// FormatRepository renders owner/name.
func (fake *FakeAdapter) FormatRepository(repository adapter.Repository) string {
	return repository.FullName()
}

// RepositoriesEqual compares case-insensitively.
func (fake *FakeAdapter) RepositoriesEqual(first adapter.Repository, second adapter.Repository) bool {
	return adapter.CaseInsensitiveOwnerAndName(first, second)
}

// DiscoverCandidates returns Candidates.
func (fake *FakeAdapter) DiscoverCandidates(context.Context) ([]adapter.Repository, error) {
	if fake.DiscoveryError != nil {
		return nil, fake.DiscoveryError
	}
	return append([]adapter.Repository(nil), fake.Candidates...), nil
}

// ResolveMetadata fills in the main default branch and the configured archive flag.
func (fake *FakeAdapter) ResolveMetadata(_ context.Context, repository adapter.Repository) (adapter.RepositoryMetadata, error) {
	if recordedError := fake.record(OperationResolveMetadata, repository); recordedError != nil {
		return adapter.RepositoryMetadata{}, recordedError
	}
	repository.DefaultBranch = defaultBranchNameConstant
	return adapter.RepositoryMetadata{Repository: repository, Archived: fake.Archived[repository.FullName()]}, nil
}

// RepositoryDirectory is <workspace>/repos/<owner>/<name>.
func (fake *FakeAdapter) RepositoryDirectory(repository adapter.Repository) string {
	return filepath.Join(fake.Workspace, repositoriesDirectoryConstant, repository.Owner, repository.Name)
}

// DataDirectory is <workspace>/data/<owner>/<name>.
func (fake *FakeAdapter) DataDirectory(repository adapter.Repository) string {
	return filepath.Join(fake.Workspace, dataDirectoryConstant, repository.Owner, repository.Name)
}

// EnvironmentVariables exposes no host-specific variables.
func (fake *FakeAdapter) EnvironmentVariables(context.Context, adapter.Repository) (map[string]string, error) {
	return map[string]string{}, nil
}

// CheckoutRepository records the checkout.
func (fake *FakeAdapter) CheckoutRepository(_ context.Context, repository adapter.Repository) error {
	return fake.record(OperationCheckout, repository)
}

// ResetChangedFiles records the reset.
func (fake *FakeAdapter) ResetChangedFiles(_ context.Context, repository adapter.Repository) error {
	return fake.record(OperationResetChangedFiles, repository)
}

// ResetToDefaultBranch records the reset.
func (fake *FakeAdapter) ResetToDefaultBranch(_ context.Context, repository adapter.Repository) error {
	return fake.record(OperationResetToDefaultBranch, repository)
}

// CommitAll records the commit and its message.
func (fake *FakeAdapter) CommitAll(_ context.Context, repository adapter.Repository, message string) error {
	if fake.CommitMessages == nil {
		fake.CommitMessages = map[string]string{}
	}
	fake.CommitMessages[repository.FullName()] = message
	return fake.record(OperationCommitAll, repository)
}

// PushBranch records a push or a force push.
func (fake *FakeAdapter) PushBranch(_ context.Context, repository adapter.Repository, force bool) error {
	if force {
		return fake.record(OperationForcePush, repository)
	}
	return fake.record(OperationPush, repository)
}

// FetchWithPrune records the fetch.
func (fake *FakeAdapter) FetchWithPrune(_ context.Context, repository adapter.Repository) error {
	return fake.record(OperationFetchWithPrune, repository)
}

// RemoteBranchExists reports RemoteBranches.
func (fake *FakeAdapter) RemoteBranchExists(_ context.Context, repository adapter.Repository) (bool, error) {
	if recordedError := fake.record(OperationRemoteBranchExists, repository); recordedError != nil {
		return false, recordedError
	}
	return fake.RemoteBranches[repository.FullName()], nil
}

// CommitMessagesAheadOfDefaultBranch reports AheadCommits.
func (fake *FakeAdapter) CommitMessagesAheadOfDefaultBranch(_ context.Context, repository adapter.Repository) ([]string, error) {
	if recordedError := fake.record(OperationCommitsAhead, repository); recordedError != nil {
		return nil, recordedError
	}
	return fake.AheadCommits[repository.FullName()], nil
}

// PullRequestCountForBranch reports PullRequestCounts.
func (fake *FakeAdapter) PullRequestCountForBranch(_ context.Context, repository adapter.Repository) (int, error) {
	if recordedError := fake.record(OperationPullRequestCount, repository); recordedError != nil {
		return 0, recordedError
	}
	return fake.PullRequestCounts[repository.FullName()], nil
}

// CreateOrUpdatePullRequest stores the content and returns the configured outcome.
func (fake *FakeAdapter) CreateOrUpdatePullRequest(_ context.Context, repository adapter.Repository, content adapter.PullRequestContent) (adapter.PullRequestOutcome, error) {
	if recordedError := fake.record(OperationPublishPullRequest, repository); recordedError != nil {
		return adapter.PullRequestOutcome{}, recordedError
	}
	if fake.Published == nil {
		fake.Published = map[string]adapter.PullRequestContent{}
	}
	fake.Published[repository.FullName()] = content
	return fake.Outcomes[repository.FullName()], nil
}

// PullRequestStatus returns the configured status, missing by default.
func (fake *FakeAdapter) PullRequestStatus(_ context.Context, repository adapter.Repository) (adapter.PullRequestStatus, error) {
	if recordedError := fake.record(OperationPullRequestStatus, repository); recordedError != nil {
		return adapter.PullRequestStatus{}, recordedError
	}
	status, found := fake.Statuses[repository.FullName()]
	if !found {
		return adapter.PullRequestStatus{State: adapter.PullRequestStateMissing}, nil
	}
	return status, nil
}

// ScriptedPhaseRunner succeeds every step unless the phase is marked as failing for a working
// directory, in which case the first step fails with the configured exit code.
type ScriptedPhaseRunner struct {
	Failures        map[string]int
	StandardOutputs map[string]string
	Requests        []steps.PhaseRequest
	OnRun           func(request steps.PhaseRequest)
}

// PhaseKey is the ScriptedPhaseRunner.Failures key for a phase in a working directory.
func PhaseKey(phase steps.PhaseName, workingDirectory string) string {
	return string(phase) + callSeparatorConstant + workingDirectory
}

// RunPhase records the request and returns the scripted result.
func (runner *ScriptedPhaseRunner) RunPhase(_ context.Context, request steps.PhaseRequest) steps.PhaseResult {
	runner.Requests = append(runner.Requests, request)
	if runner.OnRun != nil {
		runner.OnRun(request)
	}
	result := steps.PhaseResult{Succeeded: true, StepResults: []steps.StepResult{}}
	exitCode, failing := runner.Failures[PhaseKey(request.Phase, request.WorkingDirectory)]
	for _, command := range request.Commands {
		step := steps.Step{Phase: request.Phase, Command: command}
		if failing {
			result.Succeeded = false
			result.StepResults = append(result.StepResults, steps.StepResult{Step: step, ExitCode: exitCode, StandardError: defaultStepFailureTextConstant})
			return result
		}
		result.StepResults = append(result.StepResults, steps.StepResult{Step: step, Succeeded: true, StandardOutput: runner.StandardOutputs[command]})
	}
	return result
}

// PhasesRun lists the phases run in a working directory, in order.
func (runner *ScriptedPhaseRunner) PhasesRun(workingDirectory string) []steps.PhaseName {
	var phases []steps.PhaseName
	for _, request := range runner.Requests {
		if request.WorkingDirectory == workingDirectory {
			phases = append(phases, request.Phase)
		}
	}
	return phases
}

// MemoryStateStore keeps the enrolled list in memory.
type MemoryStateStore struct {
	Repositories []adapter.Repository
	Persisted    bool
	LoadError    error
	SaveError    error
	Saves        int
}

// Load returns the stored list.
func (store *MemoryStateStore) Load() ([]adapter.Repository, bool, error) {
	if store.LoadError != nil {
		return nil, false, store.LoadError
	}
	return append([]adapter.Repository(nil), store.Repositories...), store.Persisted, nil
}

// Save replaces the stored list.
func (store *MemoryStateStore) Save(repositories []adapter.Repository) error {
	store.Saves++
	if store.SaveError != nil {
		return store.SaveError
	}
	store.Repositories = append([]adapter.Repository(nil), repositories...)
	store.Persisted = true
	return nil
}

// RecordingFileSystem records removed paths without touching the disk.
type RecordingFileSystem struct {
	Removed []string
}

// RemoveAll records the path.
func (fileSystem *RecordingFileSystem) RemoveAll(path string) error {
	fileSystem.Removed = append(fileSystem.Removed, path)
	return nil
}
