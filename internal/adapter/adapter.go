package adapter

import (
	"context"
	"fmt"
)

const pullRequestClosedErrorTemplateConstant = "pull request #%d for %s is %s and cannot be updated"

// Identity parses, renders and compares repository references.
type Identity interface {
	ParseRepository(reference string) (Repository, error)
	FormatRepository(repository Repository) string
	RepositoriesEqual(first Repository, second Repository) bool
}

// RepositoryMetadata is the host's view of a repository at discovery time.
type RepositoryMetadata struct {
	Repository Repository
	Archived   bool
}

// Discovery finds candidate repositories and resolves their metadata.
type Discovery interface {
	DiscoverCandidates(executionContext context.Context) ([]Repository, error)
	ResolveMetadata(executionContext context.Context, repository Repository) (RepositoryMetadata, error)
}

// WorkingCopy exposes the local checkout of a repository and the git primitives the phases need.
type WorkingCopy interface {
	RepositoryDirectory(repository Repository) string
	DataDirectory(repository Repository) string
	EnvironmentVariables(executionContext context.Context, repository Repository) (map[string]string, error)
	CheckoutRepository(executionContext context.Context, repository Repository) error
	ResetChangedFiles(executionContext context.Context, repository Repository) error
	ResetToDefaultBranch(executionContext context.Context, repository Repository) error
	CommitAll(executionContext context.Context, repository Repository, message string) error
	PushBranch(executionContext context.Context, repository Repository, force bool) error
}

// SafetyInspector supplies the remote facts used to classify destructive branch operations.
type SafetyInspector interface {
	FetchWithPrune(executionContext context.Context, repository Repository) error
	RemoteBranchExists(executionContext context.Context, repository Repository) (bool, error)
	CommitMessagesAheadOfDefaultBranch(executionContext context.Context, repository Repository) ([]string, error)
	PullRequestCountForBranch(executionContext context.Context, repository Repository) (int, error)
}

// PullRequestContent is the title and body published for a repository.
type PullRequestContent struct {
	Title string
	Body  string
}

// PullRequestOutcome describes the pull request after a create-or-update call.
type PullRequestOutcome struct {
	Number  int
	URL     string
	Created bool
}

// PullRequestState enumerates the lifecycle states reported by PullRequestStatus.
type PullRequestState string

const (
	// PullRequestStateMissing means no pull request exists for the migration branch.
	PullRequestStateMissing PullRequestState = "missing"
	// PullRequestStateOpen means the pull request is open.
	PullRequestStateOpen PullRequestState = "open"
	// PullRequestStateClosed means the pull request was closed without merging.
	PullRequestStateClosed PullRequestState = "closed"
	// PullRequestStateMerged means the pull request was merged.
	PullRequestStateMerged PullRequestState = "merged"
)

// PullRequestStatus reports merge readiness of the migration pull request.
type PullRequestStatus struct {
	Number        int
	URL           string
	State         PullRequestState
	Mergeable     bool
	FailingChecks []string
	PendingChecks []string
}

// PullRequests creates, updates and inspects the migration pull request.
type PullRequests interface {
	CreateOrUpdatePullRequest(executionContext context.Context, repository Repository, content PullRequestContent) (PullRequestOutcome, error)
	PullRequestStatus(executionContext context.Context, repository Repository) (PullRequestStatus, error)
}

// Adapter is the full capability set of a repository host.
type Adapter interface {
	Identity
	Discovery
	WorkingCopy
	SafetyInspector
	PullRequests
}

// PullRequestClosedError reports an existing pull request that can no longer be updated.
type PullRequestClosedError struct {
	Repository Repository
	Number     int
	State      PullRequestState
}

// Error describes the conflicting pull request.
func (closedError PullRequestClosedError) Error() string {
	return fmt.Sprintf(pullRequestClosedErrorTemplateConstant, closedError.Number, closedError.Repository.FullName(), closedError.State)
}
