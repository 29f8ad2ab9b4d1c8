package github

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/githubapi"
	"github.com/temirov/herd/internal/gitrepo"
	"github.com/temirov/herd/internal/migrationspec"
)

const (
	// RevisionVariableConstant carries the HEAD commit of the working copy.
	RevisionVariableConstant = "HERD_GIT_REVISION"
	// RepositoryOwnerVariableConstant carries the repository owner.
	RepositoryOwnerVariableConstant = "HERD_GITHUB_REPO_OWNER"
	// RepositoryNameVariableConstant carries the repository name.
	RepositoryNameVariableConstant = "HERD_GITHUB_REPO_NAME"

	// DefaultHostConstant is the public GitHub host used to build clone URLs.
	DefaultHostConstant = "github.com"

	repositoriesDirectoryNameConstant = "repos"
	dataDirectoryNameConstant         = "data"
	dataDirectoryPermissionsConstant  = 0o755
	repositoryFormatTemplateConstant  = "%s/%s"

	statusStateFailureConstant   = "failure"
	statusStateErrorConstant     = "error"
	statusStatePendingConstant   = "pending"
	pullRequestStateOpenConstant = "open"

	hostClientMissingMessageConstant       = "GitHub adapter requires a host client"
	gitOperationsMissingMessageConstant    = "GitHub adapter requires git operations"
	workingDirectoryMissingMessageConstant = "GitHub adapter requires a migration working directory"
	branchMissingMessageConstant           = "GitHub adapter requires a migration branch"
	unsupportedSearchTypeTemplateConstant  = "unsupported search type %q"
	discoveryErrorTemplateConstant         = "discover repositories: %w"
	metadataErrorTemplateConstant          = "resolve metadata for %s: %w"
	missingRepositoryTemplateConstant      = "repository %s was not returned by the host"
	cloneURLErrorTemplateConstant          = "build clone url for %s: %w"
	cloneErrorTemplateConstant             = "clone %s: %w"
	fetchErrorTemplateConstant             = "fetch %s: %w"
	staleDirectoryErrorTemplateConstant    = "remove invalid working copy %s: %w"
	dataDirectoryErrorTemplateConstant     = "create data directory %s: %w"
	revisionErrorTemplateConstant          = "read revision of %s: %w"
	listPullRequestsErrorTemplateConstant  = "list pull requests for %s: %w"
	createPullRequestErrorTemplateConstant = "create pull request for %s: %w"
	updatePullRequestErrorTemplateConstant = "update pull request #%d for %s: %w"
	getPullRequestErrorTemplateConstant    = "get pull request #%d for %s: %w"
	combinedStatusErrorTemplateConstant    = "get commit status for %s: %w"
	defaultBranchUnknownTemplateConstant   = "default branch of %s is unknown"
	branchLookupErrorTemplateConstant      = "look up branch %s of %s: %w"
	branchMissingOnHostTemplateConstant    = "branch %s of %s is not on the host"

	logFieldRepositoryConstant        = "repository"
	logFieldNumberConstant            = "number"
	logFieldURLConstant               = "url"
	logFieldSearchTypeConstant        = "search_type"
	logFieldCandidatesConstant        = "candidates"
	pullRequestCreatedMessageConstant = "Created pull request"
	pullRequestUpdatedMessageConstant = "Updated pull request"
	discoveryCompletedMessageConstant = "Discovered candidate repositories"
	cloningRepositoryMessageConstant  = "Cloning repository"
	fetchingRepositoryMessageConstant = "Updating existing working copy"
)

// ErrHostClientNotConfigured indicates that the adapter was constructed without a host client.
var ErrHostClientNotConfigured = errors.New(hostClientMissingMessageConstant)

// ErrGitOperationsNotConfigured indicates that the adapter was constructed without git operations.
var ErrGitOperationsNotConfigured = errors.New(gitOperationsMissingMessageConstant)

// ErrWorkingDirectoryNotConfigured indicates an empty migration working directory.
var ErrWorkingDirectoryNotConfigured = errors.New(workingDirectoryMissingMessageConstant)

// ErrBranchNotConfigured indicates an empty migration branch.
var ErrBranchNotConfigured = errors.New(branchMissingMessageConstant)

// HostClient is the subset of githubapi.Client used by the adapter.
type HostClient interface {
	ListOrganizationRepositories(executionContext context.Context, organization string) ([]*gh.Repository, error)
	SearchRepositories(executionContext context.Context, query string) ([]*gh.Repository, error)
	SearchCode(executionContext context.Context, query string) ([]*gh.CodeResult, error)
	GetRepository(executionContext context.Context, owner string, name string) (*gh.Repository, error)
	BranchExists(executionContext context.Context, owner string, name string, branch string) (bool, error)
	ListPullRequestsForHead(executionContext context.Context, owner string, name string, headOwner string, branch string) ([]*gh.PullRequest, error)
	GetPullRequest(executionContext context.Context, owner string, name string, number int) (*gh.PullRequest, error)
	CreatePullRequest(executionContext context.Context, owner string, name string, request *gh.NewPullRequest) (*gh.PullRequest, error)
	UpdatePullRequest(executionContext context.Context, owner string, name string, number int, title string, body string) (*gh.PullRequest, error)
	GetCombinedStatus(executionContext context.Context, owner string, name string, ref string) (githubapi.CombinedStatus, error)
}

// GitOperations is the subset of gitrepo.RepositoryManager used by the adapter.
type GitOperations interface {
	CloneShallow(executionContext context.Context, remoteURL string, directory string) error
	Fetch(executionContext context.Context, directory string) error
	FetchWithPrune(executionContext context.Context, directory string) error
	SwitchToBranch(executionContext context.Context, directory string, branch string) error
	DiscardChanges(executionContext context.Context, directory string) error
	ResetHardToRemoteBranch(executionContext context.Context, directory string, branch string) error
	CommitAll(executionContext context.Context, directory string, message string) error
	Push(executionContext context.Context, directory string, branch string, force bool) error
	RemoteBranchExists(executionContext context.Context, directory string, branch string) (bool, error)
	CommitMessagesAheadOf(executionContext context.Context, directory string, baseBranch string, branch string) ([]string, error)
}

// Configuration describes the migration the adapter serves.
type Configuration struct {
	Branch           string
	WorkingDirectory string
	Host             string
	CloneProtocol    gitrepo.RemoteProtocol
	Discovery        migrationspec.AdapterConfiguration
}

// Adapter implements adapter.Adapter for GitHub.
type Adapter struct {
	configuration      Configuration
	client             HostClient
	git                GitOperations
	logger             *zap.Logger
	isRepository       func(directory string) bool
	headRevision       func(directory string) (string, error)
	defaultBranchCache map[string]string
}

var (
	_ adapter.Adapter = (*Adapter)(nil)
	_ HostClient      = (*githubapi.Client)(nil)
	_ GitOperations   = (*gitrepo.RepositoryManager)(nil)
)

// New constructs an Adapter.
func New(configuration Configuration, client HostClient, git GitOperations, logger *zap.Logger) (*Adapter, error) {
	if client == nil {
		return nil, ErrHostClientNotConfigured
	}
	if git == nil {
		return nil, ErrGitOperationsNotConfigured
	}
	configuration.WorkingDirectory = strings.TrimSpace(configuration.WorkingDirectory)
	if len(configuration.WorkingDirectory) == 0 {
		return nil, ErrWorkingDirectoryNotConfigured
	}
	configuration.Branch = strings.TrimSpace(configuration.Branch)
	if len(configuration.Branch) == 0 {
		return nil, ErrBranchNotConfigured
	}
	if len(strings.TrimSpace(configuration.Host)) == 0 {
		configuration.Host = DefaultHostConstant
	}
	if len(configuration.CloneProtocol) == 0 {
		configuration.CloneProtocol = gitrepo.RemoteProtocolHTTPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		configuration:      configuration,
		client:             client,
		git:                git,
		logger:             logger,
		isRepository:       gitrepo.IsRepository,
		headRevision:       gitrepo.HeadRevision,
		defaultBranchCache: make(map[string]string),
	}, nil
}

// ParseRepository accepts owner/name or a GitHub remote URL.
func (githubAdapter *Adapter) ParseRepository(reference string) (adapter.Repository, error) {
	owner, name, parseError := gitrepo.ParseRepositoryReference(reference)
	if parseError != nil {
		return adapter.Repository{}, parseError
	}
	return adapter.Repository{Owner: owner, Name: name}, nil
}

// FormatRepository renders owner/name.
func (githubAdapter *Adapter) FormatRepository(repository adapter.Repository) string {
	return fmt.Sprintf(repositoryFormatTemplateConstant, repository.Owner, repository.Name)
}

// RepositoriesEqual compares owner and name case-insensitively, as GitHub does.
func (githubAdapter *Adapter) RepositoriesEqual(first adapter.Repository, second adapter.Repository) bool {
	return adapter.CaseInsensitiveOwnerAndName(first, second)
}

// DiscoverCandidates runs the configured search and returns each repository once, in result order.
func (githubAdapter *Adapter) DiscoverCandidates(executionContext context.Context) ([]adapter.Repository, error) {
	discovery := githubAdapter.configuration.Discovery
	var found []adapter.Repository

	switch discovery.SearchType {
	case migrationspec.SearchTypeCode, "":
		codeResults, searchError := githubAdapter.client.SearchCode(executionContext, discovery.SearchQuery)
		if searchError != nil {
			return nil, fmt.Errorf(discoveryErrorTemplateConstant, searchError)
		}
		for _, codeResult := range codeResults {
			if codeResult == nil || codeResult.Repository == nil {
				continue
			}
			found = append(found, repositoryFromHost(codeResult.Repository))
		}
	case migrationspec.SearchTypeRepositories:
		repositories, searchError := githubAdapter.client.SearchRepositories(executionContext, discovery.SearchQuery)
		if searchError != nil {
			return nil, fmt.Errorf(discoveryErrorTemplateConstant, searchError)
		}
		found = repositoriesFromHost(repositories)
	case migrationspec.SearchTypeOrganization:
		repositories, listError := githubAdapter.client.ListOrganizationRepositories(executionContext, discovery.Organization)
		if listError != nil {
			return nil, fmt.Errorf(discoveryErrorTemplateConstant, listError)
		}
		found = repositoriesFromHost(repositories)
	default:
		return nil, fmt.Errorf(discoveryErrorTemplateConstant, fmt.Errorf(unsupportedSearchTypeTemplateConstant, discovery.SearchType))
	}

	candidates := make([]adapter.Repository, 0, len(found))
	for _, repository := range found {
		if len(repository.Owner) == 0 || len(repository.Name) == 0 {
			continue
		}
		if adapter.ContainsRepository(candidates, repository, githubAdapter.RepositoriesEqual) {
			continue
		}
		candidates = append(candidates, repository)
	}

	githubAdapter.logger.Debug(discoveryCompletedMessageConstant,
		zap.String(logFieldSearchTypeConstant, discovery.SearchType),
		zap.Int(logFieldCandidatesConstant, len(candidates)),
	)
	return candidates, nil
}

// ResolveMetadata fetches the canonical name, default branch and archive flag of a repository.
func (githubAdapter *Adapter) ResolveMetadata(executionContext context.Context, repository adapter.Repository) (adapter.RepositoryMetadata, error) {
	hostRepository, getError := githubAdapter.client.GetRepository(executionContext, repository.Owner, repository.Name)
	if getError != nil {
		return adapter.RepositoryMetadata{}, fmt.Errorf(metadataErrorTemplateConstant, repository.FullName(), getError)
	}
	if hostRepository == nil {
		return adapter.RepositoryMetadata{}, fmt.Errorf(missingRepositoryTemplateConstant, repository.FullName())
	}
	resolved := repositoryFromHost(hostRepository)
	if len(resolved.Owner) == 0 {
		resolved.Owner = repository.Owner
	}
	if len(resolved.Name) == 0 {
		resolved.Name = repository.Name
	}
	if len(resolved.DefaultBranch) > 0 {
		githubAdapter.defaultBranchCache[cacheKey(resolved)] = resolved.DefaultBranch
	}
	return adapter.RepositoryMetadata{Repository: resolved, Archived: hostRepository.GetArchived()}, nil
}

// RepositoryDirectory is <working directory>/repos/<owner>/<name>.
func (githubAdapter *Adapter) RepositoryDirectory(repository adapter.Repository) string {
	return filepath.Join(githubAdapter.configuration.WorkingDirectory, repositoriesDirectoryNameConstant, repository.Owner, repository.Name)
}

// DataDirectory is <working directory>/data/<owner>/<name>.
func (githubAdapter *Adapter) DataDirectory(repository adapter.Repository) string {
	return filepath.Join(githubAdapter.configuration.WorkingDirectory, dataDirectoryNameConstant, repository.Owner, repository.Name)
}

// EnvironmentVariables returns the GitHub-specific variables injected into every step.
func (githubAdapter *Adapter) EnvironmentVariables(_ context.Context, repository adapter.Repository) (map[string]string, error) {
	revision, revisionError := githubAdapter.headRevision(githubAdapter.RepositoryDirectory(repository))
	if revisionError != nil {
		return nil, fmt.Errorf(revisionErrorTemplateConstant, repository.FullName(), revisionError)
	}
	return map[string]string{
		RevisionVariableConstant:        revision,
		RepositoryOwnerVariableConstant: repository.Owner,
		RepositoryNameVariableConstant:  repository.Name,
	}, nil
}

// CheckoutRepository clones or fetches the repository, switches to the migration branch and
// prepares the data directory.
func (githubAdapter *Adapter) CheckoutRepository(executionContext context.Context, repository adapter.Repository) error {
	repositoryDirectory := githubAdapter.RepositoryDirectory(repository)
	repositoryLogger := githubAdapter.logger.With(zap.String(logFieldRepositoryConstant, repository.FullName()))

	if githubAdapter.isRepository(repositoryDirectory) {
		repositoryLogger.Debug(fetchingRepositoryMessageConstant)
		if fetchError := githubAdapter.git.Fetch(executionContext, repositoryDirectory); fetchError != nil {
			return fmt.Errorf(fetchErrorTemplateConstant, repository.FullName(), fetchError)
		}
	} else {
		if removeError := os.RemoveAll(repositoryDirectory); removeError != nil {
			return fmt.Errorf(staleDirectoryErrorTemplateConstant, repositoryDirectory, removeError)
		}
		cloneURL, urlError := githubAdapter.cloneURL(repository)
		if urlError != nil {
			return fmt.Errorf(cloneURLErrorTemplateConstant, repository.FullName(), urlError)
		}
		repositoryLogger.Debug(cloningRepositoryMessageConstant)
		if cloneError := githubAdapter.git.CloneShallow(executionContext, cloneURL, repositoryDirectory); cloneError != nil {
			return fmt.Errorf(cloneErrorTemplateConstant, repository.FullName(), cloneError)
		}
	}

	if switchError := githubAdapter.git.SwitchToBranch(executionContext, repositoryDirectory, githubAdapter.configuration.Branch); switchError != nil {
		return switchError
	}

	dataDirectory := githubAdapter.DataDirectory(repository)
	if mkdirError := os.MkdirAll(dataDirectory, dataDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(dataDirectoryErrorTemplateConstant, dataDirectory, mkdirError)
	}
	return nil
}

// ResetChangedFiles discards uncommitted changes and untracked files.
func (githubAdapter *Adapter) ResetChangedFiles(executionContext context.Context, repository adapter.Repository) error {
	return githubAdapter.git.DiscardChanges(executionContext, githubAdapter.RepositoryDirectory(repository))
}

// ResetToDefaultBranch points the migration branch at origin/<default branch>.
func (githubAdapter *Adapter) ResetToDefaultBranch(executionContext context.Context, repository adapter.Repository) error {
	defaultBranch, branchError := githubAdapter.defaultBranch(executionContext, repository)
	if branchError != nil {
		return branchError
	}
	return githubAdapter.git.ResetHardToRemoteBranch(executionContext, githubAdapter.RepositoryDirectory(repository), defaultBranch)
}

// CommitAll stages and commits every change with message.
func (githubAdapter *Adapter) CommitAll(executionContext context.Context, repository adapter.Repository, message string) error {
	return githubAdapter.git.CommitAll(executionContext, githubAdapter.RepositoryDirectory(repository), message)
}

// PushBranch pushes the migration branch to origin.
func (githubAdapter *Adapter) PushBranch(executionContext context.Context, repository adapter.Repository, force bool) error {
	return githubAdapter.git.Push(executionContext, githubAdapter.RepositoryDirectory(repository), githubAdapter.configuration.Branch, force)
}

// FetchWithPrune refreshes remote-tracking references, dropping deleted branches.
func (githubAdapter *Adapter) FetchWithPrune(executionContext context.Context, repository adapter.Repository) error {
	return githubAdapter.git.FetchWithPrune(executionContext, githubAdapter.RepositoryDirectory(repository))
}

// RemoteBranchExists reports whether origin has the migration branch.
func (githubAdapter *Adapter) RemoteBranchExists(executionContext context.Context, repository adapter.Repository) (bool, error) {
	return githubAdapter.git.RemoteBranchExists(executionContext, githubAdapter.RepositoryDirectory(repository), githubAdapter.configuration.Branch)
}

// CommitMessagesAheadOfDefaultBranch returns the messages of commits on origin/<migration branch>
// that are not on origin/<default branch>.
func (githubAdapter *Adapter) CommitMessagesAheadOfDefaultBranch(executionContext context.Context, repository adapter.Repository) ([]string, error) {
	defaultBranch, branchError := githubAdapter.defaultBranch(executionContext, repository)
	if branchError != nil {
		return nil, branchError
	}
	return githubAdapter.git.CommitMessagesAheadOf(executionContext, githubAdapter.RepositoryDirectory(repository), defaultBranch, githubAdapter.configuration.Branch)
}

// PullRequestCountForBranch counts pull requests in any state whose head is the migration branch.
func (githubAdapter *Adapter) PullRequestCountForBranch(executionContext context.Context, repository adapter.Repository) (int, error) {
	pullRequests, listError := githubAdapter.listPullRequests(executionContext, repository)
	if listError != nil {
		return 0, listError
	}
	return len(pullRequests), nil
}

// CreateOrUpdatePullRequest opens a pull request for the migration branch, or updates the open one.
// A new pull request is only opened once the host itself reports the branch.
// A closed or merged pull request is reported as adapter.PullRequestClosedError.
func (githubAdapter *Adapter) CreateOrUpdatePullRequest(executionContext context.Context, repository adapter.Repository, content adapter.PullRequestContent) (adapter.PullRequestOutcome, error) {
	pullRequests, listError := githubAdapter.listPullRequests(executionContext, repository)
	if listError != nil {
		return adapter.PullRequestOutcome{}, listError
	}
	repositoryLogger := githubAdapter.logger.With(zap.String(logFieldRepositoryConstant, repository.FullName()))

	existing, found := selectPullRequest(pullRequests)
	if !found {
		branchOnHost, lookupError := githubAdapter.client.BranchExists(executionContext, repository.Owner, repository.Name, githubAdapter.configuration.Branch)
		if lookupError != nil {
			return adapter.PullRequestOutcome{}, fmt.Errorf(branchLookupErrorTemplateConstant, githubAdapter.configuration.Branch, repository.FullName(), lookupError)
		}
		if !branchOnHost {
			return adapter.PullRequestOutcome{}, fmt.Errorf(branchMissingOnHostTemplateConstant, githubAdapter.configuration.Branch, repository.FullName())
		}
		defaultBranch, branchError := githubAdapter.defaultBranch(executionContext, repository)
		if branchError != nil {
			return adapter.PullRequestOutcome{}, branchError
		}
		created, createError := githubAdapter.client.CreatePullRequest(executionContext, repository.Owner, repository.Name, &gh.NewPullRequest{
			Title: gh.String(content.Title),
			Head:  gh.String(githubAdapter.configuration.Branch),
			Base:  gh.String(defaultBranch),
			Body:  gh.String(content.Body),
		})
		if createError != nil {
			return adapter.PullRequestOutcome{}, fmt.Errorf(createPullRequestErrorTemplateConstant, repository.FullName(), createError)
		}
		repositoryLogger.Info(pullRequestCreatedMessageConstant, zap.Int(logFieldNumberConstant, created.GetNumber()), zap.String(logFieldURLConstant, created.GetHTMLURL()))
		return adapter.PullRequestOutcome{Number: created.GetNumber(), URL: created.GetHTMLURL(), Created: true}, nil
	}

	if state := pullRequestState(existing); state != adapter.PullRequestStateOpen {
		return adapter.PullRequestOutcome{}, adapter.PullRequestClosedError{Repository: repository, Number: existing.GetNumber(), State: state}
	}

	updated, updateError := githubAdapter.client.UpdatePullRequest(executionContext, repository.Owner, repository.Name, existing.GetNumber(), content.Title, content.Body)
	if updateError != nil {
		return adapter.PullRequestOutcome{}, fmt.Errorf(updatePullRequestErrorTemplateConstant, existing.GetNumber(), repository.FullName(), updateError)
	}
	repositoryLogger.Info(pullRequestUpdatedMessageConstant, zap.Int(logFieldNumberConstant, updated.GetNumber()), zap.String(logFieldURLConstant, updated.GetHTMLURL()))
	return adapter.PullRequestOutcome{Number: updated.GetNumber(), URL: updated.GetHTMLURL()}, nil
}

// PullRequestStatus reports the state of the migration pull request and, when open, its merge
// readiness from mergeability and the combined commit status of its head.
func (githubAdapter *Adapter) PullRequestStatus(executionContext context.Context, repository adapter.Repository) (adapter.PullRequestStatus, error) {
	pullRequests, listError := githubAdapter.listPullRequests(executionContext, repository)
	if listError != nil {
		return adapter.PullRequestStatus{}, listError
	}
	selected, found := selectPullRequest(pullRequests)
	if !found {
		return adapter.PullRequestStatus{State: adapter.PullRequestStateMissing}, nil
	}

	detailed, getError := githubAdapter.client.GetPullRequest(executionContext, repository.Owner, repository.Name, selected.GetNumber())
	if getError != nil {
		return adapter.PullRequestStatus{}, fmt.Errorf(getPullRequestErrorTemplateConstant, selected.GetNumber(), repository.FullName(), getError)
	}
	if detailed == nil {
		detailed = selected
	}

	status := adapter.PullRequestStatus{
		Number: detailed.GetNumber(),
		URL:    detailed.GetHTMLURL(),
		State:  pullRequestState(detailed),
	}
	if status.State != adapter.PullRequestStateOpen {
		return status, nil
	}

	combinedStatus, statusError := githubAdapter.client.GetCombinedStatus(executionContext, repository.Owner, repository.Name, detailed.GetHead().GetSHA())
	if statusError != nil {
		return adapter.PullRequestStatus{}, fmt.Errorf(combinedStatusErrorTemplateConstant, repository.FullName(), statusError)
	}
	for _, repositoryStatus := range combinedStatus.Statuses {
		switch repositoryStatus.GetState() {
		case statusStateFailureConstant, statusStateErrorConstant:
			status.FailingChecks = append(status.FailingChecks, repositoryStatus.GetContext())
		case statusStatePendingConstant:
			status.PendingChecks = append(status.PendingChecks, repositoryStatus.GetContext())
		}
	}
	status.Mergeable = detailed.GetMergeable() && len(status.FailingChecks) == 0 && len(status.PendingChecks) == 0
	return status, nil
}

func (githubAdapter *Adapter) listPullRequests(executionContext context.Context, repository adapter.Repository) ([]*gh.PullRequest, error) {
	pullRequests, listError := githubAdapter.client.ListPullRequestsForHead(executionContext, repository.Owner, repository.Name, repository.Owner, githubAdapter.configuration.Branch)
	if listError != nil {
		return nil, fmt.Errorf(listPullRequestsErrorTemplateConstant, repository.FullName(), listError)
	}
	return pullRequests, nil
}

// defaultBranch prefers the value recorded on the repository, then the cached metadata, then the host.
func (githubAdapter *Adapter) defaultBranch(executionContext context.Context, repository adapter.Repository) (string, error) {
	if len(repository.DefaultBranch) > 0 {
		return repository.DefaultBranch, nil
	}
	if cachedBranch, cached := githubAdapter.defaultBranchCache[cacheKey(repository)]; cached {
		return cachedBranch, nil
	}
	metadata, metadataError := githubAdapter.ResolveMetadata(executionContext, repository)
	if metadataError != nil {
		return "", metadataError
	}
	if len(metadata.Repository.DefaultBranch) == 0 {
		return "", fmt.Errorf(defaultBranchUnknownTemplateConstant, repository.FullName())
	}
	return metadata.Repository.DefaultBranch, nil
}

func (githubAdapter *Adapter) cloneURL(repository adapter.Repository) (string, error) {
	return gitrepo.FormatRemoteURL(gitrepo.RemoteURL{
		Protocol:   githubAdapter.configuration.CloneProtocol,
		Host:       githubAdapter.configuration.Host,
		Owner:      repository.Owner,
		Repository: repository.Name,
	})
}

// selectPullRequest prefers an open pull request, falling back to the first (most recent) one.
func selectPullRequest(pullRequests []*gh.PullRequest) (*gh.PullRequest, bool) {
	var first *gh.PullRequest
	for _, pullRequest := range pullRequests {
		if pullRequest == nil {
			continue
		}
		if first == nil {
			first = pullRequest
		}
		if pullRequest.GetState() == pullRequestStateOpenConstant {
			return pullRequest, true
		}
	}
	return first, first != nil
}

func pullRequestState(pullRequest *gh.PullRequest) adapter.PullRequestState {
	if pullRequest.GetMerged() || pullRequest.MergedAt != nil {
		return adapter.PullRequestStateMerged
	}
	if pullRequest.GetState() == pullRequestStateOpenConstant {
		return adapter.PullRequestStateOpen
	}
	return adapter.PullRequestStateClosed
}

func repositoryFromHost(hostRepository *gh.Repository) adapter.Repository {
	return adapter.Repository{
		Owner:         hostRepository.GetOwner().GetLogin(),
		Name:          hostRepository.GetName(),
		DefaultBranch: hostRepository.GetDefaultBranch(),
	}
}

func repositoriesFromHost(hostRepositories []*gh.Repository) []adapter.Repository {
	repositories := make([]adapter.Repository, 0, len(hostRepositories))
	for _, hostRepository := range hostRepositories {
		if hostRepository == nil {
			continue
		}
		repositories = append(repositories, repositoryFromHost(hostRepository))
	}
	return repositories
}

func cacheKey(repository adapter.Repository) string {
	return strings.ToLower(repository.FullName())
}
