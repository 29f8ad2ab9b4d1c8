package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
	githubadapter "github.com/temirov/herd/internal/adapter/github"
	"github.com/temirov/herd/internal/execshell"
	"github.com/temirov/herd/internal/githubapi"
	"github.com/temirov/herd/internal/githubauth"
	"github.com/temirov/herd/internal/githubcli"
	"github.com/temirov/herd/internal/gitrepo"
	"github.com/temirov/herd/internal/migrationspec"
	"github.com/temirov/herd/internal/state"
	"github.com/temirov/herd/internal/steps"
	"github.com/temirov/herd/internal/ui"
)

const (
	environmentAssignmentSeparatorConstant = "="
	executorCreationErrorTemplateConstant  = "unable to construct command executor: %w"
	githubClientErrorTemplateConstant      = "unable to construct GitHub client: %w"
	adapterCreationErrorTemplateConstant   = "unable to construct GitHub adapter: %w"
	selectionErrorTemplateConstant         = "invalid repository %q: %w"
	tokenUnavailableMessageConstant        = "GitHub token unavailable; continuing without authentication"
	stateStoreOpenedMessageConstant        = "State store opened"
	logFieldStateFileConstant              = "state_file"
)

// Operations is the command surface of a migration service.
type Operations interface {
	Checkout(executionContext context.Context) (Summary, error)
	Apply(executionContext context.Context, options ApplyOptions) (Summary, error)
	Commit(executionContext context.Context) (Summary, error)
	Push(executionContext context.Context, options PushOptions) (Summary, error)
	PullRequest(executionContext context.Context, options PullRequestOptions) (Summary, error)
	PullRequestStatus(executionContext context.Context) (Summary, error)
	List(executionContext context.Context) (Summary, error)
	Reset(executionContext context.Context) (Summary, error)
}

var _ Operations = (*Service)(nil)

// ServiceRequest carries what a ServiceProvider needs to assemble a service for one command.
type ServiceRequest struct {
	Specification        migrationspec.Specification
	Selection            []string
	Configuration        CommandConfiguration
	Logger               *zap.Logger
	Output               io.Writer
	HumanReadableLogging bool
}

// ServiceProvider assembles the migration service for a command invocation.
type ServiceProvider func(executionContext context.Context, request ServiceRequest) (Operations, error)

// NewGitHubService wires the production collaborators: git and sh subprocesses, the go-github
// client behind the rate-limited paginator, the GitHub adapter and the file-backed state store.
func NewGitHubService(executionContext context.Context, request ServiceRequest) (Operations, error) {
	logger := request.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	configuration := request.Configuration.Sanitize()

	var observers []execshell.CommandEventObserver
	if request.HumanReadableLogging {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observers...)
	if executorError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	githubClient, clientError := newGitHubClient(executionContext, shellExecutor, configuration.GitHub, logger, request.Output)
	if clientError != nil {
		return nil, fmt.Errorf(githubClientErrorTemplateConstant, clientError)
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	migrationContext, contextError := NewMigrationContext(request.Specification, configuration.Workspace.Directory, nil)
	if contextError != nil {
		return nil, contextError
	}

	githubAdapter, adapterError := githubadapter.New(githubadapter.Configuration{
		Branch:           migrationContext.Branch(),
		WorkingDirectory: migrationContext.WorkingDirectory,
		Host:             configuration.GitHub.Host(),
		CloneProtocol:    gitrepo.RemoteProtocol(configuration.GitHub.CloneProtocol),
		Discovery:        request.Specification.Adapter,
	}, githubClient, repositoryManager, logger)
	if adapterError != nil {
		return nil, fmt.Errorf(adapterCreationErrorTemplateConstant, adapterError)
	}

	selection, selectionError := ParseSelection(githubAdapter, request.Selection)
	if selectionError != nil {
		return nil, selectionError
	}
	migrationContext.Selection = selection

	stateStore, storeError := state.NewFileStore(migrationContext.StateFilePath())
	if storeError != nil {
		return nil, storeError
	}
	logger.Debug(stateStoreOpenedMessageConstant, zap.String(logFieldStateFileConstant, stateStore.Path()))

	phaseRunner, runnerError := steps.NewExecutor(logger, shellExecutor)
	if runnerError != nil {
		return nil, runnerError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:      logger,
		Context:     migrationContext,
		Adapter:     githubAdapter,
		PhaseRunner: phaseRunner,
		StateStore:  stateStore,
		Output:      request.Output,
	})
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}

// ParseSelection parses --repos references with the adapter's identity rules, dropping duplicates.
func ParseSelection(identity adapter.Identity, references []string) ([]adapter.Repository, error) {
	var selection []adapter.Repository
	for _, reference := range references {
		trimmedReference := strings.TrimSpace(reference)
		if len(trimmedReference) == 0 {
			continue
		}
		repository, parseError := identity.ParseRepository(trimmedReference)
		if parseError != nil {
			return nil, fmt.Errorf(selectionErrorTemplateConstant, trimmedReference, parseError)
		}
		if adapter.ContainsRepository(selection, repository, identity.RepositoriesEqual) {
			continue
		}
		selection = append(selection, repository)
	}
	return selection, nil
}

func newGitHubClient(executionContext context.Context, shellExecutor *execshell.ShellExecutor, configuration GitHubConfiguration, logger *zap.Logger, output io.Writer) (*githubapi.Client, error) {
	cliClient, cliError := githubcli.NewClient(shellExecutor)
	if cliError != nil {
		return nil, cliError
	}
	token, tokenError := githubauth.ResolveTokenWithFallback(executionContext, environmentMap(os.Environ()), cliClient, configuration.CLIHostname())
	if tokenError != nil {
		logger.Warn(tokenUnavailableMessageConstant, zap.Error(tokenError))
	}

	apiClient, apiError := githubapi.NewAPIClient(token, configuration.BaseURL)
	if apiError != nil {
		return nil, apiError
	}
	paginator := githubapi.NewPaginator(logger, configuration.BackoffPolicyReportingTo(output), nil, nil)
	return githubapi.NewClient(apiClient, paginator)
}

func environmentMap(assignments []string) map[string]string {
	environment := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		key, value, found := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if !found {
			continue
		}
		environment[key] = value
	}
	return environment
}
