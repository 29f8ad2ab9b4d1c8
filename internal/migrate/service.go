package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/migrationspec"
	"github.com/temirov/herd/internal/state"
	"github.com/temirov/herd/internal/steps"
)

const (
	adapterMissingMessageConstant         = "migration service requires an adapter"
	phaseRunnerMissingMessageConstant     = "migration service requires a phase runner"
	stateStoreMissingMessageConstant      = "migration service requires a state store"
	notCheckedOutMessageConstant          = "no repositories are enrolled in this migration; run checkout first"
	stateLoadErrorTemplateConstant        = "load enrolled repositories: %w"
	stateSaveErrorTemplateConstant        = "save enrolled repositories: %w"
	environmentErrorTemplateConstant      = "prepare environment for %s: %w"
	failureLineTemplateConstant           = "  %s: %v\n"
	repositoryFailedMessageConstant       = "Repository failed"
	repositoryCompletedMessageConstant    = "Repository completed"
	commandCompletedMessageConstant       = "Command completed"
	directoryCleanupFailedMessageConstant = "Unable to remove repository directories"

	logFieldRepositoryConstant = "repository"
	logFieldCommandConstant    = "command"
	logFieldOutcomeConstant    = "outcome"
	logFieldSucceededConstant  = "succeeded"
	logFieldDiscardedConstant  = "discarded"
	logFieldFailedConstant     = "failed"
	logFieldTotalConstant      = "repositories"
	logFieldPhaseConstant      = "phase"
	logFieldStepConstant       = "step"
	logFieldExitCodeConstant   = "exit_code"
	logFieldDirectoryConstant  = "directory"
)

// ErrAdapterNotConfigured indicates that the service was constructed without an adapter.
var ErrAdapterNotConfigured = errors.New(adapterMissingMessageConstant)

// ErrPhaseRunnerNotConfigured indicates that the service was constructed without a phase runner.
var ErrPhaseRunnerNotConfigured = errors.New(phaseRunnerMissingMessageConstant)

// ErrStateStoreNotConfigured indicates that the service was constructed without a state store.
var ErrStateStoreNotConfigured = errors.New(stateStoreMissingMessageConstant)

// ErrMigrationNotCheckedOut indicates a command that needs enrolled repositories ran before checkout.
var ErrMigrationNotCheckedOut = errors.New(notCheckedOutMessageConstant)

// PhaseRunner executes the steps of one phase.
type PhaseRunner interface {
	RunPhase(executionContext context.Context, request steps.PhaseRequest) steps.PhaseResult
}

// StateStore persists the enrolled repository list.
type StateStore interface {
	Load() ([]adapter.Repository, bool, error)
	Save(repositories []adapter.Repository) error
}

// FileSystem removes the directories of discarded repositories.
type FileSystem interface {
	RemoveAll(path string) error
}

// OSFileSystem implements FileSystem with the os package.
type OSFileSystem struct{}

// RemoveAll delegates to os.RemoveAll.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// ServiceDependencies describes the collaborators of a Service.
type ServiceDependencies struct {
	Logger      *zap.Logger
	Context     MigrationContext
	Adapter     adapter.Adapter
	PhaseRunner PhaseRunner
	StateStore  StateStore
	Classifier  SafetyClassifier
	FileSystem  FileSystem
	Output      io.Writer
}

// Service runs migration commands over the repositories of one migration.
type Service struct {
	logger      *zap.Logger
	context     MigrationContext
	adapter     adapter.Adapter
	phaseRunner PhaseRunner
	stateStore  StateStore
	classifier  SafetyClassifier
	fileSystem  FileSystem
	output      io.Writer
	reconciler  state.Reconciler
}

// NewService constructs a Service. The classifier defaults to a BranchSafetyClassifier over the
// adapter, the file system to OSFileSystem and the output to io.Discard.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Adapter == nil {
		return nil, ErrAdapterNotConfigured
	}
	if dependencies.PhaseRunner == nil {
		return nil, ErrPhaseRunnerNotConfigured
	}
	if dependencies.StateStore == nil {
		return nil, ErrStateStoreNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier := dependencies.Classifier
	if classifier == nil {
		branchClassifier, classifierError := NewBranchSafetyClassifier(dependencies.Adapter, logger)
		if classifierError != nil {
			return nil, classifierError
		}
		classifier = branchClassifier
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}

	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{
		logger:      logger,
		context:     dependencies.Context,
		adapter:     dependencies.Adapter,
		phaseRunner: dependencies.PhaseRunner,
		stateStore:  dependencies.StateStore,
		classifier:  classifier,
		fileSystem:  fileSystem,
		output:      output,
		reconciler:  state.NewReconciler(dependencies.Adapter.RepositoriesEqual),
	}, nil
}

type repositoryOperation func(executionContext context.Context, repository adapter.Repository) (Outcome, error)

// forEachRepository runs operation for every repository in order. Failures are logged and counted;
// only context cancellation stops the batch.
func (service *Service) forEachRepository(executionContext context.Context, command string, repositories []adapter.Repository, operation repositoryOperation) (Summary, error) {
	summary := Summary{Command: command}
	for _, repository := range repositories {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}

		repositoryLogger := service.logger.With(
			zap.String(logFieldCommandConstant, command),
			zap.String(logFieldRepositoryConstant, service.adapter.FormatRepository(repository)),
		)

		outcome, operationError := operation(executionContext, repository)
		if operationError != nil {
			if isCancellation(operationError) && executionContext.Err() != nil {
				return summary, operationError
			}
			repositoryLogger.Error(repositoryFailedMessageConstant, zap.Error(operationError))
			summary.record(repository, OutcomeFailed, operationError)
			continue
		}

		repositoryLogger.Debug(repositoryCompletedMessageConstant, zap.String(logFieldOutcomeConstant, string(outcome)))
		summary.record(repository, outcome, nil)
	}

	service.reportSummary(summary)
	return summary, nil
}

func (service *Service) reportSummary(summary Summary) {
	service.logger.Info(commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, summary.Command),
		zap.Int(logFieldSucceededConstant, summary.Succeeded),
		zap.Int(logFieldDiscardedConstant, summary.Discarded),
		zap.Int(logFieldFailedConstant, summary.Failed),
		zap.Int(logFieldTotalConstant, summary.Total()),
	)
	fmt.Fprintln(service.output, summary.String())
	for _, failure := range summary.Failures {
		fmt.Fprintf(service.output, failureLineTemplateConstant, service.adapter.FormatRepository(failure.Repository), failure.Error)
	}
}

// enrolledRepositories loads the persisted list and narrows it to the selection, if any.
func (service *Service) enrolledRepositories() ([]adapter.Repository, error) {
	repositories, found, loadError := service.stateStore.Load()
	if loadError != nil {
		return nil, fmt.Errorf(stateLoadErrorTemplateConstant, loadError)
	}
	if !found {
		return nil, ErrMigrationNotCheckedOut
	}
	return adapter.FilterRepositories(repositories, service.context.Selection, service.adapter.RepositoriesEqual), nil
}

// runPhase executes the commands of a phase inside the repository working copy. A failed step is
// returned as StepFailureError alongside the phase result.
func (service *Service) runPhase(executionContext context.Context, repository adapter.Repository, phase steps.PhaseName, commands migrationspec.CommandList) (steps.PhaseResult, error) {
	extraVariables, environmentError := service.adapter.EnvironmentVariables(executionContext, repository)
	if environmentError != nil {
		return steps.PhaseResult{}, fmt.Errorf(environmentErrorTemplateConstant, repository.FullName(), environmentError)
	}

	repositoryDirectory := service.adapter.RepositoryDirectory(repository)
	environment := steps.EnvironmentInputs{
		RepositoryDirectory: repositoryDirectory,
		DataDirectory:       service.adapter.DataDirectory(repository),
		MigrationDirectory:  service.context.MigrationDirectory,
		BaseBranch:          repository.DefaultBranch,
		Extra:               extraVariables,
	}

	phaseResult := service.phaseRunner.RunPhase(executionContext, steps.PhaseRequest{
		Phase:            phase,
		Commands:         []string(commands),
		WorkingDirectory: repositoryDirectory,
		Environment:      environment.Variables(),
	})
	if failedStep, failed := phaseResult.FailedStep(); failed {
		return phaseResult, StepFailureError{Repository: repository, Phase: phase, Result: failedStep}
	}
	return phaseResult, nil
}

func (service *Service) removeRepositoryDirectories(repository adapter.Repository) {
	for _, directory := range []string{service.adapter.RepositoryDirectory(repository), service.adapter.DataDirectory(repository)} {
		if removeError := service.fileSystem.RemoveAll(directory); removeError != nil {
			service.logger.Warn(directoryCleanupFailedMessageConstant,
				zap.String(logFieldRepositoryConstant, repository.FullName()),
				zap.String(logFieldDirectoryConstant, directory),
				zap.Error(removeError),
			)
		}
	}
}

func outcomeOf(operationError error) (Outcome, error) {
	if operationError != nil {
		return OutcomeFailed, operationError
	}
	return OutcomeSucceeded, nil
}

func isCancellation(operationError error) bool {
	return errors.Is(operationError, context.Canceled) || errors.Is(operationError, context.DeadlineExceeded)
}
