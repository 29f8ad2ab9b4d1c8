package steps

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/execshell"
)

// PhaseName identifies the migration phase a step belongs to.
type PhaseName string

const (
	// PhaseShouldMigrate decides whether a repository is in scope.
	PhaseShouldMigrate PhaseName = "should_migrate"
	// PhasePostCheckout prepares a freshly checked out repository.
	PhasePostCheckout PhaseName = "post_checkout"
	// PhaseApply performs the code change.
	PhaseApply PhaseName = "apply"
	// PhasePullRequestMessage produces the pull request body on standard output.
	PhasePullRequestMessage PhaseName = "pr_message"
)

const (
	// StartFailureExitCodeConstant is recorded for steps whose process could not be started.
	StartFailureExitCodeConstant = -1

	executorLoggerMissingMessageConstant = "step executor requires a logger"
	executorRunnerMissingMessageConstant = "step executor requires a shell runner"
	stepSucceededLogMessageConstant      = "Step succeeded"
	stepFailedLogMessageConstant         = "Step failed"
	phaseFieldConstant                   = "phase"
	stepCommandFieldConstant             = "step"
	stepExitCodeFieldConstant            = "exit_code"
	stepStandardErrorFieldConstant       = "stderr"
	workingDirectoryFieldConstant        = "working_directory"
)

// ErrLoggerNotConfigured indicates that the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(executorLoggerMissingMessageConstant)

// ErrShellRunnerNotConfigured indicates that the executor was constructed without a shell runner.
var ErrShellRunnerNotConfigured = errors.New(executorRunnerMissingMessageConstant)

// Step is one shell command of a phase.
type Step struct {
	Phase   PhaseName
	Command string
}

// StepResult records the outcome of an executed step.
type StepResult struct {
	Step           Step
	Succeeded      bool
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// PhaseResult records the outcome of a phase. StepResults holds only the steps that ran,
// the failing one included.
type PhaseResult struct {
	Succeeded   bool
	StepResults []StepResult
}

// FailedStep returns the step that stopped the phase.
func (result PhaseResult) FailedStep() (StepResult, bool) {
	if result.Succeeded || len(result.StepResults) == 0 {
		return StepResult{}, false
	}
	return result.StepResults[len(result.StepResults)-1], true
}

// ShellRunner executes a single shell command line.
type ShellRunner interface {
	ExecuteShell(executionContext context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// PhaseRequest describes one phase execution against a repository working copy.
type PhaseRequest struct {
	Phase            PhaseName
	Commands         []string
	WorkingDirectory string
	Environment      map[string]string
}

// Executor runs phases sequentially through a ShellRunner.
type Executor struct {
	logger *zap.Logger
	runner ShellRunner
}

// NewExecutor constructs an Executor.
func NewExecutor(logger *zap.Logger, runner ShellRunner) (*Executor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrShellRunnerNotConfigured
	}
	return &Executor{logger: logger, runner: runner}, nil
}

// RunPhase executes the phase commands in order and stops at the first failure.
// An empty command list succeeds without running anything.
func (executor *Executor) RunPhase(executionContext context.Context, request PhaseRequest) PhaseResult {
	stepResults := make([]StepResult, 0, len(request.Commands))
	for _, commandLine := range request.Commands {
		stepResult := executor.runStep(executionContext, request, Step{Phase: request.Phase, Command: commandLine})
		stepResults = append(stepResults, stepResult)
		if !stepResult.Succeeded {
			return PhaseResult{Succeeded: false, StepResults: stepResults}
		}
	}
	return PhaseResult{Succeeded: true, StepResults: stepResults}
}

func (executor *Executor) runStep(executionContext context.Context, request PhaseRequest, step Step) StepResult {
	details := execshell.CommandDetails{
		WorkingDirectory:     request.WorkingDirectory,
		EnvironmentVariables: request.Environment,
	}
	executionResult, executionError := executor.runner.ExecuteShell(executionContext, step.Command, details)

	stepResult := StepResult{
		Step:           step,
		Succeeded:      executionError == nil,
		StandardOutput: executionResult.StandardOutput,
		StandardError:  executionResult.StandardError,
		ExitCode:       executionResult.ExitCode,
	}

	if executionError != nil {
		var commandFailure execshell.CommandFailedError
		if errors.As(executionError, &commandFailure) {
			stepResult.StandardOutput = commandFailure.Result.StandardOutput
			stepResult.StandardError = commandFailure.Result.StandardError
			stepResult.ExitCode = commandFailure.Result.ExitCode
		} else {
			stepResult.StandardError = executionError.Error()
			stepResult.ExitCode = StartFailureExitCodeConstant
		}
	}

	logFields := []zap.Field{
		zap.String(phaseFieldConstant, string(step.Phase)),
		zap.String(stepCommandFieldConstant, step.Command),
		zap.String(workingDirectoryFieldConstant, request.WorkingDirectory),
		zap.Int(stepExitCodeFieldConstant, stepResult.ExitCode),
	}
	if stepResult.Succeeded {
		executor.logger.Debug(stepSucceededLogMessageConstant, logFields...)
	} else {
		executor.logger.Warn(stepFailedLogMessageConstant, append(logFields, zap.String(stepStandardErrorFieldConstant, stepResult.StandardError))...)
	}
	return stepResult
}
