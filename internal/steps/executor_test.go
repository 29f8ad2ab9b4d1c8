package steps_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/herd/internal/execshell"
	"github.com/temirov/herd/internal/steps"
)

const (
	testWorkingDirectoryConstant = "/workspace/acme/api"
	testFirstCommandConstant     = "echo first"
	testSecondCommandConstant    = "exit 3"
	testThirdCommandConstant     = "echo never"
)

type scriptedShellRunner struct {
	outcomes         map[string]scriptedOutcome
	executedCommands []string
	receivedDetails  []execshell.CommandDetails
}

type scriptedOutcome struct {
	result execshell.ExecutionResult
	err    error
}

func (runner *scriptedShellRunner) ExecuteShell(_ context.Context, commandLine string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	runner.executedCommands = append(runner.executedCommands, commandLine)
	runner.receivedDetails = append(runner.receivedDetails, details)
	outcome := runner.outcomes[commandLine]
	return outcome.result, outcome.err
}

func TestNewExecutorValidatesDependencies(testInstance *testing.T) {
	_, loggerError := steps.NewExecutor(nil, &scriptedShellRunner{})
	require.ErrorIs(testInstance, loggerError, steps.ErrLoggerNotConfigured)

	_, runnerError := steps.NewExecutor(zap.NewNop(), nil)
	require.ErrorIs(testInstance, runnerError, steps.ErrShellRunnerNotConfigured)
}

func TestRunPhaseSequencing(testInstance *testing.T) {
	failingCommand := execshell.ShellCommand{Name: execshell.CommandShell, Details: execshell.CommandDetails{Arguments: []string{"-c", testSecondCommandConstant}}}
	failingResult := execshell.ExecutionResult{StandardOutput: "partial", StandardError: "boom", ExitCode: 3}

	testCases := []struct {
		name                     string
		commands                 []string
		outcomes                 map[string]scriptedOutcome
		expectSucceeded          bool
		expectedExecutedCommands []string
		expectedLastExitCode     int
		expectedLastStandardErr  string
	}{
		{
			name:                     "empty_phase_is_vacuous_success",
			commands:                 nil,
			expectSucceeded:          true,
			expectedExecutedCommands: nil,
		},
		{
			name:     "all_steps_succeed",
			commands: []string{testFirstCommandConstant, testThirdCommandConstant},
			outcomes: map[string]scriptedOutcome{
				testFirstCommandConstant: {result: execshell.ExecutionResult{StandardOutput: "first\n"}},
				testThirdCommandConstant: {result: execshell.ExecutionResult{StandardOutput: "never\n"}},
			},
			expectSucceeded:          true,
			expectedExecutedCommands: []string{testFirstCommandConstant, testThirdCommandConstant},
		},
		{
			name:     "stops_at_first_failure",
			commands: []string{testFirstCommandConstant, testSecondCommandConstant, testThirdCommandConstant},
			outcomes: map[string]scriptedOutcome{
				testFirstCommandConstant:  {result: execshell.ExecutionResult{StandardOutput: "first\n"}},
				testSecondCommandConstant: {result: failingResult, err: execshell.CommandFailedError{Command: failingCommand, Result: failingResult}},
			},
			expectSucceeded:          false,
			expectedExecutedCommands: []string{testFirstCommandConstant, testSecondCommandConstant},
			expectedLastExitCode:     3,
			expectedLastStandardErr:  "boom",
		},
		{
			name:     "start_failure_records_negative_exit_code",
			commands: []string{testSecondCommandConstant, testThirdCommandConstant},
			outcomes: map[string]scriptedOutcome{
				testSecondCommandConstant: {err: execshell.CommandExecutionError{Command: failingCommand, Cause: errors.New("no such file")}},
			},
			expectSucceeded:          false,
			expectedExecutedCommands: []string{testSecondCommandConstant},
			expectedLastExitCode:     steps.StartFailureExitCodeConstant,
			expectedLastStandardErr:  "sh could not be executed: no such file",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &scriptedShellRunner{outcomes: testCase.outcomes}
			executor, creationError := steps.NewExecutor(zap.NewNop(), runner)
			require.NoError(testInstance, creationError)

			phaseResult := executor.RunPhase(context.Background(), steps.PhaseRequest{
				Phase:            steps.PhaseApply,
				Commands:         testCase.commands,
				WorkingDirectory: testWorkingDirectoryConstant,
			})

			require.Equal(testInstance, testCase.expectSucceeded, phaseResult.Succeeded)
			require.Equal(testInstance, testCase.expectedExecutedCommands, runner.executedCommands)
			require.Len(testInstance, phaseResult.StepResults, len(testCase.expectedExecutedCommands))
			for index, stepResult := range phaseResult.StepResults {
				require.Equal(testInstance, steps.PhaseApply, stepResult.Step.Phase)
				require.Equal(testInstance, testCase.expectedExecutedCommands[index], stepResult.Step.Command)
			}

			failedStep, hasFailedStep := phaseResult.FailedStep()
			require.Equal(testInstance, !testCase.expectSucceeded, hasFailedStep)
			if hasFailedStep {
				require.False(testInstance, failedStep.Succeeded)
				require.Equal(testInstance, testCase.expectedLastExitCode, failedStep.ExitCode)
				require.Equal(testInstance, testCase.expectedLastStandardErr, failedStep.StandardError)
			}
		})
	}
}

func TestRunPhaseLogsFailedStep(testInstance *testing.T) {
	failingResult := execshell.ExecutionResult{StandardError: "boom", ExitCode: 1}
	runner := &scriptedShellRunner{outcomes: map[string]scriptedOutcome{
		testSecondCommandConstant: {result: failingResult, err: execshell.CommandFailedError{Result: failingResult}},
	}}
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	executor, creationError := steps.NewExecutor(zap.New(observerCore), runner)
	require.NoError(testInstance, creationError)

	executor.RunPhase(context.Background(), steps.PhaseRequest{Phase: steps.PhaseShouldMigrate, Commands: []string{testSecondCommandConstant}})

	warnings := observedLogs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(testInstance, warnings, 1)
	require.Equal(testInstance, string(steps.PhaseShouldMigrate), warnings[0].ContextMap()["phase"])
}

func TestRunPhasePassesEnvironmentAndWorkingDirectory(testInstance *testing.T) {
	runner := &scriptedShellRunner{}
	executor, creationError := steps.NewExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, creationError)

	environment := steps.EnvironmentInputs{
		RepositoryDirectory: testWorkingDirectoryConstant,
		DataDirectory:       "/workspace/data/acme/api",
		MigrationDirectory:  "/migrations/upgrade",
		BaseBranch:          "main",
		Extra:               map[string]string{"HERD_GITHUB_REPO_OWNER": "acme", steps.BaseBranchVariableConstant: "ignored"},
	}.Variables()

	executor.RunPhase(context.Background(), steps.PhaseRequest{
		Phase:            steps.PhasePostCheckout,
		Commands:         []string{testFirstCommandConstant},
		WorkingDirectory: testWorkingDirectoryConstant,
		Environment:      environment,
	})

	require.Len(testInstance, runner.receivedDetails, 1)
	receivedDetails := runner.receivedDetails[0]
	require.Equal(testInstance, testWorkingDirectoryConstant, receivedDetails.WorkingDirectory)
	require.Equal(testInstance, "main", receivedDetails.EnvironmentVariables[steps.BaseBranchVariableConstant])
	require.Equal(testInstance, "acme", receivedDetails.EnvironmentVariables["HERD_GITHUB_REPO_OWNER"])
	require.Equal(testInstance, "/migrations/upgrade", receivedDetails.EnvironmentVariables[steps.MigrationDirectoryVariableConstant])
}

func TestRunPhaseWithOperatingSystemShell(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, creationError)
	executor, executorError := steps.NewExecutor(zap.NewNop(), shellExecutor)
	require.NoError(testInstance, executorError)

	phaseResult := executor.RunPhase(context.Background(), steps.PhaseRequest{
		Phase: steps.PhaseApply,
		Commands: []string{
			"printf done > marker.txt",
			"printf \"$HERD_BASE_BRANCH\"",
			"echo failing >&2; exit 7",
			"printf unreachable > unreachable.txt",
		},
		WorkingDirectory: workingDirectory,
		Environment:      steps.EnvironmentInputs{RepositoryDirectory: workingDirectory, BaseBranch: "trunk"}.Variables(),
	})

	require.False(testInstance, phaseResult.Succeeded)
	require.Len(testInstance, phaseResult.StepResults, 3)
	require.Equal(testInstance, "trunk", phaseResult.StepResults[1].StandardOutput)
	require.Equal(testInstance, 7, phaseResult.StepResults[2].ExitCode)
	require.Equal(testInstance, "failing\n", phaseResult.StepResults[2].StandardError)
	require.FileExists(testInstance, filepath.Join(workingDirectory, "marker.txt"))
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, "unreachable.txt"))
}
