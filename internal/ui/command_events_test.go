package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/herd/internal/execshell"
	"github.com/temirov/herd/internal/ui"
)

const (
	testCommandWorkingDirectoryConstant = "/tmp/project"
	testStepCommandLineConstant         = "make upgrade"
	testExecutionFailureReasonConstant  = "execution failed"
	testStandardErrorMessageConstant    = "fatal: remote error"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	stepCommand := execshell.ShellCommand{
		Name: execshell.CommandShell,
		Details: execshell.CommandDetails{
			Arguments:        []string{"-c", testStepCommandLineConstant},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}
	gitCommand := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"fetch", "--prune", "origin"},
			WorkingDirectory: testCommandWorkingDirectoryConstant,
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "step_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(stepCommand)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Running step \"make upgrade\" in /tmp/project",
		},
		{
			name: "step_completed_success",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(stepCommand, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Step \"make upgrade\" succeeded in /tmp/project",
		},
		{
			name: "git_started_is_debug",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(gitCommand)
			},
			expectedLevel:   zapcore.DebugLevel,
			expectedMessage: "Fetching from origin in /tmp/project",
		},
		{
			name: "git_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(gitCommand, execshell.ExecutionResult{ExitCode: 1, StandardError: testStandardErrorMessageConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: "Failed to fetch from origin in /tmp/project (exit code 1: " + testStandardErrorMessageConstant + ")",
		},
		{
			name: "execution_failed",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(stepCommand, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: "Unable to run step \"make upgrade\" in /tmp/project: " + testExecutionFailureReasonConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}

func TestConsoleCommandEventLoggerToleratesNilReceiver(testInstance *testing.T) {
	var eventLogger *ui.ConsoleCommandEventLogger
	require.NotPanics(testInstance, func() {
		eventLogger.CommandStarted(execshell.ShellCommand{Name: execshell.CommandGit})
	})
}
