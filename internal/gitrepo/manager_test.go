package gitrepo_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/herd/internal/execshell"
	"github.com/temirov/herd/internal/gitrepo"
)

type scriptedGitExecutor struct {
	results  []scriptedGitResult
	recorded []execshell.CommandDetails
}

type scriptedGitResult struct {
	result execshell.ExecutionResult
	err    error
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recorded = append(executor.recorded, details)
	if len(executor.results) == 0 {
		return execshell.ExecutionResult{}, nil
	}
	next := executor.results[0]
	executor.results = executor.results[1:]
	return next.result, next.err
}

func failedGit(exitCode int) scriptedGitResult {
	result := execshell.ExecutionResult{ExitCode: exitCode}
	return scriptedGitResult{result: result, err: execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGit}, Result: result}}
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestSwitchToBranchFallsBackThroughCheckoutStrategies(testInstance *testing.T) {
	testCases := []struct {
		name              string
		results           []scriptedGitResult
		expectError       bool
		expectedArguments [][]string
	}{
		{
			name:              "tracks_remote_branch",
			expectedArguments: [][]string{{"checkout", "--track", "origin/upgrade"}},
		},
		{
			name:    "creates_fresh_branch",
			results: []scriptedGitResult{failedGit(128)},
			expectedArguments: [][]string{
				{"checkout", "--track", "origin/upgrade"},
				{"checkout", "-b", "upgrade"},
			},
		},
		{
			name:    "switches_to_existing_local_branch",
			results: []scriptedGitResult{failedGit(128), failedGit(128)},
			expectedArguments: [][]string{
				{"checkout", "--track", "origin/upgrade"},
				{"checkout", "-b", "upgrade"},
				{"checkout", "upgrade"},
			},
		},
		{
			name:        "all_strategies_fail",
			results:     []scriptedGitResult{failedGit(128), failedGit(128), failedGit(1)},
			expectError: true,
			expectedArguments: [][]string{
				{"checkout", "--track", "origin/upgrade"},
				{"checkout", "-b", "upgrade"},
				{"checkout", "upgrade"},
			},
		},
		{
			name:              "execution_error_stops_immediately",
			results:           []scriptedGitResult{{err: execshell.CommandExecutionError{Cause: errors.New("git missing")}}},
			expectError:       true,
			expectedArguments: [][]string{{"checkout", "--track", "origin/upgrade"}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{results: testCase.results}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			switchError := manager.SwitchToBranch(context.Background(), "/workspace/api", "upgrade")
			if testCase.expectError {
				require.Error(testInstance, switchError)
			} else {
				require.NoError(testInstance, switchError)
			}

			recordedArguments := make([][]string, 0, len(executor.recorded))
			for _, details := range executor.recorded {
				require.Equal(testInstance, "/workspace/api", details.WorkingDirectory)
				recordedArguments = append(recordedArguments, details.Arguments)
			}
			require.Equal(testInstance, testCase.expectedArguments, recordedArguments)
		})
	}
}

func TestRemoteBranchExistsInterpretsExitCodes(testInstance *testing.T) {
	testCases := []struct {
		name         string
		results      []scriptedGitResult
		expectExists bool
		expectError  bool
	}{
		{name: "present", expectExists: true},
		{name: "absent", results: []scriptedGitResult{failedGit(1)}, expectExists: false},
		{name: "unexpected_failure", results: []scriptedGitResult{failedGit(128)}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{results: testCase.results}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			exists, existsError := manager.RemoteBranchExists(context.Background(), "/workspace/api", "upgrade")
			if testCase.expectError {
				require.Error(testInstance, existsError)
				return
			}
			require.NoError(testInstance, existsError)
			require.Equal(testInstance, testCase.expectExists, exists)
			require.Equal(testInstance, []string{"rev-parse", "--verify", "--quiet", "refs/remotes/origin/upgrade"}, executor.recorded[0].Arguments)
		})
	}
}

func TestCommitMessagesAheadOfSplitsRecords(testInstance *testing.T) {
	testCases := []struct {
		name             string
		standardOutput   string
		expectedMessages []string
		expectError      bool
	}{
		{
			name:             "multi_line_and_single_line",
			standardOutput:   "aaa\x1f[herd] Upgrade\n\nbody\n\x00bbb\x1ffix typo\n\x00",
			expectedMessages: []string{"[herd] Upgrade\n\nbody", "fix typo"},
		},
		{
			name:             "empty_message_kept",
			standardOutput:   "aaa\x1f[herd] Upgrade\n\x00bbb\x1f\n\x00",
			expectedMessages: []string{"[herd] Upgrade", ""},
		},
		{
			name:             "no_commits",
			standardOutput:   "",
			expectedMessages: []string{},
		},
		{
			name:           "record_without_hash",
			standardOutput: "fix typo\n\x00",
			expectError:    true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{results: []scriptedGitResult{{
				result: execshell.ExecutionResult{StandardOutput: testCase.standardOutput},
			}}}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			messages, logError := manager.CommitMessagesAheadOf(context.Background(), "/workspace/api", "main", "upgrade")
			require.Equal(testInstance, []string{"log", "-z", "--format=%H%x1f%B", "refs/remotes/origin/main..refs/remotes/origin/upgrade"}, executor.recorded[0].Arguments)
			if testCase.expectError {
				require.Error(testInstance, logError)
				return
			}
			require.NoError(testInstance, logError)
			require.Equal(testInstance, testCase.expectedMessages, messages)
		})
	}
}

func TestPushDisablesTerminalPrompt(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, manager.Push(context.Background(), "/workspace/api", "upgrade", true))
	require.Equal(testInstance, []string{"push", "--set-upstream", "origin", "upgrade", "--force"}, executor.recorded[0].Arguments)
	require.Equal(testInstance, "0", executor.recorded[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
}

func TestRepositoryManagerAgainstLocalRemote(testInstance *testing.T) {
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git is not installed")
	}
	testInstance.Setenv("GIT_AUTHOR_NAME", "herd")
	testInstance.Setenv("GIT_AUTHOR_EMAIL", "herd@example.com")
	testInstance.Setenv("GIT_COMMITTER_NAME", "herd")
	testInstance.Setenv("GIT_COMMITTER_EMAIL", "herd@example.com")

	workspace := testInstance.TempDir()
	seedDirectory := filepath.Join(workspace, "seed")
	remoteDirectory := filepath.Join(workspace, "remote.git")
	runGit(testInstance, workspace, "init", "--initial-branch=main", seedDirectory)
	require.NoError(testInstance, os.WriteFile(filepath.Join(seedDirectory, "README.md"), []byte("seed\n"), 0o644))
	runGit(testInstance, seedDirectory, "add", "--all")
	runGit(testInstance, seedDirectory, "commit", "-m", "initial")
	runGit(testInstance, workspace, "clone", "--bare", seedDirectory, remoteDirectory)

	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, executorError)
	manager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	require.NoError(testInstance, managerError)

	checkoutDirectory := filepath.Join(workspace, "repos", "acme", "api")
	require.False(testInstance, gitrepo.IsRepository(checkoutDirectory))
	require.NoError(testInstance, manager.CloneShallow(context.Background(), "file://"+remoteDirectory, checkoutDirectory))
	require.True(testInstance, gitrepo.IsRepository(checkoutDirectory))
	require.True(testInstance, gitrepo.IsShallow(checkoutDirectory))

	require.NoError(testInstance, manager.SwitchToBranch(context.Background(), checkoutDirectory, "upgrade"))
	require.NoError(testInstance, os.WriteFile(filepath.Join(checkoutDirectory, "CHANGE.md"), []byte("change\n"), 0o644))
	require.NoError(testInstance, manager.CommitAll(context.Background(), checkoutDirectory, "[herd] Upgrade"))
	runGit(testInstance, checkoutDirectory, "commit", "--allow-empty", "--allow-empty-message", "-m", "")

	exists, existsError := manager.RemoteBranchExists(context.Background(), checkoutDirectory, "upgrade")
	require.NoError(testInstance, existsError)
	require.False(testInstance, exists)

	require.NoError(testInstance, manager.Push(context.Background(), checkoutDirectory, "upgrade", false))
	require.NoError(testInstance, manager.FetchWithPrune(context.Background(), checkoutDirectory))
	require.False(testInstance, gitrepo.IsShallow(checkoutDirectory))

	exists, existsError = manager.RemoteBranchExists(context.Background(), checkoutDirectory, "upgrade")
	require.NoError(testInstance, existsError)
	require.True(testInstance, exists)

	messages, logError := manager.CommitMessagesAheadOf(context.Background(), checkoutDirectory, "main", "upgrade")
	require.NoError(testInstance, logError)
	require.Equal(testInstance, []string{"", "[herd] Upgrade"}, messages)

	revision, revisionError := gitrepo.HeadRevision(checkoutDirectory)
	require.NoError(testInstance, revisionError)
	require.Len(testInstance, revision, 40)

	require.NoError(testInstance, os.WriteFile(filepath.Join(checkoutDirectory, "scratch.txt"), []byte("x"), 0o644))
	require.NoError(testInstance, manager.DiscardChanges(context.Background(), checkoutDirectory))
	require.NoFileExists(testInstance, filepath.Join(checkoutDirectory, "scratch.txt"))

	require.NoError(testInstance, manager.ResetHardToRemoteBranch(context.Background(), checkoutDirectory, "main"))
	require.NoFileExists(testInstance, filepath.Join(checkoutDirectory, "CHANGE.md"))
}

func runGit(testInstance *testing.T, directory string, arguments ...string) {
	testInstance.Helper()
	command := exec.Command("git", arguments...)
	command.Dir = directory
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
}
