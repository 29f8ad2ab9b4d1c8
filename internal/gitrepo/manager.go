package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/temirov/herd/internal/execshell"
)

const (
	originRemoteNameConstant              = "origin"
	remoteBranchReferenceTemplateConstant = "refs/remotes/origin/%s"
	originBranchTemplateConstant          = "origin/%s"
	revisionRangeTemplateConstant         = "%s..%s"
	headReferenceConstant                 = "HEAD"
	commitRecordSeparatorConstant         = "\x00"
	commitFieldSeparatorConstant          = "\x1f"
	malformedCommitRecordTemplateConstant = "unexpected git log record %q"
	terminalPromptVariableConstant        = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant   = "0"
	missingReferenceExitCodeConstant      = 1
	executorMissingMessageConstant        = "repository manager requires a git executor"
	branchSwitchErrorTemplateConstant     = "switch to branch %s: %w"
	headResolutionErrorTemplateConstant   = "resolve HEAD in %s: %w"
	cloneDirectoryErrorTemplateConstant   = "prepare clone directory %s: %w"
	cloneDirectoryPermissionsConstant     = 0o755
)

const (
	gitCloneCommandConstant       = "clone"
	gitFetchCommandConstant       = "fetch"
	gitCheckoutCommandConstant    = "checkout"
	gitResetCommandConstant       = "reset"
	gitCleanCommandConstant       = "clean"
	gitAddCommandConstant         = "add"
	gitCommitCommandConstant      = "commit"
	gitPushCommandConstant        = "push"
	gitRevParseCommandConstant    = "rev-parse"
	gitLogCommandConstant         = "log"
	gitDepthFlagConstant          = "--depth"
	gitShallowDepthValueConstant  = "1"
	gitNoSingleBranchFlagConstant = "--no-single-branch"
	gitPruneFlagConstant          = "--prune"
	gitUnshallowFlagConstant      = "--unshallow"
	gitTrackFlagConstant          = "--track"
	gitCreateBranchFlagConstant   = "-b"
	gitHardFlagConstant           = "--hard"
	gitCleanForceFlagsConstant    = "-fd"
	gitAllFlagConstant            = "--all"
	gitMessageFlagConstant        = "-m"
	gitSetUpstreamFlagConstant    = "--set-upstream"
	gitForceFlagConstant          = "--force"
	gitVerifyFlagConstant         = "--verify"
	gitQuietFlagConstant          = "--quiet"
	gitNullSeparatedFlagConstant  = "-z"
	gitMessageBodyFormatConstant  = "--format=%H%x1f%B"
)

// ErrGitExecutorNotConfigured indicates that the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs git operations on local working copies.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsRepository reports whether directory holds a readable git working copy.
func IsRepository(directory string) bool {
	_, openError := git.PlainOpen(directory)
	return openError == nil
}

// IsShallow reports whether directory is a working copy with truncated history.
func IsShallow(directory string) bool {
	repository, openError := git.PlainOpen(directory)
	if openError != nil {
		return false
	}
	shallowCommits, shallowError := repository.Storer.Shallow()
	return shallowError == nil && len(shallowCommits) > 0
}

// HeadRevision returns the commit hash HEAD points at.
func HeadRevision(directory string) (string, error) {
	repository, openError := git.PlainOpen(directory)
	if openError != nil {
		return "", fmt.Errorf(headResolutionErrorTemplateConstant, directory, openError)
	}
	headReference, headError := repository.Head()
	if headError != nil {
		return "", fmt.Errorf(headResolutionErrorTemplateConstant, directory, headError)
	}
	return headReference.Hash().String(), nil
}

// CloneShallow clones remoteURL into directory with a depth of one while keeping every remote branch.
func (manager *RepositoryManager) CloneShallow(executionContext context.Context, remoteURL string, directory string) error {
	parentDirectory := filepath.Dir(directory)
	if mkdirError := os.MkdirAll(parentDirectory, cloneDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(cloneDirectoryErrorTemplateConstant, parentDirectory, mkdirError)
	}
	return manager.run(executionContext, parentDirectory, true,
		gitCloneCommandConstant, gitDepthFlagConstant, gitShallowDepthValueConstant, gitNoSingleBranchFlagConstant, remoteURL, directory)
}

// Fetch updates remote-tracking references from origin.
func (manager *RepositoryManager) Fetch(executionContext context.Context, directory string) error {
	return manager.run(executionContext, directory, true, gitFetchCommandConstant, originRemoteNameConstant)
}

// FetchWithPrune updates remote-tracking references and drops those deleted on origin. A shallow
// working copy is deepened to full history so commit ranges between remote branches are complete.
func (manager *RepositoryManager) FetchWithPrune(executionContext context.Context, directory string) error {
	arguments := []string{gitFetchCommandConstant, gitPruneFlagConstant}
	if IsShallow(directory) {
		arguments = append(arguments, gitUnshallowFlagConstant)
	}
	return manager.run(executionContext, directory, true, append(arguments, originRemoteNameConstant)...)
}

// SwitchToBranch checks out branch, preferring to track an existing remote branch, then creating
// it fresh, then switching to an existing local branch.
func (manager *RepositoryManager) SwitchToBranch(executionContext context.Context, directory string, branch string) error {
	attempts := [][]string{
		{gitCheckoutCommandConstant, gitTrackFlagConstant, fmt.Sprintf(originBranchTemplateConstant, branch)},
		{gitCheckoutCommandConstant, gitCreateBranchFlagConstant, branch},
		{gitCheckoutCommandConstant, branch},
	}
	var lastError error
	for _, arguments := range attempts {
		lastError = manager.run(executionContext, directory, false, arguments...)
		if lastError == nil {
			return nil
		}
		var commandFailure execshell.CommandFailedError
		if !errors.As(lastError, &commandFailure) {
			break
		}
	}
	return fmt.Errorf(branchSwitchErrorTemplateConstant, branch, lastError)
}

// DiscardChanges resets tracked files to HEAD and removes untracked files and directories.
func (manager *RepositoryManager) DiscardChanges(executionContext context.Context, directory string) error {
	if resetError := manager.run(executionContext, directory, false, gitResetCommandConstant, gitHardFlagConstant); resetError != nil {
		return resetError
	}
	return manager.run(executionContext, directory, false, gitCleanCommandConstant, gitCleanForceFlagsConstant)
}

// ResetHardToRemoteBranch points the current branch at origin/<branch>, discarding local commits.
func (manager *RepositoryManager) ResetHardToRemoteBranch(executionContext context.Context, directory string, branch string) error {
	return manager.run(executionContext, directory, false, gitResetCommandConstant, gitHardFlagConstant, fmt.Sprintf(originBranchTemplateConstant, branch))
}

// CommitAll stages every change and records a single commit.
func (manager *RepositoryManager) CommitAll(executionContext context.Context, directory string, message string) error {
	if addError := manager.run(executionContext, directory, false, gitAddCommandConstant, gitAllFlagConstant); addError != nil {
		return addError
	}
	return manager.run(executionContext, directory, false, gitCommitCommandConstant, gitMessageFlagConstant, message)
}

// Push publishes branch to origin and records it as upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, directory string, branch string, force bool) error {
	arguments := []string{gitPushCommandConstant, gitSetUpstreamFlagConstant, originRemoteNameConstant, branch}
	if force {
		arguments = append(arguments, gitForceFlagConstant)
	}
	return manager.run(executionContext, directory, true, arguments...)
}

// RemoteBranchExists reports whether origin/<branch> is known locally. Fetch first for a fresh answer.
func (manager *RepositoryManager) RemoteBranchExists(executionContext context.Context, directory string, branch string) (bool, error) {
	verifyError := manager.run(executionContext, directory, false,
		gitRevParseCommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, fmt.Sprintf(remoteBranchReferenceTemplateConstant, branch))
	if verifyError == nil {
		return true, nil
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(verifyError, &commandFailure) && commandFailure.Result.ExitCode == missingReferenceExitCodeConstant {
		return false, nil
	}
	return false, verifyError
}

// CommitMessagesAheadOf returns the full messages of commits reachable from origin/<branch> but not
// from origin/<baseBranch>, newest first, one entry per commit. A commit with an empty message yields
// an empty entry. An empty baseBranch compares against HEAD.
func (manager *RepositoryManager) CommitMessagesAheadOf(executionContext context.Context, directory string, baseBranch string, branch string) ([]string, error) {
	baseReference := headReferenceConstant
	if len(strings.TrimSpace(baseBranch)) > 0 {
		baseReference = fmt.Sprintf(remoteBranchReferenceTemplateConstant, baseBranch)
	}
	revisionRange := fmt.Sprintf(revisionRangeTemplateConstant, baseReference, fmt.Sprintf(remoteBranchReferenceTemplateConstant, branch))
	executionResult, logError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogCommandConstant, gitNullSeparatedFlagConstant, gitMessageBodyFormatConstant, revisionRange},
		WorkingDirectory: directory,
	})
	if logError != nil {
		return nil, logError
	}

	messages := []string{}
	for _, record := range strings.Split(executionResult.StandardOutput, commitRecordSeparatorConstant) {
		trimmedRecord := strings.TrimLeft(record, "\n")
		if len(strings.TrimSpace(trimmedRecord)) == 0 {
			continue
		}
		commitHash, message, separated := strings.Cut(trimmedRecord, commitFieldSeparatorConstant)
		if !separated || len(strings.TrimSpace(commitHash)) == 0 {
			return nil, fmt.Errorf(malformedCommitRecordTemplateConstant, trimmedRecord)
		}
		messages = append(messages, strings.TrimSpace(message))
	}
	return messages, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, directory string, network bool, arguments ...string) error {
	details := execshell.CommandDetails{Arguments: arguments, WorkingDirectory: directory}
	if network {
		details.EnvironmentVariables = map[string]string{terminalPromptVariableConstant: terminalPromptDisabledValueConstant}
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, details)
	return executionError
}
