package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/steps"
)

const (
	commandApplyConstant  = "apply"
	commandCommitConstant = "commit"
	commandPushConstant   = "push"
	commandResetConstant  = "reset"
	commandListConstant   = "list"

	// ForceResetBranchFlagConstant overrides an unsafe branch reset during apply.
	ForceResetBranchFlagConstant = "--force-reset-branch"
	// ForceUnsafeFlagConstant overrides an unsafe force push.
	ForceUnsafeFlagConstant = "--force-unsafe"

	resetOperationConstant              = "reset the migration branch of"
	forcePushOperationConstant          = "force push the migration branch of"
	resetChangesErrorTemplateConstant   = "discard changes in %s: %w"
	resetBranchErrorTemplateConstant    = "reset %s to its default branch: %w"
	commitErrorTemplateConstant         = "commit changes in %s: %w"
	pushErrorTemplateConstant           = "push %s: %w"
	resetAfterFailureMessageConstant    = "Unable to discard changes after failed apply"
	listedRepositoryTemplateConstant    = "%s\n"
	enrolledRepositoriesMessageConstant = "Listed enrolled repositories"
)

// ApplyOptions controls the branch handling of the apply command.
type ApplyOptions struct {
	SkipResetBranch  bool
	ForceResetBranch bool
	SkipResetOnError bool
}

// PushOptions controls force pushing.
type PushOptions struct {
	Force       bool
	ForceUnsafe bool
}

// Apply discards local changes, resets the migration branch to the default branch when the safety
// classifier allows it, and runs the apply steps. A failed apply discards its partial changes unless
// SkipResetOnError is set.
func (service *Service) Apply(executionContext context.Context, options ApplyOptions) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandApplyConstant}, enrolledError
	}
	return service.forEachRepository(executionContext, commandApplyConstant, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			return outcomeOf(service.applyRepository(repositoryContext, repository, options))
		},
	)
}

func (service *Service) applyRepository(executionContext context.Context, repository adapter.Repository, options ApplyOptions) error {
	if resetError := service.adapter.ResetChangedFiles(executionContext, repository); resetError != nil {
		return fmt.Errorf(resetChangesErrorTemplateConstant, repository.FullName(), resetError)
	}

	if !options.SkipResetBranch {
		status, classifyError := service.classifier.Classify(executionContext, repository)
		if classifyError != nil {
			return classifyError
		}
		if !status.Safe() && !options.ForceResetBranch {
			return UnsafeOperationError{
				Operation:    resetOperationConstant,
				Repository:   repository,
				Status:       status,
				OverrideFlag: ForceResetBranchFlagConstant,
			}
		}
		if resetError := service.adapter.ResetToDefaultBranch(executionContext, repository); resetError != nil {
			return fmt.Errorf(resetBranchErrorTemplateConstant, repository.FullName(), resetError)
		}
	}

	_, phaseError := service.runPhase(executionContext, repository, steps.PhaseApply, service.context.Specification.Hooks.Apply)
	if phaseError == nil {
		return nil
	}
	if !options.SkipResetOnError {
		if resetError := service.adapter.ResetChangedFiles(executionContext, repository); resetError != nil {
			service.logger.Warn(resetAfterFailureMessageConstant,
				zap.String(logFieldRepositoryConstant, repository.FullName()),
				zap.Error(resetError),
			)
		}
	}
	return phaseError
}

// Commit stages every change and commits it with the migration commit message.
func (service *Service) Commit(executionContext context.Context) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandCommitConstant}, enrolledError
	}
	commitMessage := service.context.CommitMessage()
	return service.forEachRepository(executionContext, commandCommitConstant, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			if commitError := service.adapter.CommitAll(repositoryContext, repository, commitMessage); commitError != nil {
				return OutcomeFailed, fmt.Errorf(commitErrorTemplateConstant, repository.FullName(), commitError)
			}
			return OutcomeSucceeded, nil
		},
	)
}

// Push publishes the migration branch. A force push is classified first and refused unless the
// branch is safe or ForceUnsafe is set; ForceUnsafe implies Force.
func (service *Service) Push(executionContext context.Context, options PushOptions) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandPushConstant}, enrolledError
	}
	return service.forEachRepository(executionContext, commandPushConstant, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			return outcomeOf(service.pushRepository(repositoryContext, repository, options))
		},
	)
}

func (service *Service) pushRepository(executionContext context.Context, repository adapter.Repository, options PushOptions) error {
	force := options.Force || options.ForceUnsafe
	if force && !options.ForceUnsafe {
		status, classifyError := service.classifier.Classify(executionContext, repository)
		if classifyError != nil {
			return classifyError
		}
		if !status.Safe() {
			return UnsafeOperationError{
				Operation:    forcePushOperationConstant,
				Repository:   repository,
				Status:       status,
				OverrideFlag: ForceUnsafeFlagConstant,
			}
		}
	}
	if pushError := service.adapter.PushBranch(executionContext, repository, force); pushError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, repository.FullName(), pushError)
	}
	return nil
}

// Reset discards uncommitted changes and untracked files in every enrolled repository.
func (service *Service) Reset(executionContext context.Context) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandResetConstant}, enrolledError
	}
	return service.forEachRepository(executionContext, commandResetConstant, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			if resetError := service.adapter.ResetChangedFiles(repositoryContext, repository); resetError != nil {
				return OutcomeFailed, fmt.Errorf(resetChangesErrorTemplateConstant, repository.FullName(), resetError)
			}
			return OutcomeSucceeded, nil
		},
	)
}

// List prints the enrolled repositories, one per line.
func (service *Service) List(_ context.Context) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandListConstant}, enrolledError
	}
	for _, repository := range repositories {
		fmt.Fprintf(service.output, listedRepositoryTemplateConstant, service.adapter.FormatRepository(repository))
	}
	service.logger.Debug(enrolledRepositoriesMessageConstant, zap.Int(logFieldEnrolledCountConstant, len(repositories)))
	return Summary{Command: commandListConstant, Succeeded: len(repositories)}, nil
}
