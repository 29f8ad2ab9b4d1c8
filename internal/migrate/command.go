package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/herd/internal/migrationspec"
)

const (
	migrationDirectoryArgumentConstant = "<migration-dir>"
	commandUseTemplateConstant         = "%s " + migrationDirectoryArgumentConstant

	checkoutCommandNameConstant           = "checkout"
	applyCommandNameConstant              = "apply"
	commitCommandNameConstant             = "commit"
	pushCommandNameConstant               = "push"
	pullRequestPreviewCommandNameConstant = "pr-preview"
	pullRequestCommandNameConstant        = "pr"
	pullRequestStatusCommandNameConstant  = "pr-status"
	listCommandNameConstant               = "list"
	resetCommandNameConstant              = "reset"

	checkoutShortDescriptionConstant           = "Discover candidate repositories, clone them and enroll the ones that pass the gates"
	applyShortDescriptionConstant              = "Reset each enrolled repository to its default branch and run the apply hook"
	commitShortDescriptionConstant             = "Commit the applied changes on the migration branch"
	pushShortDescriptionConstant               = "Push the migration branch of each enrolled repository"
	pullRequestPreviewShortDescriptionConstant = "Print the pull request each enrolled repository would receive"
	pullRequestShortDescriptionConstant        = "Create or update the migration pull request of each enrolled repository"
	pullRequestStatusShortDescriptionConstant  = "Report the merge readiness of each migration pull request"
	listShortDescriptionConstant               = "List the enrolled repositories"
	resetShortDescriptionConstant              = "Discard uncommitted changes in every enrolled repository"

	repositoriesFlagNameConstant         = "repos"
	repositoriesFlagUsageConstant        = "Restrict the command to the given owner/name repositories"
	skipResetBranchFlagNameConstant      = "skip-reset-branch"
	skipResetBranchFlagUsageConstant     = "Keep the migration branch as is instead of resetting it to the default branch"
	forceResetBranchFlagNameConstant     = "force-reset-branch"
	forceResetBranchFlagUsageConstant    = "Reset the migration branch even when it carries foreign commits or a pull request existed"
	skipResetOnErrorFlagNameConstant     = "skip-reset-on-error"
	skipResetOnErrorFlagUsageConstant    = "Keep the working tree when the apply hook fails"
	forcePushFlagNameConstant            = "force"
	forcePushFlagUsageConstant           = "Force push the migration branch after checking that it is safe to overwrite"
	forceUnsafePushFlagNameConstant      = "force-unsafe"
	forceUnsafePushFlagUsageConstant     = "Force push the migration branch without the safety check"
	migrationLoadErrorTemplateConstant   = "unable to load migration: %w"
	serviceCreationErrorTemplateConstant = "unable to prepare %s: %w"
	commandFailedErrorTemplateConstant   = "%s failed: %w"
)

type commandOperation func(executionContext context.Context, command *cobra.Command, operations Operations) (Summary, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the migration commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ServiceProvider              ServiceProvider
}

// Build constructs every migration command in pipeline order.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	checkoutCommand := builder.newCommand(checkoutCommandNameConstant, checkoutShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.Checkout(executionContext)
		})

	applyCommand := builder.newCommand(applyCommandNameConstant, applyShortDescriptionConstant,
		func(executionContext context.Context, command *cobra.Command, operations Operations) (Summary, error) {
			skipResetBranch, _ := command.Flags().GetBool(skipResetBranchFlagNameConstant)
			forceResetBranch, _ := command.Flags().GetBool(forceResetBranchFlagNameConstant)
			skipResetOnError, _ := command.Flags().GetBool(skipResetOnErrorFlagNameConstant)
			return operations.Apply(executionContext, ApplyOptions{
				SkipResetBranch:  skipResetBranch,
				ForceResetBranch: forceResetBranch,
				SkipResetOnError: skipResetOnError,
			})
		})
	applyCommand.Flags().Bool(skipResetBranchFlagNameConstant, false, skipResetBranchFlagUsageConstant)
	applyCommand.Flags().Bool(forceResetBranchFlagNameConstant, false, forceResetBranchFlagUsageConstant)
	applyCommand.Flags().Bool(skipResetOnErrorFlagNameConstant, false, skipResetOnErrorFlagUsageConstant)

	commitCommand := builder.newCommand(commitCommandNameConstant, commitShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.Commit(executionContext)
		})

	pushCommand := builder.newCommand(pushCommandNameConstant, pushShortDescriptionConstant,
		func(executionContext context.Context, command *cobra.Command, operations Operations) (Summary, error) {
			force, _ := command.Flags().GetBool(forcePushFlagNameConstant)
			forceUnsafe, _ := command.Flags().GetBool(forceUnsafePushFlagNameConstant)
			return operations.Push(executionContext, PushOptions{Force: force, ForceUnsafe: forceUnsafe})
		})
	pushCommand.Flags().Bool(forcePushFlagNameConstant, false, forcePushFlagUsageConstant)
	pushCommand.Flags().Bool(forceUnsafePushFlagNameConstant, false, forceUnsafePushFlagUsageConstant)

	pullRequestPreviewCommand := builder.newCommand(pullRequestPreviewCommandNameConstant, pullRequestPreviewShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.PullRequest(executionContext, PullRequestOptions{Preview: true})
		})

	pullRequestCommand := builder.newCommand(pullRequestCommandNameConstant, pullRequestShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.PullRequest(executionContext, PullRequestOptions{})
		})

	pullRequestStatusCommand := builder.newCommand(pullRequestStatusCommandNameConstant, pullRequestStatusShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.PullRequestStatus(executionContext)
		})

	listCommand := builder.newCommand(listCommandNameConstant, listShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.List(executionContext)
		})

	resetCommand := builder.newCommand(resetCommandNameConstant, resetShortDescriptionConstant,
		func(executionContext context.Context, _ *cobra.Command, operations Operations) (Summary, error) {
			return operations.Reset(executionContext)
		})

	return []*cobra.Command{
		checkoutCommand,
		applyCommand,
		commitCommand,
		pushCommand,
		pullRequestPreviewCommand,
		pullRequestCommand,
		pullRequestStatusCommand,
		listCommand,
		resetCommand,
	}, nil
}

func (builder *CommandBuilder) newCommand(name string, shortDescription string, operation commandOperation) *cobra.Command {
	command := &cobra.Command{
		Use:           fmt.Sprintf(commandUseTemplateConstant, name),
		Short:         shortDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, operation)
		},
	}
	command.Flags().StringSlice(repositoriesFlagNameConstant, nil, repositoriesFlagUsageConstant)
	return command
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, operation commandOperation) error {
	specification, loadError := migrationspec.Load(strings.TrimSpace(arguments[0]))
	if loadError != nil {
		return fmt.Errorf(migrationLoadErrorTemplateConstant, loadError)
	}

	selection, _ := command.Flags().GetStringSlice(repositoriesFlagNameConstant)

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	operations, serviceError := builder.resolveServiceProvider()(executionContext, ServiceRequest{
		Specification:        specification,
		Selection:            selection,
		Configuration:        builder.resolveConfiguration(),
		Logger:               builder.resolveLogger(),
		Output:               command.OutOrStdout(),
		HumanReadableLogging: builder.resolveHumanReadableLogging(),
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, command.Name(), serviceError)
	}

	if _, operationError := operation(executionContext, command, operations); operationError != nil {
		return fmt.Errorf(commandFailedErrorTemplateConstant, command.Name(), operationError)
	}
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveHumanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveServiceProvider() ServiceProvider {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider
	}
	return NewGitHubService
}
