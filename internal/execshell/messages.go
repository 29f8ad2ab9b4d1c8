package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	allRemotesLabelConstant                 = "all remotes"
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant    = "clone"
	gitFetchSubcommandNameConstant    = "fetch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitResetSubcommandNameConstant    = "reset"
	gitCleanSubcommandNameConstant    = "clean"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitPushSubcommandNameConstant     = "push"
	gitMessageFlagConstant            = "-m"
	gitCreateBranchFlagConstant       = "-b"
	gitTrackFlagConstant              = "--track"
)

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandTemplates = map[string]stageTemplates{
	gitCloneSubcommandNameConstant: {
		start:            "Cloning %s into %s",
		success:          "Cloned %s into %s",
		failure:          "Failed to clone %s into %s (exit code %d%s)",
		executionFailure: "Unable to clone %s into %s: %s",
	},
	gitFetchSubcommandNameConstant: {
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s (exit code %d%s)",
		executionFailure: "Unable to fetch from %s in %s: %s",
	},
	gitCheckoutSubcommandNameConstant: {
		start:            "Switching to branch %s in %s",
		success:          "Switched to branch %s in %s",
		failure:          "Failed to switch to branch %s in %s (exit code %d%s)",
		executionFailure: "Unable to switch to branch %s in %s: %s",
	},
	gitResetSubcommandNameConstant: {
		start:            "Resetting working tree to %s in %s",
		success:          "Reset working tree to %s in %s",
		failure:          "Failed to reset working tree to %s in %s (exit code %d%s)",
		executionFailure: "Unable to reset working tree to %s in %s: %s",
	},
	gitCleanSubcommandNameConstant: {
		start:            "Removing untracked files (%s) in %s",
		success:          "Removed untracked files (%s) in %s",
		failure:          "Failed to remove untracked files (%s) in %s (exit code %d%s)",
		executionFailure: "Unable to remove untracked files (%s) in %s: %s",
	},
	gitAddSubcommandNameConstant: {
		start:            "Staging %s in %s",
		success:          "Staged %s in %s",
		failure:          "Failed to stage %s in %s (exit code %d%s)",
		executionFailure: "Unable to stage %s in %s: %s",
	},
	gitCommitSubcommandNameConstant: {
		start:            "Committing %q in %s",
		success:          "Committed %q in %s",
		failure:          "Failed to commit %q in %s (exit code %d%s)",
		executionFailure: "Unable to commit %q in %s: %s",
	},
	gitPushSubcommandNameConstant: {
		start:            "Pushing %s from %s",
		success:          "Pushed %s from %s",
		failure:          "Failed to push %s from %s (exit code %d%s)",
		executionFailure: "Unable to push %s from %s: %s",
	},
}

var shellStepTemplates = stageTemplates{
	start:            "Running step %q in %s",
	success:          "Step %q succeeded in %s",
	failure:          "Step %q failed in %s (exit code %d%s)",
	executionFailure: "Unable to run step %q in %s: %s",
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandShell:
		return formatter.describeShellMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(arguments[0])
	templates, known := gitSubcommandTemplates[subcommand]
	if !known {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	subject := formatter.describeGitSubject(subcommand, arguments[1:])
	if subcommand == gitCloneSubcommandNameConstant {
		workingDirectory = formatter.ensureValue(formatter.lastNonFlagArgument(arguments[1:]))
	}
	return formatter.applyTemplates(templates, subject, workingDirectory, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeShellMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 || arguments[0] != shellInlineScriptFlagConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	return formatter.applyTemplates(shellStepTemplates, arguments[1], formatter.describeWorkingDirectory(command), result, failure, stage)
}

func (formatter CommandMessageFormatter) applyTemplates(templates stageTemplates, subject string, location string, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject, location)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject, location)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, location, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, location, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitSubject(subcommand string, arguments []string) string {
	switch subcommand {
	case gitCloneSubcommandNameConstant:
		values := formatter.nonFlagArguments(arguments)
		if len(values) < 2 {
			return fallbackUnknownValueLabelConstant
		}
		return values[len(values)-2]
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.firstNonFlagArgument(arguments)
		if len(remoteName) == 0 {
			return allRemotesLabelConstant
		}
		return remoteName
	case gitCheckoutSubcommandNameConstant:
		if branch := findFlagValue(arguments, gitCreateBranchFlagConstant); len(branch) > 0 {
			return branch
		}
		if tracked := findFlagValue(arguments, gitTrackFlagConstant); len(tracked) > 0 {
			return tracked
		}
		return formatter.ensureValue(formatter.firstNonFlagArgument(arguments))
	case gitResetSubcommandNameConstant:
		target := formatter.firstNonFlagArgument(arguments)
		if len(target) == 0 {
			return "HEAD"
		}
		return target
	case gitCommitSubcommandNameConstant:
		return formatter.ensureValue(findFlagValue(arguments, gitMessageFlagConstant))
	case gitPushSubcommandNameConstant:
		return formatter.ensureValue(strings.Join(formatter.nonFlagArguments(arguments), commandArgumentsJoinSeparatorConstant))
	default:
		return formatter.ensureValue(strings.Join(arguments, commandArgumentsJoinSeparatorConstant))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	workingDirectorySuffix := emptyStringConstant
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func (formatter CommandMessageFormatter) nonFlagArguments(arguments []string) []string {
	values := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		values = append(values, trimmed)
	}
	return values
}

func (formatter CommandMessageFormatter) firstNonFlagArgument(arguments []string) string {
	values := formatter.nonFlagArguments(arguments)
	if len(values) == 0 {
		return emptyStringConstant
	}
	return values[0]
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	values := formatter.nonFlagArguments(arguments)
	if len(values) == 0 {
		return emptyStringConstant
	}
	return values[len(values)-1]
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
