package githubcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/herd/internal/execshell"
)

const (
	authSubcommandConstant                  = "auth"
	tokenSubcommandConstant                 = "token"
	hostnameFlagConstant                    = "--hostname"
	hostnameFieldNameConstant               = "hostname"
	invalidHostnameMessageConstant          = "must not contain whitespace"
	emptyTokenMessageConstant               = "gh returned an empty token"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	authTokenOperationNameConstant          = OperationName("AuthToken")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrEmptyToken indicates gh succeeded without printing a token.
	ErrEmptyToken = errors.New(emptyTokenMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// AuthToken asks gh for the token of the logged-in account. An empty hostname uses gh's default host.
func (client *Client) AuthToken(executionContext context.Context, hostname string) (string, error) {
	trimmedHostname := strings.TrimSpace(hostname)
	if strings.ContainsAny(trimmedHostname, " \t\n") {
		return "", InvalidInputError{FieldName: hostnameFieldNameConstant, Message: invalidHostnameMessageConstant}
	}

	arguments := []string{authSubcommandConstant, tokenSubcommandConstant}
	if len(trimmedHostname) > 0 {
		arguments = append(arguments, hostnameFlagConstant, trimmedHostname)
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return "", OperationError{Operation: authTokenOperationNameConstant, Cause: executionError}
	}

	token := strings.TrimSpace(executionResult.StandardOutput)
	if len(token) == 0 {
		return "", OperationError{Operation: authTokenOperationNameConstant, Cause: ErrEmptyToken}
	}
	return token, nil
}
