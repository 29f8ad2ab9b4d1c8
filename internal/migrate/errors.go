package migrate

import (
	"fmt"
	"strings"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/steps"
)

const (
	stepFailureErrorTemplateConstant  = "%s step %q failed in %s with exit code %d"
	stepFailureStderrTemplateConstant = ": %s"
	checkoutErrorTemplateConstant     = "checkout of %s failed: %v"
)

// StepFailureError reports a migration step that exited non-zero. It stops only the current phase of
// the current repository.
type StepFailureError struct {
	Repository adapter.Repository
	Phase      steps.PhaseName
	Result     steps.StepResult
}

// Error describes the failed step with its trimmed standard error.
func (failure StepFailureError) Error() string {
	message := fmt.Sprintf(stepFailureErrorTemplateConstant, failure.Phase, failure.Result.Step.Command, failure.Repository.FullName(), failure.Result.ExitCode)
	if trimmedStandardError := strings.TrimSpace(failure.Result.StandardError); len(trimmedStandardError) > 0 {
		message += fmt.Sprintf(stepFailureStderrTemplateConstant, trimmedStandardError)
	}
	return message
}

// CheckoutError reports a repository whose clone, fetch or branch switch could not complete.
type CheckoutError struct {
	Repository adapter.Repository
	Cause      error
}

// Error describes the checkout failure.
func (checkoutError CheckoutError) Error() string {
	return fmt.Sprintf(checkoutErrorTemplateConstant, checkoutError.Repository.FullName(), checkoutError.Cause)
}

// Unwrap exposes the underlying cause.
func (checkoutError CheckoutError) Unwrap() error {
	return checkoutError.Cause
}
