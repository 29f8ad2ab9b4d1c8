package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/steps"
)

const (
	commandPullRequestConstant        = "pr"
	commandPullRequestPreviewConstant = "pr-preview"
	commandPullRequestStatusConstant  = "pr-status"

	// PullRequestTrailerConstant is appended to every pull request body.
	PullRequestTrailerConstant = "---\n_This pull request was generated by herd._"

	pullRequestBodySeparatorConstant       = "\n\n"
	pullRequestMessageSeparatorConstant    = "\n"
	previewTemplateConstant                = "=== %s ===\n%s\n\n%s\n\n"
	pullRequestCreatedTemplateConstant     = "%s: created pull request #%d %s\n"
	pullRequestUpdatedTemplateConstant     = "%s: updated pull request #%d %s\n"
	statusLineTemplateConstant             = "%s: %s\n"
	branchNotPushedTemplateConstant        = "migration branch %s of %s has not been pushed"
	pullRequestErrorTemplateConstant       = "publish pull request for %s: %w"
	pullRequestStatusErrorTemplateConstant = "pull request status of %s: %w"
	statusNoPullRequestConstant            = "no pull request"
	statusMergedConstant                   = "merged"
	statusClosedConstant                   = "closed"
	statusReadyConstant                    = "ready to merge"
	statusNotMergeableConstant             = "not mergeable"
	statusWithURLTemplateConstant          = "%s %s"
	failingChecksTemplateConstant          = "failing: %s"
	pendingChecksTemplateConstant          = "pending: %s"
	statusDetailSeparatorConstant          = "; "
	checkNameSeparatorConstant             = ", "
)

// PullRequestOptions controls the pr command.
type PullRequestOptions struct {
	Preview bool
}

// PullRequest runs the pr_message steps to build the body, then prints it in preview mode or
// creates or updates the migration pull request.
func (service *Service) PullRequest(executionContext context.Context, options PullRequestOptions) (Summary, error) {
	command := commandPullRequestConstant
	if options.Preview {
		command = commandPullRequestPreviewConstant
	}
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: command}, enrolledError
	}
	return service.forEachRepository(executionContext, command, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			return outcomeOf(service.pullRequestRepository(repositoryContext, repository, options))
		},
	)
}

func (service *Service) pullRequestRepository(executionContext context.Context, repository adapter.Repository, options PullRequestOptions) error {
	phaseResult, phaseError := service.runPhase(executionContext, repository, steps.PhasePullRequestMessage, service.context.Specification.Hooks.PullRequestMessage)
	if phaseError != nil {
		return phaseError
	}
	content := adapter.PullRequestContent{
		Title: service.context.Specification.Title,
		Body:  BuildPullRequestBody(phaseResult),
	}
	repositoryName := service.adapter.FormatRepository(repository)

	if options.Preview {
		fmt.Fprintf(service.output, previewTemplateConstant, repositoryName, content.Title, content.Body)
		return nil
	}

	if fetchError := service.adapter.FetchWithPrune(executionContext, repository); fetchError != nil {
		return fmt.Errorf(pullRequestErrorTemplateConstant, repository.FullName(), fetchError)
	}
	branchExists, existsError := service.adapter.RemoteBranchExists(executionContext, repository)
	if existsError != nil {
		return fmt.Errorf(pullRequestErrorTemplateConstant, repository.FullName(), existsError)
	}
	if !branchExists {
		return fmt.Errorf(branchNotPushedTemplateConstant, service.context.Branch(), repository.FullName())
	}

	outcome, publishError := service.adapter.CreateOrUpdatePullRequest(executionContext, repository, content)
	if publishError != nil {
		return publishError
	}
	template := pullRequestUpdatedTemplateConstant
	if outcome.Created {
		template = pullRequestCreatedTemplateConstant
	}
	fmt.Fprintf(service.output, template, repositoryName, outcome.Number, outcome.URL)
	return nil
}

// BuildPullRequestBody joins the trimmed, non-empty standard output of every step with newlines and
// appends the trailer.
func BuildPullRequestBody(phaseResult steps.PhaseResult) string {
	messageParts := make([]string, 0, len(phaseResult.StepResults))
	for _, stepResult := range phaseResult.StepResults {
		trimmedOutput := strings.TrimSpace(stepResult.StandardOutput)
		if len(trimmedOutput) == 0 {
			continue
		}
		messageParts = append(messageParts, trimmedOutput)
	}
	if len(messageParts) == 0 {
		return PullRequestTrailerConstant
	}
	return strings.Join(messageParts, pullRequestMessageSeparatorConstant) + pullRequestBodySeparatorConstant + PullRequestTrailerConstant
}

// PullRequestStatus prints the state of the migration pull request of every enrolled repository.
func (service *Service) PullRequestStatus(executionContext context.Context) (Summary, error) {
	repositories, enrolledError := service.enrolledRepositories()
	if enrolledError != nil {
		return Summary{Command: commandPullRequestStatusConstant}, enrolledError
	}
	return service.forEachRepository(executionContext, commandPullRequestStatusConstant, repositories,
		func(repositoryContext context.Context, repository adapter.Repository) (Outcome, error) {
			status, statusError := service.adapter.PullRequestStatus(repositoryContext, repository)
			if statusError != nil {
				return OutcomeFailed, fmt.Errorf(pullRequestStatusErrorTemplateConstant, repository.FullName(), statusError)
			}
			fmt.Fprintf(service.output, statusLineTemplateConstant, service.adapter.FormatRepository(repository), DescribePullRequestStatus(status))
			return OutcomeSucceeded, nil
		},
	)
}

// DescribePullRequestStatus renders a status as one line: no pull request, merged, closed,
// ready to merge, or not mergeable followed by failing and pending check names.
func DescribePullRequestStatus(status adapter.PullRequestStatus) string {
	switch status.State {
	case adapter.PullRequestStateMissing:
		return statusNoPullRequestConstant
	case adapter.PullRequestStateMerged:
		return withURL(statusMergedConstant, status.URL)
	case adapter.PullRequestStateClosed:
		return withURL(statusClosedConstant, status.URL)
	}
	if status.Mergeable {
		return withURL(statusReadyConstant, status.URL)
	}

	details := []string{withURL(statusNotMergeableConstant, status.URL)}
	if len(status.FailingChecks) > 0 {
		details = append(details, fmt.Sprintf(failingChecksTemplateConstant, strings.Join(status.FailingChecks, checkNameSeparatorConstant)))
	}
	if len(status.PendingChecks) > 0 {
		details = append(details, fmt.Sprintf(pendingChecksTemplateConstant, strings.Join(status.PendingChecks, checkNameSeparatorConstant)))
	}
	return strings.Join(details, statusDetailSeparatorConstant)
}

func withURL(description string, url string) string {
	if len(url) == 0 {
		return description
	}
	return fmt.Sprintf(statusWithURLTemplateConstant, description, url)
}
