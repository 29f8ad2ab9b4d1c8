package migrate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/migrate"
	"github.com/temirov/herd/internal/migrate/testsupport"
	"github.com/temirov/herd/internal/steps"
)

func TestBuildPullRequestBody(testInstance *testing.T) {
	testCases := []struct {
		name         string
		stepOutputs  []string
		expectedBody string
	}{
		{
			name:         "no_output",
			expectedBody: migrate.PullRequestTrailerConstant,
		},
		{
			name:         "blank_outputs_are_skipped",
			stepOutputs:  []string{"  \n", ""},
			expectedBody: migrate.PullRequestTrailerConstant,
		},
		{
			name:         "outputs_are_trimmed_and_joined",
			stepOutputs:  []string{"Upgrades Go to 1.22.\n", "", "  Run make tidy after merging.  "},
			expectedBody: "Upgrades Go to 1.22.\nRun make tidy after merging.\n\n" + migrate.PullRequestTrailerConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			phaseResult := steps.PhaseResult{Succeeded: true}
			for _, output := range testCase.stepOutputs {
				phaseResult.StepResults = append(phaseResult.StepResults, steps.StepResult{Succeeded: true, StandardOutput: output})
			}
			require.Equal(testInstance, testCase.expectedBody, migrate.BuildPullRequestBody(phaseResult))
		})
	}
}

func TestPullRequestPreviewPrintsWithoutPublishing(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, nil, enrolled(testAPIRepositoryConstant))
	fixture.runner.StandardOutputs = map[string]string{testMessageStepConstant: "Upgrades Go.\n"}

	summary, previewError := fixture.service.PullRequest(context.Background(), migrate.PullRequestOptions{Preview: true})
	require.NoError(testInstance, previewError)
	require.Equal(testInstance, "pr-preview", summary.Command)
	require.Equal(testInstance, 1, summary.Succeeded)
	require.Empty(testInstance, fixture.adapter.CallsFor(testAPIRepositoryConstant))
	require.Contains(testInstance, fixture.output.String(),
		"=== acme/api ===\nUpgrade Go\n\nUpgrades Go.\n\n"+migrate.PullRequestTrailerConstant+"\n\n")
}

func TestPullRequestPublishing(testInstance *testing.T) {
	testCases := []struct {
		name           string
		remoteBranch   bool
		outcome        adapter.PullRequestOutcome
		publishError   error
		expectedOutput string
		expectedError  string
	}{
		{
			name:           "created",
			remoteBranch:   true,
			outcome:        adapter.PullRequestOutcome{Number: 7, URL: "https://github.com/acme/api/pull/7", Created: true},
			expectedOutput: "acme/api: created pull request #7 https://github.com/acme/api/pull/7\n",
		},
		{
			name:           "updated",
			remoteBranch:   true,
			outcome:        adapter.PullRequestOutcome{Number: 7, URL: "https://github.com/acme/api/pull/7"},
			expectedOutput: "acme/api: updated pull request #7 https://github.com/acme/api/pull/7\n",
		},
		{
			name:          "branch_not_pushed",
			expectedError: "migration branch upgrade-go of acme/api has not been pushed",
		},
		{
			name:          "merged_pull_request",
			remoteBranch:  true,
			publishError:  adapter.PullRequestClosedError{Repository: testsupport.NewRepository(testAPIRepositoryConstant), Number: 3, State: adapter.PullRequestStateMerged},
			expectedError: "pull request #3 for acme/api is merged and cannot be updated",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newServiceFixture(testInstance, nil, enrolled(testAPIRepositoryConstant))
			fixture.runner.StandardOutputs = map[string]string{testMessageStepConstant: "Upgrades Go."}
			fixture.adapter.RemoteBranches = map[string]bool{testAPIRepositoryConstant: testCase.remoteBranch}
			fixture.adapter.Outcomes = map[string]adapter.PullRequestOutcome{testAPIRepositoryConstant: testCase.outcome}
			if testCase.publishError != nil {
				fixture.failOperation(testsupport.OperationPublishPullRequest, testAPIRepositoryConstant, testCase.publishError)
			}

			summary, pullRequestError := fixture.service.PullRequest(context.Background(), migrate.PullRequestOptions{})
			require.NoError(testInstance, pullRequestError)

			if len(testCase.expectedError) > 0 {
				require.Equal(testInstance, 1, summary.Failed)
				require.EqualError(testInstance, summary.Failures[0].Error, testCase.expectedError)
				return
			}
			require.Equal(testInstance, 1, summary.Succeeded)
			require.Contains(testInstance, fixture.output.String(), testCase.expectedOutput)
			require.Equal(testInstance, adapter.PullRequestContent{
				Title: testMigrationTitleConstant,
				Body:  "Upgrades Go.\n\n" + migrate.PullRequestTrailerConstant,
			}, fixture.adapter.Published[testAPIRepositoryConstant])
		})
	}
}

func TestPullRequestFailsWhenMessageStepFails(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, nil, enrolled(testAPIRepositoryConstant))
	fixture.failPhase(steps.PhasePullRequestMessage, testAPIRepositoryConstant, 1)

	summary, pullRequestError := fixture.service.PullRequest(context.Background(), migrate.PullRequestOptions{})
	require.NoError(testInstance, pullRequestError)
	require.Equal(testInstance, 1, summary.Failed)
	require.NotContains(testInstance, fixture.adapter.CallsFor(testAPIRepositoryConstant), testsupport.OperationPublishPullRequest)
}

func TestDescribePullRequestStatus(testInstance *testing.T) {
	const pullRequestURL = "https://github.com/acme/api/pull/7"
	testCases := []struct {
		name     string
		status   adapter.PullRequestStatus
		expected string
	}{
		{name: "missing", status: adapter.PullRequestStatus{State: adapter.PullRequestStateMissing}, expected: "no pull request"},
		{name: "merged", status: adapter.PullRequestStatus{State: adapter.PullRequestStateMerged, URL: pullRequestURL}, expected: "merged " + pullRequestURL},
		{name: "closed", status: adapter.PullRequestStatus{State: adapter.PullRequestStateClosed, URL: pullRequestURL}, expected: "closed " + pullRequestURL},
		{name: "ready", status: adapter.PullRequestStatus{State: adapter.PullRequestStateOpen, URL: pullRequestURL, Mergeable: true}, expected: "ready to merge " + pullRequestURL},
		{
			name: "blocked_by_checks",
			status: adapter.PullRequestStatus{
				State:         adapter.PullRequestStateOpen,
				URL:           pullRequestURL,
				FailingChecks: []string{"lint", "test"},
				PendingChecks: []string{"deploy"},
			},
			expected: "not mergeable " + pullRequestURL + "; failing: lint, test; pending: deploy",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, migrate.DescribePullRequestStatus(testCase.status))
		})
	}
}

func TestPullRequestStatusPrintsOneLinePerRepository(testInstance *testing.T) {
	fixture := newServiceFixture(testInstance, nil, enrolled(testAPIRepositoryConstant, testWebRepositoryConstant))
	fixture.adapter.Statuses = map[string]adapter.PullRequestStatus{
		testAPIRepositoryConstant: {State: adapter.PullRequestStateOpen, Number: 7, URL: "https://github.com/acme/api/pull/7", Mergeable: true},
	}

	summary, statusError := fixture.service.PullRequestStatus(context.Background())
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, 2, summary.Succeeded)
	require.Contains(testInstance, fixture.output.String(), "acme/api: ready to merge https://github.com/acme/api/pull/7\n")
	require.Contains(testInstance, fixture.output.String(), "acme/web: no pull request\n")
}
