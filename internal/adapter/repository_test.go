package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/herd/internal/adapter"
)

func TestCaseInsensitiveOwnerAndNameIgnoresMetadata(testInstance *testing.T) {
	testCases := []struct {
		name        string
		first       adapter.Repository
		second      adapter.Repository
		expectEqual bool
	}{
		{
			name:        "different_default_branch",
			first:       adapter.Repository{Owner: "acme", Name: "api", DefaultBranch: "main"},
			second:      adapter.Repository{Owner: "acme", Name: "api"},
			expectEqual: true,
		},
		{
			name:        "different_case",
			first:       adapter.Repository{Owner: "Acme", Name: "API"},
			second:      adapter.Repository{Owner: "acme", Name: "api"},
			expectEqual: true,
		},
		{
			name:        "different_name",
			first:       adapter.Repository{Owner: "acme", Name: "api"},
			second:      adapter.Repository{Owner: "acme", Name: "web"},
			expectEqual: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectEqual, adapter.CaseInsensitiveOwnerAndName(testCase.first, testCase.second))
		})
	}
}

func TestFilterRepositoriesKeepsSelectedInOriginalOrder(testInstance *testing.T) {
	repositories := []adapter.Repository{
		{Owner: "acme", Name: "api"},
		{Owner: "acme", Name: "web"},
		{Owner: "acme", Name: "cli"},
	}
	selection := []adapter.Repository{{Owner: "ACME", Name: "cli"}, {Owner: "acme", Name: "api"}}

	filtered := adapter.FilterRepositories(repositories, selection, adapter.CaseInsensitiveOwnerAndName)
	require.Equal(testInstance, []adapter.Repository{{Owner: "acme", Name: "api"}, {Owner: "acme", Name: "cli"}}, filtered)
	require.Equal(testInstance, repositories, adapter.FilterRepositories(repositories, nil, adapter.CaseInsensitiveOwnerAndName))
}

func TestPullRequestClosedErrorMessage(testInstance *testing.T) {
	closedError := adapter.PullRequestClosedError{Repository: adapter.Repository{Owner: "acme", Name: "api"}, Number: 7, State: adapter.PullRequestStateMerged}
	require.Equal(testInstance, "pull request #7 for acme/api is merged and cannot be updated", closedError.Error())
}
