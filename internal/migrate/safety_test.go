package migrate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/herd/internal/migrate"
	"github.com/temirov/herd/internal/migrate/testsupport"
)

func TestBranchSafetyClassifier(testInstance *testing.T) {
	testCases := []struct {
		name             string
		remoteBranch     bool
		aheadCommits     []string
		pullRequestCount int
		expectedStatus   migrate.SafetyStatus
	}{
		{name: "no_branch_no_pull_request", expectedStatus: migrate.SafetyStatusSuccess},
		{name: "no_branch_with_pull_request", pullRequestCount: 2, expectedStatus: migrate.SafetyStatusPullRequestExisted},
		{name: "branch_without_commits", remoteBranch: true, expectedStatus: migrate.SafetyStatusSuccess},
		{name: "branch_with_herd_commits", remoteBranch: true, aheadCommits: []string{"[herd] Upgrade Go", "[herd] Upgrade Go"}, expectedStatus: migrate.SafetyStatusSuccess},
		{name: "branch_with_empty_message_commit", remoteBranch: true, aheadCommits: []string{"[herd] Upgrade Go", ""}, expectedStatus: migrate.SafetyStatusNonMigrationCommits},
		{name: "branch_with_foreign_commit", remoteBranch: true, aheadCommits: []string{"[herd] Upgrade Go", "Fix CI"}, expectedStatus: migrate.SafetyStatusNonMigrationCommits},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			inspector := &testsupport.FakeAdapter{
				RemoteBranches:    map[string]bool{testAPIRepositoryConstant: testCase.remoteBranch},
				AheadCommits:      map[string][]string{testAPIRepositoryConstant: testCase.aheadCommits},
				PullRequestCounts: map[string]int{testAPIRepositoryConstant: testCase.pullRequestCount},
			}
			classifier, classifierError := migrate.NewBranchSafetyClassifier(inspector, zap.NewNop())
			require.NoError(testInstance, classifierError)

			status, classifyError := classifier.Classify(context.Background(), testsupport.NewRepository(testAPIRepositoryConstant))
			require.NoError(testInstance, classifyError)
			require.Equal(testInstance, testCase.expectedStatus, status)
			require.Equal(testInstance, testCase.expectedStatus == migrate.SafetyStatusSuccess, status.Safe())
			require.Equal(testInstance, testsupport.OperationFetchWithPrune, inspector.CallsFor(testAPIRepositoryConstant)[0])
		})
	}
}

func TestBranchSafetyClassifierFetchesOnEveryCall(testInstance *testing.T) {
	inspector := &testsupport.FakeAdapter{}
	classifier, classifierError := migrate.NewBranchSafetyClassifier(inspector, nil)
	require.NoError(testInstance, classifierError)

	repository := testsupport.NewRepository(testAPIRepositoryConstant)
	for range 2 {
		_, classifyError := classifier.Classify(context.Background(), repository)
		require.NoError(testInstance, classifyError)
	}

	fetches := 0
	for _, operation := range inspector.CallsFor(testAPIRepositoryConstant) {
		if operation == testsupport.OperationFetchWithPrune {
			fetches++
		}
	}
	require.Equal(testInstance, 2, fetches)
}

func TestBranchSafetyClassifierPropagatesInspectorErrors(testInstance *testing.T) {
	inspector := &testsupport.FakeAdapter{Errors: map[string]error{
		testsupport.Call(testsupport.OperationFetchWithPrune, testAPIRepositoryConstant): errors.New("network down"),
	}}
	classifier, classifierError := migrate.NewBranchSafetyClassifier(inspector, nil)
	require.NoError(testInstance, classifierError)

	_, classifyError := classifier.Classify(context.Background(), testsupport.NewRepository(testAPIRepositoryConstant))
	require.ErrorContains(testInstance, classifyError, "network down")
	require.Equal(testInstance, []string{testsupport.OperationFetchWithPrune}, inspector.CallsFor(testAPIRepositoryConstant))
}

func TestNewBranchSafetyClassifierRequiresInspector(testInstance *testing.T) {
	classifier, classifierError := migrate.NewBranchSafetyClassifier(nil, zap.NewNop())
	require.ErrorIs(testInstance, classifierError, migrate.ErrSafetyInspectorNotConfigured)
	require.Nil(testInstance, classifier)
}

func TestIsMigrationCommit(testInstance *testing.T) {
	testCases := []struct {
		message  string
		expected bool
	}{
		{message: "[herd] Upgrade Go", expected: true},
		{message: "Merge branch 'main' [herd]", expected: true},
		{message: "herd: Upgrade Go", expected: false},
		{message: "[HERD] Upgrade Go", expected: false},
		{message: "", expected: false},
	}

	for _, testCase := range testCases {
		require.Equal(testInstance, testCase.expected, migrate.IsMigrationCommit(testCase.message), testCase.message)
	}
}

func TestUnsafeOperationErrorNamesOverride(testInstance *testing.T) {
	unsafeError := migrate.UnsafeOperationError{
		Operation:    "force push the migration branch of",
		Repository:   testsupport.NewRepository(testAPIRepositoryConstant),
		Status:       migrate.SafetyStatusNonMigrationCommits,
		OverrideFlag: migrate.ForceUnsafeFlagConstant,
	}
	require.EqualError(testInstance, unsafeError,
		"refusing to force push the migration branch of acme/api: branch safety status is non_migration_commits (override with --force-unsafe)")
}
