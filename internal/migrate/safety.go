package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
)

// SafetyStatus is the verdict of the branch safety classifier.
type SafetyStatus string

const (
	// SafetyStatusSuccess allows the destructive operation.
	SafetyStatusSuccess SafetyStatus = "success"
	// SafetyStatusPullRequestExisted means the remote branch is gone but a pull request used it.
	SafetyStatusPullRequestExisted SafetyStatus = "pull_request_existed"
	// SafetyStatusNonMigrationCommits means the remote branch holds commits herd did not author.
	SafetyStatusNonMigrationCommits SafetyStatus = "non_migration_commits"
)

const (
	inspectorMissingMessageConstant      = "safety classifier requires a safety inspector"
	unsafeOperationErrorTemplateConstant = "refusing to %s %s: branch safety status is %s (override with %s)"
	classificationErrorTemplateConstant  = "classify branch of %s: %w"
	classificationMessageConstant        = "Classified migration branch"
	logFieldStatusConstant               = "safety_status"
	logFieldBranchExistsConstant         = "remote_branch_exists"
	logFieldPullRequestCountConstant     = "pull_requests"
	logFieldForeignCommitsConstant       = "foreign_commits"
)

// ErrSafetyInspectorNotConfigured indicates that the classifier was constructed without an inspector.
var ErrSafetyInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)

// Safe reports whether the status permits a destructive operation without an override.
func (status SafetyStatus) Safe() bool {
	return status == SafetyStatusSuccess
}

// SafetyClassifier decides whether the migration branch of a repository may be reset or force-pushed.
type SafetyClassifier interface {
	Classify(executionContext context.Context, repository adapter.Repository) (SafetyStatus, error)
}

// BranchSafetyClassifier inspects the remote migration branch and its pull requests.
// Every call fetches fresh remote state; nothing is cached between calls.
type BranchSafetyClassifier struct {
	inspector adapter.SafetyInspector
	logger    *zap.Logger
}

// NewBranchSafetyClassifier constructs a BranchSafetyClassifier.
func NewBranchSafetyClassifier(inspector adapter.SafetyInspector, logger *zap.Logger) (*BranchSafetyClassifier, error) {
	if inspector == nil {
		return nil, ErrSafetyInspectorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchSafetyClassifier{inspector: inspector, logger: logger}, nil
}

// Classify fetches with prune, then either counts pull requests for a missing remote branch or
// checks that every commit on an existing one carries the authorship marker.
func (classifier *BranchSafetyClassifier) Classify(executionContext context.Context, repository adapter.Repository) (SafetyStatus, error) {
	if fetchError := classifier.inspector.FetchWithPrune(executionContext, repository); fetchError != nil {
		return "", fmt.Errorf(classificationErrorTemplateConstant, repository.FullName(), fetchError)
	}

	branchExists, existsError := classifier.inspector.RemoteBranchExists(executionContext, repository)
	if existsError != nil {
		return "", fmt.Errorf(classificationErrorTemplateConstant, repository.FullName(), existsError)
	}

	repositoryLogger := classifier.logger.With(
		zap.String(logFieldRepositoryConstant, repository.FullName()),
		zap.Bool(logFieldBranchExistsConstant, branchExists),
	)

	if !branchExists {
		pullRequestCount, countError := classifier.inspector.PullRequestCountForBranch(executionContext, repository)
		if countError != nil {
			return "", fmt.Errorf(classificationErrorTemplateConstant, repository.FullName(), countError)
		}
		status := SafetyStatusSuccess
		if pullRequestCount > 0 {
			status = SafetyStatusPullRequestExisted
		}
		repositoryLogger.Debug(classificationMessageConstant,
			zap.Int(logFieldPullRequestCountConstant, pullRequestCount),
			zap.String(logFieldStatusConstant, string(status)),
		)
		return status, nil
	}

	messages, messagesError := classifier.inspector.CommitMessagesAheadOfDefaultBranch(executionContext, repository)
	if messagesError != nil {
		return "", fmt.Errorf(classificationErrorTemplateConstant, repository.FullName(), messagesError)
	}
	foreignCommits := 0
	for _, message := range messages {
		if !IsMigrationCommit(message) {
			foreignCommits++
		}
	}
	status := SafetyStatusSuccess
	if foreignCommits > 0 {
		status = SafetyStatusNonMigrationCommits
	}
	repositoryLogger.Debug(classificationMessageConstant,
		zap.Int(logFieldForeignCommitsConstant, foreignCommits),
		zap.String(logFieldStatusConstant, string(status)),
	)
	return status, nil
}

// IsMigrationCommit reports whether a commit message carries the authorship marker, either as the
// prefix herd writes or as a bracketed tag elsewhere in the message.
func IsMigrationCommit(message string) bool {
	return strings.Contains(message, AuthorshipMarkerConstant)
}

// UnsafeOperationError reports a destructive operation vetoed by the safety classifier.
type UnsafeOperationError struct {
	Operation    string
	Repository   adapter.Repository
	Status       SafetyStatus
	OverrideFlag string
}

// Error names the status and the flag that overrides it.
func (unsafeError UnsafeOperationError) Error() string {
	return fmt.Sprintf(unsafeOperationErrorTemplateConstant, unsafeError.Operation, unsafeError.Repository.FullName(), unsafeError.Status, unsafeError.OverrideFlag)
}
