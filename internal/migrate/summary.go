package migrate

import (
	"fmt"

	"github.com/temirov/herd/internal/adapter"
)

const summaryTemplateConstant = "%s: %d succeeded, %d discarded, %d failed"

// Outcome classifies how a command ended for one repository.
type Outcome string

const (
	// OutcomeSucceeded means the command completed for the repository.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeDiscarded means the repository was filtered out of the migration.
	OutcomeDiscarded Outcome = "discarded"
	// OutcomeFailed means the command failed for the repository.
	OutcomeFailed Outcome = "failed"
)

// RepositoryFailure pairs a repository with the error that failed it.
type RepositoryFailure struct {
	Repository adapter.Repository
	Error      error
}

// Summary counts per-repository outcomes of one command.
type Summary struct {
	Command   string
	Succeeded int
	Discarded int
	Failed    int
	Failures  []RepositoryFailure
}

func (summary *Summary) record(repository adapter.Repository, outcome Outcome, failure error) {
	switch outcome {
	case OutcomeSucceeded:
		summary.Succeeded++
	case OutcomeDiscarded:
		summary.Discarded++
	case OutcomeFailed:
		summary.Failed++
		summary.Failures = append(summary.Failures, RepositoryFailure{Repository: repository, Error: failure})
	}
}

// Total is the number of repositories the command processed.
func (summary Summary) Total() int {
	return summary.Succeeded + summary.Discarded + summary.Failed
}

// String renders the one-line report printed after every command.
func (summary Summary) String() string {
	return fmt.Sprintf(summaryTemplateConstant, summary.Command, summary.Succeeded, summary.Discarded, summary.Failed)
}
