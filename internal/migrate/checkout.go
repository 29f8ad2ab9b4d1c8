package migrate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/migrationspec"
	"github.com/temirov/herd/internal/state"
	"github.com/temirov/herd/internal/steps"
)

const (
	commandCheckoutConstant                  = "checkout"
	discoveryErrorTemplateConstant           = "discover candidate repositories: %w"
	archivedRepositoryMessageConstant        = "Skipping archived repository"
	repositoryRejectedMessageConstant        = "Repository rejected by migration gate"
	enrolledRepositoriesSavedMessageConstant = "Saved enrolled repositories"
	logFieldEnrolledCountConstant            = "enrolled"
)

type checkoutGate struct {
	phase    steps.PhaseName
	commands migrationspec.CommandList
}

// Checkout clones or updates every candidate, switches it to the migration branch and runs the
// should_migrate and post_checkout gates. Repositories failing a gate are discarded and their
// directories removed. The enrolled list is reconciled and saved once at the end.
func (service *Service) Checkout(executionContext context.Context) (Summary, error) {
	existing, existingPersisted, loadError := service.stateStore.Load()
	if loadError != nil {
		return Summary{Command: commandCheckoutConstant}, fmt.Errorf(stateLoadErrorTemplateConstant, loadError)
	}

	candidates, candidatesError := service.checkoutCandidates(executionContext)
	if candidatesError != nil {
		return Summary{Command: commandCheckoutConstant}, candidatesError
	}

	var checkedOut []adapter.Repository
	var discarded []adapter.Repository
	summary, batchError := service.forEachRepository(executionContext, commandCheckoutConstant, candidates,
		func(repositoryContext context.Context, candidate adapter.Repository) (Outcome, error) {
			repository, outcome, checkoutError := service.checkoutRepository(repositoryContext, candidate)
			switch outcome {
			case OutcomeSucceeded:
				checkedOut = append(checkedOut, repository)
			case OutcomeDiscarded:
				discarded = append(discarded, repository)
			}
			return outcome, checkoutError
		},
	)
	if batchError != nil {
		return summary, batchError
	}

	enrolled := service.reconciler.Reconcile(state.ReconcileInput{
		Existing:          existing,
		ExistingPersisted: existingPersisted,
		CheckedOut:        checkedOut,
		Discarded:         discarded,
	})
	if saveError := service.stateStore.Save(enrolled); saveError != nil {
		return summary, fmt.Errorf(stateSaveErrorTemplateConstant, saveError)
	}
	service.logger.Debug(enrolledRepositoriesSavedMessageConstant, zap.Int(logFieldEnrolledCountConstant, len(enrolled)))
	return summary, nil
}

func (service *Service) checkoutCandidates(executionContext context.Context) ([]adapter.Repository, error) {
	if len(service.context.Selection) > 0 {
		return append([]adapter.Repository(nil), service.context.Selection...), nil
	}
	candidates, discoveryError := service.adapter.DiscoverCandidates(executionContext)
	if discoveryError != nil {
		return nil, fmt.Errorf(discoveryErrorTemplateConstant, discoveryError)
	}
	return candidates, nil
}

// checkoutRepository returns the repository with host metadata applied and the outcome of its checkout.
func (service *Service) checkoutRepository(executionContext context.Context, candidate adapter.Repository) (adapter.Repository, Outcome, error) {
	metadata, metadataError := service.adapter.ResolveMetadata(executionContext, candidate)
	if metadataError != nil {
		return candidate, OutcomeFailed, CheckoutError{Repository: candidate, Cause: metadataError}
	}
	repository := metadata.Repository
	repositoryLogger := service.logger.With(zap.String(logFieldRepositoryConstant, service.adapter.FormatRepository(repository)))

	if metadata.Archived {
		repositoryLogger.Info(archivedRepositoryMessageConstant)
		service.removeRepositoryDirectories(repository)
		return repository, OutcomeDiscarded, nil
	}

	if checkoutError := service.adapter.CheckoutRepository(executionContext, repository); checkoutError != nil {
		return repository, OutcomeFailed, CheckoutError{Repository: repository, Cause: checkoutError}
	}

	hooks := service.context.Specification.Hooks
	gates := []checkoutGate{
		{phase: steps.PhaseShouldMigrate, commands: hooks.ShouldMigrate},
		{phase: steps.PhasePostCheckout, commands: hooks.PostCheckout},
	}
	for _, gate := range gates {
		_, phaseError := service.runPhase(executionContext, repository, gate.phase, gate.commands)
		if phaseError == nil {
			continue
		}
		var stepFailure StepFailureError
		if !errors.As(phaseError, &stepFailure) {
			return repository, OutcomeFailed, phaseError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return repository, OutcomeFailed, contextError
		}
		repositoryLogger.Info(repositoryRejectedMessageConstant,
			zap.String(logFieldPhaseConstant, string(gate.phase)),
			zap.String(logFieldStepConstant, stepFailure.Result.Step.Command),
			zap.Int(logFieldExitCodeConstant, stepFailure.Result.ExitCode),
		)
		service.removeRepositoryDirectories(repository)
		return repository, OutcomeDiscarded, nil
	}
	return repository, OutcomeSucceeded, nil
}
