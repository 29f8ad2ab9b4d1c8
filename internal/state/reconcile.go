package state

import (
	"github.com/temirov/herd/internal/adapter"
)

// ReconcileInput carries the stored list together with the outcome of a checkout run.
type ReconcileInput struct {
	Existing          []adapter.Repository
	ExistingPersisted bool
	CheckedOut        []adapter.Repository
	Discarded         []adapter.Repository
}

// Reconciler merges checkout outcomes into the enrolled list using an adapter equality predicate.
type Reconciler struct {
	Equal adapter.EqualityPredicate
}

// NewReconciler constructs a Reconciler. A nil predicate falls back to case-insensitive owner and name.
func NewReconciler(equal adapter.EqualityPredicate) Reconciler {
	if equal == nil {
		equal = adapter.CaseInsensitiveOwnerAndName
	}
	return Reconciler{Equal: equal}
}

// Reconcile returns the new enrolled list.
//
// Without a persisted list the checked out repositories become the list. Otherwise the
// existing entries that are not discarded keep their order and the checked out repositories
// that are not already present are appended. No two returned entries are equal.
func (reconciler Reconciler) Reconcile(input ReconcileInput) []adapter.Repository {
	if !input.ExistingPersisted {
		return reconciler.appendMissing(make([]adapter.Repository, 0, len(input.CheckedOut)), input.CheckedOut)
	}

	survivors := make([]adapter.Repository, 0, len(input.Existing)+len(input.CheckedOut))
	for _, existingRepository := range input.Existing {
		if adapter.ContainsRepository(input.Discarded, existingRepository, reconciler.Equal) {
			continue
		}
		if adapter.ContainsRepository(survivors, existingRepository, reconciler.Equal) {
			continue
		}
		survivors = append(survivors, existingRepository)
	}
	return reconciler.appendMissing(survivors, input.CheckedOut)
}

func (reconciler Reconciler) appendMissing(target []adapter.Repository, candidates []adapter.Repository) []adapter.Repository {
	for _, candidate := range candidates {
		if adapter.ContainsRepository(target, candidate, reconciler.Equal) {
			continue
		}
		target = append(target, candidate)
	}
	return target
}
