package adapter

import "strings"

const repositoryFullNameSeparatorConstant = "/"

// Repository identifies a hosted repository together with metadata resolved after discovery.
type Repository struct {
	Owner         string `yaml:"owner"`
	Name          string `yaml:"name"`
	DefaultBranch string `yaml:"default_branch,omitempty"`
}

// FullName renders the owner/name pair.
func (repository Repository) FullName() string {
	return repository.Owner + repositoryFullNameSeparatorConstant + repository.Name
}

// EqualityPredicate reports whether two repositories denote the same hosted repository.
type EqualityPredicate func(first Repository, second Repository) bool

// ContainsRepository reports whether any element of repositories is equal to candidate.
func ContainsRepository(repositories []Repository, candidate Repository, equal EqualityPredicate) bool {
	for _, repository := range repositories {
		if equal(repository, candidate) {
			return true
		}
	}
	return false
}

// FilterRepositories keeps the elements of repositories that match at least one selection entry.
// An empty selection keeps everything.
func FilterRepositories(repositories []Repository, selection []Repository, equal EqualityPredicate) []Repository {
	if len(selection) == 0 {
		return repositories
	}
	filtered := make([]Repository, 0, len(selection))
	for _, repository := range repositories {
		if ContainsRepository(selection, repository, equal) {
			filtered = append(filtered, repository)
		}
	}
	return filtered
}

// CaseInsensitiveOwnerAndName compares repositories by owner and name ignoring case and metadata.
func CaseInsensitiveOwnerAndName(first Repository, second Repository) bool {
	return strings.EqualFold(first.Owner, second.Owner) && strings.EqualFold(first.Name, second.Name)
}
