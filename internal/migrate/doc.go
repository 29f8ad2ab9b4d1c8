// Package migrate drives a migration across every enrolled repository.
//
// Each command (checkout, apply, commit, push, pr, pr-status) runs sequentially over the
// repositories, isolates failures per repository and reports a Summary once done.
package migrate
