// Package github implements the repository host adapter for GitHub and GitHub Enterprise.
//
// Discovery and pull request operations go through githubapi; working copies are managed with
// git subprocesses through gitrepo.
package github
