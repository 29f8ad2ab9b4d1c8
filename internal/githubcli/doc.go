// Package githubcli wraps the GitHub CLI for the few things herd delegates to it.
//
// Today that is reading the token of an already logged-in gh session so herd
// can authenticate without a token in the environment.
package githubcli
