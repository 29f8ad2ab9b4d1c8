package githubauth

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"

	tokenUnavailableMessageConstant = "no GitHub token found in GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN or gh auth"
)

// ErrTokenUnavailable indicates that no token source produced a value.
var ErrTokenUnavailable = errors.New(tokenUnavailableMessageConstant)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// TokenProvider produces a token from an out-of-process source such as the gh CLI.
type TokenProvider interface {
	AuthToken(executionContext context.Context, hostname string) (string, error)
}

// ResolveToken returns the first non-empty GitHub token found in the supplied environment map,
// then in the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := lookup(map[string]string{key: os.Getenv(key)}, key); ok {
			return value, true
		}
	}
	return "", false
}

// ResolveTokenWithFallback consults the environment first and asks provider only when no
// variable is set. The provider error is joined to ErrTokenUnavailable.
func ResolveTokenWithFallback(executionContext context.Context, environment map[string]string, provider TokenProvider, hostname string) (string, error) {
	if token, found := ResolveToken(environment); found {
		return token, nil
	}
	if provider == nil {
		return "", ErrTokenUnavailable
	}
	token, providerError := provider.AuthToken(executionContext, hostname)
	if providerError != nil {
		return "", errors.Join(ErrTokenUnavailable, providerError)
	}
	return token, nil
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value := strings.TrimSpace(environment[key])
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
