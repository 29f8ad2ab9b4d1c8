package migrate

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/temirov/herd/internal/githubapi"
	"github.com/temirov/herd/internal/gitrepo"
	pathutils "github.com/temirov/herd/internal/utils/path"
)

const (
	// DefaultWorkspaceDirectoryConstant holds the working directories of every migration.
	DefaultWorkspaceDirectoryConstant = "~/.herd"

	workspaceDirectoryConfigKeyConstant  = "workspace.directory"
	githubBaseURLConfigKeyConstant       = "github.base_url"
	githubCloneProtocolConfigKeyConstant = "github.clone_protocol"
	githubPageDelayConfigKeyConstant     = "github.page_delay"
	githubMaxRetriesConfigKeyConstant    = "github.max_retries"
	githubRetryDelayConfigKeyConstant    = "github.retry_delay"
	publicGitHubHostConstant             = "github.com"
	publicGitHubAPIHostConstant          = "api.github.com"
	rateLimitWaitTemplateConstant        = "GitHub rate limit reached; waiting %s\n"
)

// WorkspaceConfiguration locates the directory holding migration working directories.
type WorkspaceConfiguration struct {
	Directory string `mapstructure:"directory"`
}

// GitHubConfiguration tunes the GitHub adapter and its API client.
type GitHubConfiguration struct {
	BaseURL       string        `mapstructure:"base_url"`
	CloneProtocol string        `mapstructure:"clone_protocol"`
	PageDelay     time.Duration `mapstructure:"page_delay"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// CommandConfiguration captures persisted configuration for migration commands.
type CommandConfiguration struct {
	Workspace WorkspaceConfiguration `mapstructure:"workspace"`
	GitHub    GitHubConfiguration    `mapstructure:"github"`
}

// DefaultCommandConfiguration returns baseline configuration values.
func DefaultCommandConfiguration() CommandConfiguration {
	defaultPolicy := githubapi.DefaultBackoffPolicy()
	return CommandConfiguration{
		Workspace: WorkspaceConfiguration{Directory: DefaultWorkspaceDirectoryConstant},
		GitHub: GitHubConfiguration{
			CloneProtocol: string(gitrepo.RemoteProtocolHTTPS),
			PageDelay:     defaultPolicy.PageDelay,
			MaxRetries:    defaultPolicy.MaxRetries,
			RetryDelay:    defaultPolicy.DefaultRetryDelay,
		},
	}
}

// DefaultConfigurationValues exposes the defaults keyed for the configuration loader.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		workspaceDirectoryConfigKeyConstant:  defaults.Workspace.Directory,
		githubBaseURLConfigKeyConstant:       defaults.GitHub.BaseURL,
		githubCloneProtocolConfigKeyConstant: defaults.GitHub.CloneProtocol,
		githubPageDelayConfigKeyConstant:     defaults.GitHub.PageDelay,
		githubMaxRetriesConfigKeyConstant:    defaults.GitHub.MaxRetries,
		githubRetryDelayConfigKeyConstant:    defaults.GitHub.RetryDelay,
	}
}

// Sanitize trims values, expands the home directory and restores defaults for empty or negative values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Workspace.Directory = strings.TrimSpace(configuration.Workspace.Directory)
	if len(sanitized.Workspace.Directory) == 0 {
		sanitized.Workspace.Directory = defaults.Workspace.Directory
	}
	sanitized.Workspace.Directory = pathutils.NewHomeExpander().Expand(sanitized.Workspace.Directory)

	sanitized.GitHub.BaseURL = strings.TrimSpace(configuration.GitHub.BaseURL)
	sanitized.GitHub.CloneProtocol = strings.ToLower(strings.TrimSpace(configuration.GitHub.CloneProtocol))
	if sanitized.GitHub.CloneProtocol != string(gitrepo.RemoteProtocolSSH) {
		sanitized.GitHub.CloneProtocol = defaults.GitHub.CloneProtocol
	}
	if sanitized.GitHub.PageDelay < 0 {
		sanitized.GitHub.PageDelay = defaults.GitHub.PageDelay
	}
	if sanitized.GitHub.MaxRetries < 0 {
		sanitized.GitHub.MaxRetries = defaults.GitHub.MaxRetries
	}
	if sanitized.GitHub.RetryDelay <= 0 {
		sanitized.GitHub.RetryDelay = defaults.GitHub.RetryDelay
	}
	return sanitized
}

// BackoffPolicy converts the configuration into the paginator policy.
func (configuration GitHubConfiguration) BackoffPolicy() githubapi.BackoffPolicy {
	policy := githubapi.DefaultBackoffPolicy()
	policy.PageDelay = configuration.PageDelay
	policy.MaxRetries = configuration.MaxRetries
	policy.DefaultRetryDelay = configuration.RetryDelay
	return policy
}

// BackoffPolicyReportingTo is BackoffPolicy with every throttled wait announced on output.
func (configuration GitHubConfiguration) BackoffPolicyReportingTo(output io.Writer) githubapi.BackoffPolicy {
	policy := configuration.BackoffPolicy()
	if output == nil {
		return policy
	}
	policy.Notify = func(delay time.Duration) {
		fmt.Fprintf(output, rateLimitWaitTemplateConstant, delay.Round(time.Second))
	}
	return policy
}

// Host is the git host of clone URLs: github.com unless an enterprise base URL is configured.
func (configuration GitHubConfiguration) Host() string {
	if len(configuration.BaseURL) == 0 {
		return publicGitHubHostConstant
	}
	parsedURL, parseError := url.Parse(configuration.BaseURL)
	if parseError != nil || len(parsedURL.Hostname()) == 0 {
		return publicGitHubHostConstant
	}
	if parsedURL.Hostname() == publicGitHubAPIHostConstant {
		return publicGitHubHostConstant
	}
	return parsedURL.Hostname()
}

// CLIHostname is the host passed to `gh auth token`; empty selects the gh default.
func (configuration GitHubConfiguration) CLIHostname() string {
	host := configuration.Host()
	if host == publicGitHubHostConstant {
		return ""
	}
	return host
}
