package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

const (
	pullRequestStateAllConstant                  = "all"
	pullRequestHeadSeparatorConstant             = ":"
	branchLookupMaxRedirectsConstant             = 1
	apiClientMissingMessageConstant              = "GitHub client requires an API client"
	paginatorMissingMessageConstant              = "GitHub client requires a paginator"
	enterpriseConfigurationErrorTemplateConstant = "configure GitHub base URL %s: %w"
)

// ErrAPIClientNotConfigured indicates that a Client was constructed without a go-github client.
var ErrAPIClientNotConfigured = errors.New(apiClientMissingMessageConstant)

// ErrPaginatorNotConfigured indicates that a Client was constructed without a Paginator.
var ErrPaginatorNotConfigured = errors.New(paginatorMissingMessageConstant)

// NewAPIClient builds an authenticated go-github client. A non-empty baseURL targets GitHub Enterprise.
func NewAPIClient(token string, baseURL string) (*gh.Client, error) {
	apiClient := gh.NewClient(nil)
	if len(strings.TrimSpace(token)) > 0 {
		apiClient = apiClient.WithAuthToken(token)
	}
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if len(trimmedBaseURL) == 0 {
		return apiClient, nil
	}
	enterpriseClient, enterpriseError := apiClient.WithEnterpriseURLs(trimmedBaseURL, trimmedBaseURL)
	if enterpriseError != nil {
		return nil, fmt.Errorf(enterpriseConfigurationErrorTemplateConstant, trimmedBaseURL, enterpriseError)
	}
	return enterpriseClient, nil
}

// Client exposes the GitHub operations herd needs, each routed through the Paginator.
type Client struct {
	api       *gh.Client
	paginator *Paginator
}

// NewClient constructs a Client.
func NewClient(api *gh.Client, paginator *Paginator) (*Client, error) {
	if api == nil {
		return nil, ErrAPIClientNotConfigured
	}
	if paginator == nil {
		return nil, ErrPaginatorNotConfigured
	}
	return &Client{api: api, paginator: paginator}, nil
}

// ListOrganizationRepositories returns every repository of an organization.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string) ([]*gh.Repository, error) {
	return FetchAll(executionContext, client.paginator,
		func(callContext context.Context, options gh.ListOptions) ([]*gh.Repository, *gh.Response, error) {
			return client.api.Repositories.ListByOrg(callContext, organization, &gh.RepositoryListByOrgOptions{ListOptions: options})
		},
		func(page []*gh.Repository) []*gh.Repository { return page },
	)
}

// SearchRepositories returns the repositories matching a repository search query.
func (client *Client) SearchRepositories(executionContext context.Context, query string) ([]*gh.Repository, error) {
	return FetchAll(executionContext, client.paginator,
		func(callContext context.Context, options gh.ListOptions) (*gh.RepositoriesSearchResult, *gh.Response, error) {
			return client.api.Search.Repositories(callContext, query, &gh.SearchOptions{ListOptions: options})
		},
		func(page *gh.RepositoriesSearchResult) []*gh.Repository {
			if page == nil {
				return nil
			}
			return page.Repositories
		},
	)
}

// SearchCode returns the code search hits for a query. Hits are not deduplicated per repository.
func (client *Client) SearchCode(executionContext context.Context, query string) ([]*gh.CodeResult, error) {
	return FetchAll(executionContext, client.paginator,
		func(callContext context.Context, options gh.ListOptions) (*gh.CodeSearchResult, *gh.Response, error) {
			return client.api.Search.Code(callContext, query, &gh.SearchOptions{ListOptions: options})
		},
		func(page *gh.CodeSearchResult) []*gh.CodeResult {
			if page == nil {
				return nil
			}
			return page.CodeResults
		},
	)
}

// GetRepository fetches repository metadata.
func (client *Client) GetRepository(executionContext context.Context, owner string, name string) (*gh.Repository, error) {
	var repository *gh.Repository
	callError := client.paginator.Do(executionContext, func(callContext context.Context) (*gh.Response, error) {
		var response *gh.Response
		var requestError error
		repository, response, requestError = client.api.Repositories.Get(callContext, owner, name)
		return response, requestError
	})
	return repository, callError
}

// BranchExists reports whether the branch exists on the host.
func (client *Client) BranchExists(executionContext context.Context, owner string, name string, branch string) (bool, error) {
	var lastResponse *gh.Response
	callError := client.paginator.Do(executionContext, func(callContext context.Context) (*gh.Response, error) {
		_, response, requestError := client.api.Repositories.GetBranch(callContext, owner, name, branch, branchLookupMaxRedirectsConstant)
		lastResponse = response
		return response, requestError
	})
	if callError == nil {
		return true, nil
	}
	if lastResponse != nil && lastResponse.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, callError
}

// ListPullRequestsForHead returns pull requests in any state whose head is headOwner:branch.
func (client *Client) ListPullRequestsForHead(executionContext context.Context, owner string, name string, headOwner string, branch string) ([]*gh.PullRequest, error) {
	head := headOwner + pullRequestHeadSeparatorConstant + branch
	return FetchAll(executionContext, client.paginator,
		func(callContext context.Context, options gh.ListOptions) ([]*gh.PullRequest, *gh.Response, error) {
			return client.api.PullRequests.List(callContext, owner, name, &gh.PullRequestListOptions{
				State:       pullRequestStateAllConstant,
				Head:        head,
				ListOptions: options,
			})
		},
		func(page []*gh.PullRequest) []*gh.PullRequest { return page },
	)
}

// GetPullRequest fetches a single pull request, including its mergeability.
func (client *Client) GetPullRequest(executionContext context.Context, owner string, name string, number int) (*gh.PullRequest, error) {
	var pullRequest *gh.PullRequest
	callError := client.paginator.Do(executionContext, func(callContext context.Context) (*gh.Response, error) {
		var response *gh.Response
		var requestError error
		pullRequest, response, requestError = client.api.PullRequests.Get(callContext, owner, name, number)
		return response, requestError
	})
	return pullRequest, callError
}

// CreatePullRequest opens a pull request.
func (client *Client) CreatePullRequest(executionContext context.Context, owner string, name string, request *gh.NewPullRequest) (*gh.PullRequest, error) {
	var pullRequest *gh.PullRequest
	callError := client.paginator.Do(executionContext, func(callContext context.Context) (*gh.Response, error) {
		var response *gh.Response
		var requestError error
		pullRequest, response, requestError = client.api.PullRequests.Create(callContext, owner, name, request)
		return response, requestError
	})
	return pullRequest, callError
}

// UpdatePullRequest replaces the title and body of a pull request.
func (client *Client) UpdatePullRequest(executionContext context.Context, owner string, name string, number int, title string, body string) (*gh.PullRequest, error) {
	var pullRequest *gh.PullRequest
	callError := client.paginator.Do(executionContext, func(callContext context.Context) (*gh.Response, error) {
		var response *gh.Response
		var requestError error
		pullRequest, response, requestError = client.api.PullRequests.Edit(callContext, owner, name, number, &gh.PullRequest{
			Title: gh.String(title),
			Body:  gh.String(body),
		})
		return response, requestError
	})
	return pullRequest, callError
}

// CombinedStatus is the aggregated commit status of a ref with every individual status collected.
type CombinedStatus struct {
	State    string
	Statuses []*gh.RepoStatus
}

// GetCombinedStatus fetches the combined status for ref, following status pagination.
func (client *Client) GetCombinedStatus(executionContext context.Context, owner string, name string, ref string) (CombinedStatus, error) {
	combinedState := ""
	statuses, fetchError := FetchAll(executionContext, client.paginator,
		func(callContext context.Context, options gh.ListOptions) (*gh.CombinedStatus, *gh.Response, error) {
			return client.api.Repositories.GetCombinedStatus(callContext, owner, name, ref, &options)
		},
		func(page *gh.CombinedStatus) []*gh.RepoStatus {
			if page == nil {
				return nil
			}
			if len(combinedState) == 0 {
				combinedState = page.GetState()
			}
			return page.Statuses
		},
	)
	if fetchError != nil {
		return CombinedStatus{}, fetchError
	}
	return CombinedStatus{State: combinedState, Statuses: statuses}, nil
}
