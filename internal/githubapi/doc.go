// Package githubapi is herd's access layer to the GitHub REST API.
//
// Every call goes through a Paginator, which follows pagination links, spaces
// consecutive page requests and sleeps through primary and secondary rate
// limits according to an explicit BackoffPolicy.
package githubapi
