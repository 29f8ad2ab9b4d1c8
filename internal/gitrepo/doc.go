// Package gitrepo performs the git working-copy operations of a migration.
//
// RepositoryManager drives the git CLI through execshell for everything that
// talks to a remote or rewrites the tree, while go-git is used for read-only
// inspection such as validating a checkout and resolving HEAD. Remote URL
// helpers translate between owner/name references and clone URLs.
package gitrepo
