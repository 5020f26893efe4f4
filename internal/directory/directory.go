// Package directory loads and caches the list of selectable source
// repositories from an external directory.
package directory

import "context"

// Listing is one selectable repository. Read-only; the conversation never
// mutates directory entries.
type Listing struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch,omitempty"`
}

// Lister fetches the directory for an owner. An empty owner means the
// backend's default scope (e.g. the authenticated user).
type Lister interface {
	ListRepositories(ctx context.Context, owner string) ([]Listing, error)
}
