// Package explore implements exploration conversation sessions: the
// selected knowledge context, the ordered message log, question dispatch
// against the answering service, and per-message derived-document
// generation.
package explore

import (
	"fmt"
	"strings"
)

// SourceType identifies the kind of knowledge source a question is asked against.
type SourceType string

const (
	SourceRepo       SourceType = "repo"
	SourceJira       SourceType = "jira"
	SourceConfluence SourceType = "confluence"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceRepo, SourceJira, SourceConfluence:
		return true
	}
	return false
}

// Context is the knowledge source a session's questions are asked against.
// Owner holds the organization (repo) or project/space key (jira,
// confluence); Resource holds the repository name or the fixed source
// identifier. Revision pins a commit and is only meaningful for repos.
type Context struct {
	Type     SourceType `json:"type"`
	Owner    string     `json:"owner"`
	Resource string     `json:"resource"`
	Revision string     `json:"revision,omitempty"`
}

// DefaultContext returns the initial context for a new session.
func DefaultContext() Context {
	return Context{Type: SourceRepo}
}

// SelectType switches the source type and resets Resource to the type
// default: free-form for repos, the fixed source identifier otherwise.
// Owner is kept as-is.
func (c Context) SelectType(t SourceType) Context {
	c.Type = t
	switch t {
	case SourceJira:
		c.Resource = "jira"
	case SourceConfluence:
		c.Resource = "confluence"
	default:
		c.Resource = ""
	}
	return c
}

// SelectListing applies a repository directory entry's full name
// ("owner/name") and forces the repo source type.
func (c Context) SelectListing(fullName string) (Context, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return c, fmt.Errorf("invalid repository full name %q, expected owner/name", fullName)
	}
	c.Type = SourceRepo
	c.Owner = owner
	c.Resource = name
	return c, nil
}

// IsReady reports whether the context is complete enough to dispatch a
// question: Owner and Resource both non-blank.
func (c Context) IsReady() bool {
	return strings.TrimSpace(c.Owner) != "" && strings.TrimSpace(c.Resource) != ""
}

// PinnedRevision returns the revision pin, or "" for non-repo contexts
// where the pin is ignored.
func (c Context) PinnedRevision() string {
	if c.Type != SourceRepo {
		return ""
	}
	return c.Revision
}
