package directory

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"

	kerrors "github.com/Addis4/kt-ai/internal/errors"
)

// GitHubLister lists repositories straight from the GitHub API instead of
// going through a directory proxy.
type GitHubLister struct {
	client *gogithub.Client
	logger zerolog.Logger
}

// NewGitHubLister creates a GitHub-backed directory. An empty token falls
// back to unauthenticated access (public repositories only, low rate
// limits).
func NewGitHubLister(token string, logger zerolog.Logger) *GitHubLister {
	client := gogithub.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubLister{
		client: client,
		logger: logger.With().Str("component", "github_directory").Logger(),
	}
}

// ListRepositories implements Lister. An empty owner lists the
// authenticated user's repositories.
func (g *GitHubLister) ListRepositories(ctx context.Context, owner string) ([]Listing, error) {
	opts := &gogithub.RepositoryListOptions{
		Type:        "all",
		Sort:        "updated",
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}

	repos, resp, err := g.client.Repositories.List(ctx, owner, opts)
	if err != nil {
		if resp != nil {
			return nil, kerrors.NewAPIError("github", resp.StatusCode, err.Error())
		}
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	out := make([]Listing, 0, len(repos))
	for _, r := range repos {
		out = append(out, Listing{
			ID:            r.GetID(),
			Name:          r.GetName(),
			FullName:      r.GetFullName(),
			Description:   r.GetDescription(),
			URL:           r.GetHTMLURL(),
			DefaultBranch: r.GetDefaultBranch(),
		})
	}

	g.logger.Debug().Str("owner", owner).Int("count", len(out)).Msg("listed repositories")
	return out, nil
}
