package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/taskgraph_transforms/ci/params"
)

// ErrNoCommit is returned when GitHub reports a branch
// without a head commit.
var ErrNoCommit = errors.New("branch has no head commit")

// Config holds the settings needed to create a GitHub
// revision resolver.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// APIURL overrides the API base URL entirely
	// (e.g. "http://localhost:8080/"). It takes
	// precedence over EnterpriseHost.
	APIURL string
}

// Resolver looks up branch heads on GitHub.
//
// Pattern: Strategy -- implements params.RevisionResolver.
type Resolver struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

var _ params.RevisionResolver = (*Resolver)(nil)

// NewResolver validates cfg and returns a Resolver ready
// to query branches.
func NewResolver(cfg Config) (*Resolver, error) {
	const errCtx = "creating github resolver"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	baseURL, uploadURL := "", ""

	switch {
	case cfg.APIURL != "":
		baseURL, uploadURL = cfg.APIURL, cfg.APIURL
	case cfg.EnterpriseHost != "":
		baseURL = "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL = "https://" +
			cfg.EnterpriseHost + "/api/uploads/"
	}

	if baseURL != "" {
		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Resolver{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// BranchHead returns the SHA of the commit at the head of
// ref. A refs/heads/ prefix is ignored.
func (rs *Resolver) BranchHead(
	ctx context.Context,
	ref string,
) (string, error) {
	const errCtx = "reading github branch head"

	branch := params.BranchName(ref)

	br, _, err := rs.client.Repositories.GetBranch(
		ctx, rs.repoOwner, rs.repo, branch, 1,
	)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %s/%s@%s: %w",
			errCtx, rs.repoOwner, rs.repo, branch, err,
		)
	}

	sha := br.GetCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, branch, ErrNoCommit,
		)
	}

	slog.Info(
		"read github branch head",
		"repo", rs.repoOwner+"/"+rs.repo,
		"branch", branch,
		"sha", sha,
	)

	return sha, nil
}
