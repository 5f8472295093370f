// Package gitlab implements params.RevisionResolver on
// top of the GitLab REST API.
package gitlab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/taskgraph_transforms/ci/params"
)

// ErrNoCommit is returned when GitLab reports a branch
// without a head commit.
var ErrNoCommit = errors.New("branch has no head commit")

// Config holds the settings needed to create a GitLab
// revision resolver.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Project is the full project path
	// (e.g. "org/project").
	Project string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
}

// Resolver looks up branch heads on GitLab.
//
// Pattern: Strategy -- implements params.RevisionResolver.
type Resolver struct {
	client  *gl.Client
	project string
}

var _ params.RevisionResolver = (*Resolver)(nil)

// NewResolver validates cfg and returns a Resolver ready
// to query branches.
func NewResolver(cfg Config) (*Resolver, error) {
	const errCtx = "creating gitlab resolver"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Project == "" {
		return nil, fmt.Errorf(
			"%s: project must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Resolver{
		client:  client,
		project: cfg.Project,
	}, nil
}

// BranchHead returns the SHA of the commit at the head of
// ref. A refs/heads/ prefix is ignored.
func (rs *Resolver) BranchHead(
	ctx context.Context,
	ref string,
) (string, error) {
	const errCtx = "reading gitlab branch head"

	branch := params.BranchName(ref)

	br, _, err := rs.client.Branches.GetBranch(
		rs.project, branch, gl.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %s@%s: %w",
			errCtx, rs.project, branch, err,
		)
	}

	if br.Commit == nil || br.Commit.ID == "" {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, branch, ErrNoCommit,
		)
	}

	slog.Info(
		"read gitlab branch head",
		"project", rs.project,
		"branch", branch,
		"sha", br.Commit.ID,
	)

	return br.Commit.ID, nil
}
