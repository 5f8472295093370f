package params

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/taskgraph_transforms/ci/exec"
)

// ErrMissingParam is returned by Validate for an unset
// parameter.
var ErrMissingParam = errors.New("missing parameter")

// Params holds the run parameters consumed by the
// transforms.
type Params struct {
	// HeadRepository is the URL of the repository
	// under test.
	HeadRepository string `json:"head_repository" yaml:"head_repository"`

	// HeadRef is the branch (or ref) under test.
	HeadRef string `json:"head_ref" yaml:"head_ref"`

	// HeadRev is the commit SHA under test.
	HeadRev string `json:"head_rev" yaml:"head_rev"`
}

// Load reads a parameters file. JSON is accepted as a
// YAML subset. Unknown keys are ignored.
func Load(path string) (Params, error) {
	const errCtx = "loading parameters"

	content, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	var pr Params
	if err := yaml.Unmarshal(content, &pr); err != nil {
		return Params{}, fmt.Errorf(
			"%s: decoding %s: %w", errCtx, path, err,
		)
	}

	return pr, nil
}

// FromGit derives the parameters from the git checkout in
// dir: the origin remote URL, the current branch and HEAD.
// A detached HEAD leaves HeadRef empty.
func FromGit(ctx context.Context, dir string) (Params, error) {
	const errCtx = "reading parameters from git"

	url, err := exec.Output(
		ctx, dir, "git", "config", "--get", "remote.origin.url",
	)
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	rev, err := exec.Output(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	ref, err := exec.Output(
		ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD",
	)
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if ref == "HEAD" {
		slog.Warn("detached HEAD, head_ref left empty", "dir", dir)

		ref = ""
	}

	return Params{
		HeadRepository: url,
		HeadRef:        ref,
		HeadRev:        rev,
	}, nil
}

// Merge overwrites the fields of pr with the non-empty
// fields of other.
func (pr *Params) Merge(other Params) {
	if other.HeadRepository != "" {
		pr.HeadRepository = other.HeadRepository
	}

	if other.HeadRef != "" {
		pr.HeadRef = other.HeadRef
	}

	if other.HeadRev != "" {
		pr.HeadRev = other.HeadRev
	}
}

// ResolveHeadRev asks rr for the head of HeadRef when
// HeadRev is empty. It is a no-op otherwise.
func (pr *Params) ResolveHeadRev(
	ctx context.Context,
	rr RevisionResolver,
) error {
	const errCtx = "resolving head_rev"

	if pr.HeadRev != "" {
		return nil
	}

	if pr.HeadRef == "" {
		return fmt.Errorf(
			"%s: %w: head_ref", errCtx, ErrMissingParam,
		)
	}

	rev, err := rr.BranchHead(ctx, pr.HeadRef)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"resolved head_rev",
		"ref", pr.HeadRef,
		"rev", rev,
	)

	pr.HeadRev = rev

	return nil
}

// Validate reports the first unset parameter.
func (pr Params) Validate() error {
	const errCtx = "validating parameters"

	for _, fd := range []struct {
		name string
		val  string
	}{
		{"head_repository", pr.HeadRepository},
		{"head_ref", pr.HeadRef},
		{"head_rev", pr.HeadRev},
	} {
		if fd.val == "" {
			return fmt.Errorf(
				"%s: %w: %s", errCtx, ErrMissingParam, fd.name,
			)
		}
	}

	return nil
}

// BranchName strips a refs/heads/ prefix from ref.
func BranchName(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
