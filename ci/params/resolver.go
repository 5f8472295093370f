package params

import "context"

// Pattern: Strategy -- swap git platform without
// changing parameter resolution.

// RevisionResolver reports the commit at the head of a
// branch on a git hosting platform.
type RevisionResolver interface {
	BranchHead(ctx context.Context, ref string) (string, error)
}

// RevisionResolverFunc adapts a plain function to the
// RevisionResolver interface. The ref is passed without
// its refs/heads/ prefix.
type RevisionResolverFunc func(
	ctx context.Context,
	branch string,
) (string, error)

// BranchHead delegates to the wrapped function.
func (f RevisionResolverFunc) BranchHead(
	ctx context.Context,
	ref string,
) (string, error) {
	return f(ctx, BranchName(ref))
}
