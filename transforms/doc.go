// Package transforms rewrites CI task-graph job descriptors. Jobs flow
// through a Sequence of Transform stages as a lazy, single-pass iter.Seq2;
// each stage pulls one job, mutates it in place and yields it on.
//
// ResolveImages pins symbolic taskcluster docker images to versioned tags
// and InjectEnv exports the repository URL, branch and revision into each
// worker environment. Default composes the two in that order.
package transforms
