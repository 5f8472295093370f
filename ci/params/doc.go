// Package params loads the CI run parameters that identify the revision
// being built: the head repository URL, branch and commit.
//
// Parameters come from a task-graph parameters file (Load), from a local
// git checkout (FromGit), or from explicit values, and are combined with
// Merge. A missing head revision can be filled in from the hosting
// platform through the RevisionResolver strategy interface; implementations
// for GitHub and GitLab live in sub-packages.
package params
