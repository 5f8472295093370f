// Package github implements params.RevisionResolver on
// top of the GitHub REST API.
package github
