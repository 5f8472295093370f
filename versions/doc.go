// Package versions resolves the toolchain versions that pin the CI docker
// images. Load reads the Node version from the package manifest
// (engines.node) and the Go version from a .go-version file; the Postgres
// version is fixed. Expand substitutes single-brace {node}, {go} and {pg}
// placeholders in an image template.
package versions
