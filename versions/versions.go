package versions

import (
	"errors"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
)

const (
	// DefaultPackageJSON is the package manifest read
	// when Sources.PackageJSON is empty.
	DefaultPackageJSON = "package.json"

	// DefaultGoVersionFile is the Go version file read
	// when Sources.GoVersionFile is empty.
	DefaultGoVersionFile = ".go-version"

	// Postgres is the Postgres major version baked into
	// the node-and-postgres image.
	Postgres = "11"
)

var (
	// ErrMissingNodeEngine is returned when the package
	// manifest has no engines.node field.
	ErrMissingNodeEngine = errors.New(
		"package manifest has no engines.node",
	)

	// ErrEmptyGoVersion is returned when the Go version
	// file holds no version token.
	ErrEmptyGoVersion = errors.New("go version file is empty")
)

// Sources names the files the versions are read from.
type Sources struct {
	// PackageJSON is the path of the package manifest.
	PackageJSON string

	// GoVersionFile is the path of the plain-text Go
	// version file.
	GoVersionFile string
}

// Versions holds the toolchain versions substituted into
// image templates. It is resolved once per pipeline run.
type Versions struct {
	Node     string
	Go       string
	Postgres string
}

type packageManifest struct {
	Engines struct {
		Node *string `json:"node"`
	} `json:"engines"`
}

// Load reads the Node and Go versions from the files named
// by src. Empty paths fall back to the defaults in the
// current directory.
func Load(src Sources) (Versions, error) {
	const errCtx = "loading versions"

	pkgPath := src.PackageJSON
	if pkgPath == "" {
		pkgPath = DefaultPackageJSON
	}

	goPath := src.GoVersionFile
	if goPath == "" {
		goPath = DefaultGoVersionFile
	}

	node, err := readNodeVersion(pkgPath)
	if err != nil {
		return Versions{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	goVer, err := readGoVersion(goPath)
	if err != nil {
		return Versions{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return Versions{
		Node:     node,
		Go:       goVer,
		Postgres: Postgres,
	}, nil
}

// Stamps returns the substitution map used by Expand.
func (v Versions) Stamps() map[string]interface{} {
	return map[string]interface{}{
		"node": v.Node,
		"go":   v.Go,
		"pg":   v.Postgres,
	}
}

// Expand substitutes {node}, {go} and {pg} placeholders in
// format. Unknown placeholders are preserved as-is.
func (v Versions) Expand(format string) string {
	return fasttemplate.ExecuteStringStd(
		format, "{", "}", v.Stamps(),
	)
}

func readNodeVersion(path string) (string, error) {
	const errCtx = "reading node version"

	content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	var pm packageManifest
	if err := json.Unmarshal(content, &pm); err != nil {
		return "", fmt.Errorf(
			"%s: decoding %s: %w", errCtx, path, err,
		)
	}

	if pm.Engines.Node == nil {
		return "", fmt.Errorf(
			"%s: %s: %w",
			errCtx, path, ErrMissingNodeEngine,
		)
	}

	return *pm.Engines.Node, nil
}

func readGoVersion(path string) (string, error) {
	const errCtx = "reading go version"

	content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	ver := strings.TrimSpace(string(content))
	if ver == "" {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, path, ErrEmptyGoVersion,
		)
	}

	return ver, nil
}
