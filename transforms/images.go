package transforms

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/byte4ever/taskgraph_transforms/versions"
)

const (
	dockerImageKey = "docker-image"

	// KindTaskcluster marks an image built from the
	// taskcluster image family.
	KindTaskcluster = "taskcluster"
)

var (
	// ErrMalformedImage is returned for a docker-image
	// value that is neither a string nor a recognisable
	// image descriptor.
	ErrMalformedImage = errors.New("malformed docker-image")

	// ErrUnknownImage is returned for a taskcluster image
	// name with no known template.
	ErrUnknownImage = errors.New("unknown taskcluster image")
)

// imageTemplates maps logical taskcluster image names to
// their versioned tag templates.
var imageTemplates = map[string]string{
	"node-and-go":       "taskcluster/node-and-go:node{node}-{go}",
	"node-and-postgres": "taskcluster/node-and-postgres:node{node}-pg{pg}",
	"browser-test":      "taskcluster/browser-test:node{node}",
}

// ImageRef is a symbolic docker image reference.
type ImageRef struct {
	Kind string
	Name string
}

// ParseImageRef reads an image descriptor mapping. Two
// shapes are accepted: the explicit {kind: K, name: N}
// and the single-key shorthand {K: N}.
func ParseImageRef(desc map[string]interface{}) (ImageRef, error) {
	if rawKind, ok := desc["kind"]; ok {
		kind, kok := rawKind.(string)
		name, nok := desc["name"].(string)

		if !kok || !nok || len(desc) != 2 {
			return ImageRef{}, fmt.Errorf(
				"%w: want {kind, name} strings, got %v",
				ErrMalformedImage, desc,
			)
		}

		return ImageRef{Kind: kind, Name: name}, nil
	}

	if len(desc) != 1 {
		return ImageRef{}, fmt.Errorf(
			"%w: want exactly one key, got %d",
			ErrMalformedImage, len(desc),
		)
	}

	for kind, rawName := range desc {
		name, ok := rawName.(string)
		if !ok {
			return ImageRef{}, fmt.Errorf(
				"%w: %s image name is %T, not a string",
				ErrMalformedImage, kind, rawName,
			)
		}

		return ImageRef{Kind: kind, Name: name}, nil
	}

	// Unreachable: len(desc) == 1.
	return ImageRef{}, ErrMalformedImage
}

// ImageTag renders the versioned tag of a taskcluster
// image name.
func ImageTag(name string, vs versions.Versions) (string, error) {
	tpl, ok := imageTemplates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownImage, name)
	}

	return strings.TrimSpace(vs.Expand(tpl)), nil
}

// ResolveImages replaces taskcluster image descriptors
// with versioned tags. String images, jobs without an
// image and images of other kinds pass through untouched.
func ResolveImages(cfg Config, jobs Jobs) Jobs {
	const errCtx = "resolving images"

	return mapJobs(errCtx, jobs, func(jb Job) error {
		return resolveImage(jb, cfg.Versions)
	})
}

func resolveImage(jb Job, vs versions.Versions) error {
	worker, err := jb.Worker()
	if err != nil {
		return err
	}

	raw, found := worker[dockerImageKey]
	if !found {
		return nil
	}

	var desc map[string]interface{}

	switch typedVal := raw.(type) {
	case string:
		return nil
	case map[string]interface{}:
		desc = typedVal
	default:
		return fmt.Errorf(
			"%w: unexpected type %T", ErrMalformedImage, raw,
		)
	}

	ref, err := ParseImageRef(desc)
	if err != nil {
		return err
	}

	if ref.Kind != KindTaskcluster {
		return nil
	}

	tag, err := ImageTag(ref.Name, vs)
	if err != nil {
		return err
	}

	slog.Debug(
		"resolved image",
		"job", jb.Name(),
		"image", ref.Name,
		"tag", tag,
	)

	worker[dockerImageKey] = tag

	return nil
}
