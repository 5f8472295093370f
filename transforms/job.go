package transforms

import (
	"errors"
	"fmt"
	"iter"

	"github.com/byte4ever/taskgraph_transforms/ci/params"
	"github.com/byte4ever/taskgraph_transforms/versions"
)

// ErrMissingWorker is returned for a job without a worker
// mapping.
var ErrMissingWorker = errors.New("job has no worker mapping")

// Job is a single job descriptor as decoded from the
// task-graph kind definitions.
type Job map[string]interface{}

// Jobs is a lazy, finite, single-pass sequence of jobs. A
// non-nil error is always the last element yielded.
type Jobs = iter.Seq2[Job, error]

// Config is the read-only context handed to every stage.
type Config struct {
	Params   params.Params
	Versions versions.Versions
}

// Name returns the job label, falling back to its name.
// It returns an empty string when neither is set.
func (jb Job) Name() string {
	for _, key := range []string{"label", "name"} {
		if val, ok := jb[key].(string); ok && val != "" {
			return val
		}
	}

	return ""
}

// Worker returns the worker mapping of the job.
func (jb Job) Worker() (map[string]interface{}, error) {
	worker, ok := jb["worker"].(map[string]interface{})
	if !ok {
		return nil, ErrMissingWorker
	}

	return worker, nil
}

// FromSlice returns a sequence yielding jobs in order.
func FromSlice(jobs []Job) Jobs {
	return func(yield func(Job, error) bool) {
		for _, jb := range jobs {
			if !yield(jb, nil) {
				return
			}
		}
	}
}

// Collect drains jobs into a slice. It stops at the first
// error and returns it with a nil slice.
func Collect(jobs Jobs) ([]Job, error) {
	var out []Job

	for jb, err := range jobs {
		if err != nil {
			return nil, err
		}

		out = append(out, jb)
	}

	return out, nil
}

// mapJobs builds a stage that applies fn to each job.
// The stage stops pulling from its input after the first
// error, which it yields wrapped with errCtx and the job
// name.
func mapJobs(
	errCtx string,
	jobs Jobs,
	fn func(Job) error,
) Jobs {
	return func(yield func(Job, error) bool) {
		for jb, err := range jobs {
			if err != nil {
				yield(nil, err)
				return
			}

			if err := fn(jb); err != nil {
				yield(nil, wrapJobErr(errCtx, jb, err))
				return
			}

			if !yield(jb, nil) {
				return
			}
		}
	}
}

func wrapJobErr(errCtx string, jb Job, err error) error {
	if name := jb.Name(); name != "" {
		return fmt.Errorf("%s: job %q: %w", errCtx, name, err)
	}

	return fmt.Errorf("%s: %w", errCtx, err)
}
