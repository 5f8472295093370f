package transforms

import (
	"errors"
	"fmt"
)

// Environment variables exported to every worker.
const (
	EnvRepoURL = "GITHUB_REPO_URL"
	EnvBranch  = "GITHUB_BRANCH"
	EnvSHA     = "GITHUB_SHA"
)

// ErrMalformedEnv is returned when worker.env exists but
// is not a mapping.
var ErrMalformedEnv = errors.New("worker env is not a mapping")

// InjectEnv sets the repository URL, branch and revision in
// every worker environment, creating worker.env when it is
// missing. Existing values for those keys are overwritten.
func InjectEnv(cfg Config, jobs Jobs) Jobs {
	const errCtx = "injecting env"

	return mapJobs(errCtx, jobs, func(jb Job) error {
		worker, err := jb.Worker()
		if err != nil {
			return err
		}

		var env map[string]interface{}

		switch typedVal := worker["env"].(type) {
		case nil:
			env = make(map[string]interface{}, 3)
			worker["env"] = env
		case map[string]interface{}:
			env = typedVal
		default:
			return fmt.Errorf(
				"%w: got %T", ErrMalformedEnv, typedVal,
			)
		}

		env[EnvRepoURL] = cfg.Params.HeadRepository
		env[EnvBranch] = cfg.Params.HeadRef
		env[EnvSHA] = cfg.Params.HeadRev

		return nil
	})
}
