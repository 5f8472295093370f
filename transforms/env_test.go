package transforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/taskgraph_transforms/ci/params"
	"github.com/byte4ever/taskgraph_transforms/transforms"
)

func testParams() params.Params {
	return params.Params{
		HeadRepository: "https://github.com/taskcluster/taskcluster",
		HeadRef:        "main",
		HeadRev:        "abc123",
	}
}

func envOf(tb testing.TB, jb transforms.Job) map[string]interface{} {
	tb.Helper()

	worker, err := jb.Worker()
	require.NoError(tb, err)

	env, ok := worker["env"].(map[string]interface{})
	require.True(tb, ok, "worker.env must be a mapping")

	return env
}

func injectAll(
	cfg transforms.Config,
	jobs []transforms.Job,
) ([]transforms.Job, error) {
	return transforms.Collect(
		transforms.InjectEnv(cfg, transforms.FromSlice(jobs)),
	)
}

func TestInjectEnv_creates_env(t *testing.T) {
	t.Parallel()

	out, err := injectAll(
		transforms.Config{Params: testParams()},
		[]transforms.Job{
			{"worker": map[string]interface{}{}},
		},
	)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]interface{}{
		transforms.EnvRepoURL: "https://github.com/taskcluster/taskcluster",
		transforms.EnvBranch:  "main",
		transforms.EnvSHA:     "abc123",
	}, envOf(t, out[0]))
}

func TestInjectEnv_keeps_other_keys_and_overwrites(t *testing.T) {
	t.Parallel()

	out, err := injectAll(
		transforms.Config{Params: testParams()},
		[]transforms.Job{
			{"worker": map[string]interface{}{
				"env": map[string]interface{}{
					"NODE_ENV":   "test",
					"GITHUB_SHA": "stale",
				},
			}},
		},
	)

	require.NoError(t, err)

	env := envOf(t, out[0])
	assert.Equal(t, "test", env["NODE_ENV"])
	assert.Equal(t, "abc123", env[transforms.EnvSHA])
	assert.Len(t, env, 4)
}

func TestInjectEnv_null_env_is_replaced(t *testing.T) {
	t.Parallel()

	out, err := injectAll(
		transforms.Config{Params: testParams()},
		[]transforms.Job{
			{"worker": map[string]interface{}{"env": nil}},
		},
	)

	require.NoError(t, err)
	assert.Len(t, envOf(t, out[0]), 3)
}

func TestInjectEnv_idempotent(t *testing.T) {
	t.Parallel()

	cfg := transforms.Config{Params: testParams()}

	first, err := injectAll(cfg, []transforms.Job{
		{"worker": map[string]interface{}{}},
	})
	require.NoError(t, err)

	snapshot := map[string]interface{}{}
	for key, val := range envOf(t, first[0]) {
		snapshot[key] = val
	}

	second, err := injectAll(cfg, first)
	require.NoError(t, err)

	assert.Equal(t, snapshot, envOf(t, second[0]))
}

func TestInjectEnv_last_writer_wins(t *testing.T) {
	t.Parallel()

	cfg := transforms.Config{Params: testParams()}

	first, err := injectAll(cfg, []transforms.Job{
		{"worker": map[string]interface{}{}},
	})
	require.NoError(t, err)

	cfg.Params.HeadRev = "def456"

	second, err := injectAll(cfg, first)
	require.NoError(t, err)

	assert.Equal(t, "def456", envOf(t, second[0])[transforms.EnvSHA])
}

func TestInjectEnv_malformed_env(t *testing.T) {
	t.Parallel()

	_, err := injectAll(
		transforms.Config{Params: testParams()},
		[]transforms.Job{
			{
				"label":  "bad",
				"worker": map[string]interface{}{"env": []interface{}{"A=1"}},
			},
		},
	)

	require.ErrorIs(t, err, transforms.ErrMalformedEnv)
	assert.Contains(t, err.Error(), `job "bad"`)
}

func TestInjectEnv_missing_worker(t *testing.T) {
	t.Parallel()

	_, err := injectAll(
		transforms.Config{Params: testParams()},
		[]transforms.Job{{"label": "x"}},
	)

	require.ErrorIs(t, err, transforms.ErrMissingWorker)
}

func TestInjectEnv_preserves_order(t *testing.T) {
	t.Parallel()

	in := []transforms.Job{
		{"label": "one", "worker": map[string]interface{}{}},
		{"label": "two", "worker": map[string]interface{}{}},
		{"label": "three", "worker": map[string]interface{}{}},
	}

	out, err := injectAll(transforms.Config{Params: testParams()}, in)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "one", out[0].Name())
	assert.Equal(t, "two", out[1].Name())
	assert.Equal(t, "three", out[2].Name())
}
