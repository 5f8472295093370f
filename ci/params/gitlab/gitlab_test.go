package gitlab_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glres "github.com/byte4ever/taskgraph_transforms/ci/params/gitlab"
)

func TestNewResolver_valid(t *testing.T) {
	t.Parallel()

	rs, err := glres.NewResolver(glres.Config{
		Project:     "org/project",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, rs)
}

func TestNewResolver_custom_host(t *testing.T) {
	t.Parallel()

	rs, err := glres.NewResolver(glres.Config{
		Host:        "https://gitlab.example.com",
		Project:     "org/project",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, rs)
}

func TestNewResolver_missing_token(t *testing.T) {
	t.Parallel()

	rs, err := glres.NewResolver(glres.Config{
		Project: "org/project",
	})

	assert.Nil(t, rs)
	assert.ErrorContains(t, err, "access token")
}

func TestNewResolver_missing_project(t *testing.T) {
	t.Parallel()

	rs, err := glres.NewResolver(glres.Config{
		AccessToken: "tok",
	})

	assert.Nil(t, rs)
	assert.ErrorContains(t, err, "project must be set")
}

func TestBranchHead(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(
				r.URL.Path, "/repository/branches/main",
			) {
				http.NotFound(w, r)
				return
			}

			if r.Header.Get("Private-Token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte( //nolint:errcheck // test server
				`{"name":"main","commit":{"id":"feedface"}}`,
			))
		},
	))
	t.Cleanup(srv.Close)

	rs, err := glres.NewResolver(glres.Config{
		Host:        srv.URL,
		Project:     "org/project",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	sha, err := rs.BranchHead(
		context.Background(), "refs/heads/main",
	)

	require.NoError(t, err)
	assert.Equal(t, "feedface", sha)
}

func TestBranchHead_not_found(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	rs, err := glres.NewResolver(glres.Config{
		Host:        srv.URL,
		Project:     "org/project",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	_, err = rs.BranchHead(context.Background(), "gone")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "org/project@gone")
}

func TestBranchHead_no_commit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"main"}`)) //nolint:errcheck // test server
		},
	))
	t.Cleanup(srv.Close)

	rs, err := glres.NewResolver(glres.Config{
		Host:        srv.URL,
		Project:     "org/project",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	_, err = rs.BranchHead(context.Background(), "main")

	require.ErrorIs(t, err, glres.ErrNoCommit)
}
