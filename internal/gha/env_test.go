package gha

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearGitHubEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GITHUB_TOKEN", "GITHUB_REPOSITORY", "PR_NUMBER", "HEAD_SHA", "GITHUB_EVENT_PATH", "GITHUB_API_URL"} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_DirectVariables(t *testing.T) {
	clearGitHubEnv(t)
	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("GITHUB_REPOSITORY", "octo/demo")
	t.Setenv("PR_NUMBER", "42")
	t.Setenv("HEAD_SHA", "abc123")

	ctx := FromEnv()

	assert.Equal(t, Context{Token: "tok", Repository: "octo/demo", PRNumber: 42, HeadSHA: "abc123"}, ctx)
}

func TestFromEnv_FallsBackToEventPayload(t *testing.T) {
	clearGitHubEnv(t)
	payload := `{"pull_request": {"number": 7, "head": {"sha": "deadbeef"}}}`
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	t.Setenv("GITHUB_EVENT_PATH", path)

	ctx := FromEnv()

	assert.Equal(t, 7, ctx.PRNumber)
	assert.Equal(t, "deadbeef", ctx.HeadSHA)
}

func TestFromEnv_DirectVariablesWinOverPayload(t *testing.T) {
	clearGitHubEnv(t)
	payload := `{"pull_request": {"number": 7, "head": {"sha": "deadbeef"}}}`
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	t.Setenv("GITHUB_EVENT_PATH", path)
	t.Setenv("PR_NUMBER", "42")
	t.Setenv("HEAD_SHA", "abc123")

	ctx := FromEnv()

	assert.Equal(t, 42, ctx.PRNumber)
	assert.Equal(t, "abc123", ctx.HeadSHA)
}

func TestFromEnv_InvalidValuesLeftZero(t *testing.T) {
	clearGitHubEnv(t)
	t.Setenv("PR_NUMBER", "not-a-number")
	t.Setenv("GITHUB_EVENT_PATH", filepath.Join(t.TempDir(), "missing.json"))

	ctx := FromEnv()

	assert.Equal(t, 0, ctx.PRNumber)
	assert.Empty(t, ctx.HeadSHA)
}

func TestAPIBaseURL(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("GITHUB_API_URL", "")
		assert.Equal(t, "https://api.github.com", APIBaseURL())
	})

	t.Run("enterprise with trailing slash", func(t *testing.T) {
		t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3/")
		assert.Equal(t, "https://ghe.example.com/api/v3", APIBaseURL())
	})
}

func TestGraphQLURL(t *testing.T) {
	t.Run("github.com", func(t *testing.T) {
		t.Setenv("GITHUB_API_URL", "")
		assert.Equal(t, "https://api.github.com/graphql", GraphQLURL())
	})

	t.Run("enterprise api/v3 becomes api/graphql", func(t *testing.T) {
		t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")
		assert.Equal(t, "https://ghe.example.com/api/graphql", GraphQLURL())
	})
}
