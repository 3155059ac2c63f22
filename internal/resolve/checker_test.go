package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadsPage はテスト用のGraphQL応答1ページ分を構築します。
func threadsPage(resolved []bool, hasNext bool, endCursor string) string {
	nodes := make([]map[string]any, len(resolved))
	for i, r := range resolved {
		nodes[i] = map[string]any{"isResolved": r}
	}
	page := map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"pullRequest": map[string]any{
					"reviewThreads": map[string]any{
						"nodes": nodes,
						"pageInfo": map[string]any{
							"hasNextPage": hasNext,
							"endCursor":   endCursor,
						},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(page)
	return string(data)
}

func newTestChecker(t *testing.T, handler http.HandlerFunc) *Checker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCheckerWithHTTPClient(server.Client(), "test-token", server.URL)
}

func TestCountUnresolved_SinglePage(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "octo", req.Variables["owner"])
		assert.Equal(t, "demo", req.Variables["name"])
		assert.Equal(t, float64(42), req.Variables["number"])

		fmt.Fprint(w, threadsPage([]bool{true, false, false}, false, ""))
	})

	count, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountUnresolved_AllResolved(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, threadsPage([]bool{true, true}, false, ""))
	})

	count, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCountUnresolved_PaginatesAllPages(t *testing.T) {
	var cursors []any
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cursors = append(cursors, req.Variables["after"])

		if req.Variables["after"] == nil {
			fmt.Fprint(w, threadsPage([]bool{true, true}, true, "CURSOR1"))
			return
		}
		fmt.Fprint(w, threadsPage([]bool{false, true}, false, ""))
	})

	count, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, cursors, 2)
	assert.Nil(t, cursors[0])
	assert.Equal(t, "CURSOR1", cursors[1])
}

func TestCountUnresolved_MissingPullRequest(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {"repository": {"pullRequest": null}}}`)
	})

	count, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCountUnresolved_GraphQLErrorPropagates(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "Bad credentials"}]}`)
	})

	_, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestCountUnresolved_HTTPErrorPropagates(t *testing.T) {
	checker := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := checker.CountUnresolved(context.Background(), "octo/demo", 42)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCountUnresolved_InvalidRepoName(t *testing.T) {
	checker := NewChecker("token", "http://unused.invalid")

	_, err := checker.CountUnresolved(context.Background(), "bad-name", 1)

	assert.Error(t, err)
}
