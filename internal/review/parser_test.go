package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FencedJSONWithTrailingComma(t *testing.T) {
	raw := "Here is my review:\n```json\n" +
		`{
  "inline_comments": [
    {"path": "a.go", "line": 10, "body": "nil check missing",},
  ],
  "summary": "Mostly fine.",
}` + "\n```\nHope this helps!"

	result := Parse(raw)

	assert.Equal(t, "Mostly fine.", result.Summary)
	require.Len(t, result.InlineComments, 1)
	assert.Equal(t, InlineComment{Path: "a.go", Line: 10, Body: "nil check missing"}, result.InlineComments[0])
}

func TestParse_BareJSONWithoutFence(t *testing.T) {
	raw := `{"inline_comments": [], "summary": "LGTM."}`

	result := Parse(raw)

	assert.Equal(t, "LGTM.", result.Summary)
	assert.Empty(t, result.InlineComments)
}

func TestParse_NoJSONFallsBackToRawOutput(t *testing.T) {
	result := Parse("no json here")

	assert.Empty(t, result.InlineComments)
	assert.True(t, strings.HasPrefix(result.Summary, "Summary could not be parsed as structured JSON."))
	assert.Contains(t, result.Summary, "no json here")
}

func TestParse_EmptyOutput(t *testing.T) {
	result := Parse("   \n  ")

	assert.Empty(t, result.InlineComments)
	assert.Equal(t, "The review agent did not return any output. Check the CI logs for errors.", result.Summary)
}

func TestParse_UpstreamErrorEnvelope(t *testing.T) {
	raw := `{"error": {"code": 404, "message": "model not found", "status": "NOT_FOUND"}}`

	result := Parse(raw)

	assert.Empty(t, result.InlineComments)
	assert.Contains(t, result.Summary, "Gemini API error.")
	assert.Contains(t, result.Summary, "model not found")
	assert.Contains(t, result.Summary, "GEMINI_MODEL")
}

func TestParse_AlternateKeys(t *testing.T) {
	raw := `{
		"inline_comments": [
			{"file": "b.go", "line": 3, "comment": "unused import"}
		],
		"executive_summary": "One issue found."
	}`

	result := Parse(raw)

	assert.Equal(t, "One issue found.", result.Summary)
	require.Len(t, result.InlineComments, 1)
	assert.Equal(t, InlineComment{Path: "b.go", Line: 3, Body: "unused import"}, result.InlineComments[0])
}

func TestParse_SummaryKeyPriority(t *testing.T) {
	raw := `{"summary": "primary", "executive_summary": "secondary", "inline_comments": []}`

	result := Parse(raw)

	assert.Equal(t, "primary", result.Summary)
}

func TestParse_BracesInsideStringValues(t *testing.T) {
	raw := "prefix {\"summary\": \"use `func() {}` instead of `map[string]any{}`\", \"inline_comments\": []} suffix"

	result := Parse(raw)

	assert.Equal(t, "use `func() {}` instead of `map[string]any{}`", result.Summary)
}

func TestParse_UnbalancedBracesGreedyFallback(t *testing.T) {
	// 閉じブレースが1つ欠けており、貪欲な切り出しでも解析不能
	raw := `{"summary": "truncated output", "inline_comments": [`

	result := Parse(raw)

	assert.Empty(t, result.InlineComments)
	assert.True(t, strings.HasPrefix(result.Summary, "Summary could not be parsed as structured JSON."))
}

func TestParse_MissingSummaryUsesFallback(t *testing.T) {
	raw := `{"inline_comments": [{"path": "c.go", "line": 1, "body": "x"}]}`

	result := Parse(raw)

	require.Len(t, result.InlineComments, 1)
	assert.True(t, strings.HasPrefix(result.Summary, "Summary could not be parsed as structured JSON."))
}

func TestParse_MalformedCommentEntriesKept(t *testing.T) {
	// 欠落フィールドの除外は投稿側の責務で、解析側はそのまま保持する
	raw := `{
		"summary": "ok",
		"inline_comments": [
			{"path": "d.go", "body": "no line"},
			"not an object",
			{"path": "e.go", "line": 7, "body": "fine"}
		]
	}`

	result := Parse(raw)

	require.Len(t, result.InlineComments, 2)
	assert.Equal(t, 0, result.InlineComments[0].Line)
	assert.False(t, result.InlineComments[0].Valid())
	assert.True(t, result.InlineComments[1].Valid())
}

func TestParse_LongRawOutputIsTruncated(t *testing.T) {
	raw := strings.Repeat("あ", 3000)

	result := Parse(raw)

	assert.True(t, strings.HasSuffix(result.Summary, "…"))
	assert.Less(t, len([]rune(result.Summary)), 2000)
}

func TestStripTrailingCommas_KeepsCommasInsideStrings(t *testing.T) {
	in := `{"summary": "a, b,", "list": [1, 2,]}`

	out := stripTrailingCommas(in)

	assert.Equal(t, `{"summary": "a, b,", "list": [1, 2]}`, out)
}

func TestBalancedObject_EscapedQuotes(t *testing.T) {
	in := `{"summary": "say \"hi\" {now}"} trailing`

	obj, ok := balancedObject(in)

	require.True(t, ok)
	assert.Equal(t, `{"summary": "say \"hi\" {now}"}`, obj)
}

func TestInlineCommentValid(t *testing.T) {
	assert.True(t, InlineComment{Path: "a.go", Line: 1, Body: "x"}.Valid())
	assert.False(t, InlineComment{Path: "", Line: 1, Body: "x"}.Valid())
	assert.False(t, InlineComment{Path: "a.go", Line: 0, Body: "x"}.Valid())
	assert.False(t, InlineComment{Path: "a.go", Line: -1, Body: "x"}.Valid())
	assert.False(t, InlineComment{Path: "a.go", Line: 1, Body: ""}.Valid())
}
