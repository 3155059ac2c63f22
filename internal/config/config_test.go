package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.MaxInlineComments)
	assert.False(t, cfg.AllowGoodToHaveInline)
	assert.True(t, cfg.PostInlineComments)
	assert.Equal(t, 0, cfg.DiffMaxLines)
	assert.Equal(t, []string{"Consistency", "Quality", "Security"}, cfg.SummaryGrades)
	assert.Equal(t, 3, cfg.MaxRequiredInSummary)
	assert.Equal(t, 3, cfg.MaxGoodToHaveInSummary)
	assert.NotEmpty(t, cfg.RequiredDescription)
	assert.NotEmpty(t, cfg.GoodToHaveDescription)
	assert.Empty(t, cfg.Model)
}

func TestMerge_FieldLevelOverride(t *testing.T) {
	data := []byte(`{
		"max_inline_comments": 10,
		"allow_good_to_have_inline": true,
		"summary_grades": ["Security"],
		"custom_instructions": "Focus on goroutine leaks."
	}`)

	cfg := Merge(Default(), data)

	assert.Equal(t, 10, cfg.MaxInlineComments)
	assert.True(t, cfg.AllowGoodToHaveInline)
	assert.Equal(t, []string{"Security"}, cfg.SummaryGrades)
	assert.Equal(t, "Focus on goroutine leaks.", cfg.CustomInstructions)

	// 指定されなかったフィールドはデフォルトのまま
	assert.True(t, cfg.PostInlineComments)
	assert.Equal(t, 3, cfg.MaxRequiredInSummary)
}

func TestMerge_ZeroValueOverrideIsRespected(t *testing.T) {
	// 「キーなし」と「ゼロ値の指定」の区別: false や 0 も明示すれば有効
	data := []byte(`{"post_inline_comments": false, "max_inline_comments": 0}`)

	cfg := Merge(Default(), data)

	assert.False(t, cfg.PostInlineComments)
	assert.Equal(t, 0, cfg.MaxInlineComments)
}

func TestMerge_NullAndUnknownKeysIgnored(t *testing.T) {
	data := []byte(`{"max_inline_comments": null, "totally_unknown_key": 42}`)

	cfg := Merge(Default(), data)

	assert.Equal(t, Default(), cfg)
}

func TestMerge_MalformedJSONFallsBackToDefaults(t *testing.T) {
	for _, data := range []string{`{invalid`, `[1, 2, 3]`, `"just a string"`, ``} {
		cfg := Merge(Default(), []byte(data))
		assert.Equal(t, Default(), cfg, "input: %q", data)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	data := []byte(`{"max_inline_comments": 7, "model": "gemini-2.5-pro"}`)

	once := Merge(Default(), data)
	twice := Merge(once, data)

	assert.Equal(t, once, twice)
}

func TestLoad(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "review.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"diff_max_lines": 500}`), 0o644))

		cfg := Load(path)

		assert.Equal(t, 500, cfg.DiffMaxLines)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Equal(t, Default(), cfg)
	})

	t.Run("empty path", func(t *testing.T) {
		assert.Equal(t, Default(), Load(""))
	})
}

func TestResolveModel(t *testing.T) {
	t.Run("config value wins", func(t *testing.T) {
		t.Setenv("GEMINI_MODEL", "gemini-from-env")
		cfg := Default()
		cfg.Model = "gemini-from-config"

		assert.Equal(t, "gemini-from-config", cfg.ResolveModel())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("GEMINI_MODEL", "gemini-from-env")

		assert.Equal(t, "gemini-from-env", Default().ResolveModel())
	})

	t.Run("built-in default", func(t *testing.T) {
		t.Setenv("GEMINI_MODEL", "")

		assert.Equal(t, "gemini-2.5-flash", Default().ResolveModel())
	})
}
