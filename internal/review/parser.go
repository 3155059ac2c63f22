package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fallbackMaxRunes はフォールバックサマリーに含める生出力の最大文字数です。
const fallbackMaxRunes = 1800

// fenceRe はMarkdownのコードフェンス（言語タグの有無は問わない）の内側を抽出します。
var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// apiErrorEnvelope は、モデルの応答そのものがAPIのエラーペイロードだった場合の形です。
type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Parse はモデルの自由形式テキスト出力から構造化されたレビュー結果を復元します。
//
// 解析は次の優先順位で行われます:
//  1. 上流エラー検出（エラーペイロードが「正常な」JSONとして解釈される前に処理する）
//  2. コードフェンス内からの釣り合いブレース走査による抽出
//  3. テキスト全体に対する釣り合いブレース走査
//  4. 最初の '{' から最後の '}' までの貪欲な切り出し
//  5. 末尾カンマの除去と構文解析・正規化
//
// どの経路で失敗しても、非空の Summary を持つ利用可能な結果に縮退します。
// この関数がエラーを返すことはありません。
func Parse(raw string) Result {
	trimmed := strings.TrimSpace(raw)

	if result, ok := parseUpstreamError(trimmed); ok {
		return result
	}

	candidate, ok := extractCandidate(trimmed)
	if !ok {
		return fallbackResult(trimmed)
	}

	repaired := stripTrailingCommas(candidate)

	var top map[string]any
	if err := json.Unmarshal([]byte(repaired), &top); err != nil {
		return fallbackResult(trimmed)
	}

	return normalize(top, trimmed)
}

// parseUpstreamError は、生テキスト自体がAPIエラーオブジェクトに見える場合の処理です。
// エラーペイロードは inline_comments を持たない有効なJSONとして解釈されてしまうため、
// 他のすべての解析より先に判定します。
func parseUpstreamError(raw string) (Result, bool) {
	if !strings.Contains(raw, `"error"`) || !strings.Contains(raw, `"code"`) || !strings.Contains(raw, `"message"`) {
		return Result{}, false
	}

	var env apiErrorEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Result{}, false
	}

	msg := env.Error.Message
	if msg == "" {
		msg = truncateRunes(raw, 500)
	}

	summary := fmt.Sprintf(
		"**Gemini API error.** The review could not be completed.\n\nMessage: %s\n\n"+
			"Common fixes: set `GEMINI_MODEL` to a current model (e.g. `gemini-2.5-flash`) "+
			"or check the Gemini model documentation.",
		msg,
	)
	return Result{InlineComments: []InlineComment{}, Summary: summary}, true
}

// extractCandidate はJSONオブジェクトらしき部分文字列を抽出します。
func extractCandidate(raw string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		if obj, ok := balancedObject(m[1]); ok {
			return obj, true
		}
	}

	if obj, ok := balancedObject(raw); ok {
		return obj, true
	}

	// 釣り合いが取れない場合の貪欲なフォールバック
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], true
	}

	return "", false
}

// balancedObject は最初の '{' からネスト深さを追跡して、最初に釣り合う
// トップレベルオブジェクトの部分文字列を返します。コメント本文などの文字列値に
// 含まれる '{' '}' で深さがずれないよう、二重引用符内の走査状態を保持し、
// バックスラッシュでエスケープされた文字は1単位としてスキップします。
func balancedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// stripTrailingCommas は ']' または '}' の直前にある末尾カンマを除去します。
// モデルはこの形のJSONを頻繁に出力しますが、encoding/json は受け付けません。
// 文字列リテラル内のカンマは対象外です。
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // 末尾カンマを捨てる
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// normalize は解析済みのトップレベルオブジェクトから Result を構築します。
// サマリーは summary / executive_summary / overall_summary の順で最初の非空値を
// 採用し、どれも使えない場合はフォールバックサマリーで契約を守ります。
func normalize(top map[string]any, raw string) Result {
	result := Result{InlineComments: []InlineComment{}}

	for _, key := range []string{"summary", "executive_summary", "overall_summary"} {
		if s, ok := top[key].(string); ok && strings.TrimSpace(s) != "" {
			result.Summary = strings.TrimSpace(s)
			break
		}
	}
	if result.Summary == "" {
		result.Summary = fallbackSummary(raw)
	}

	items, _ := top["inline_comments"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		result.InlineComments = append(result.InlineComments, InlineComment{
			Path: stringValue(entry, "path", "file"),
			Line: intValue(entry, "line"),
			Body: stringValue(entry, "body", "comment"),
		})
	}

	return result
}

// stringValue は主キー・代替キーの順に最初の非空文字列を返します。
func stringValue(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := entry[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intValue(entry map[string]any, key string) int {
	if f, ok := entry[key].(float64); ok {
		return int(f)
	}
	return 0
}

func fallbackResult(raw string) Result {
	return Result{InlineComments: []InlineComment{}, Summary: fallbackSummary(raw)}
}

// fallbackSummary はJSONの復元に失敗した場合の代替サマリーを構築します。
// Summary が空になることはない、という契約をここで守ります。
func fallbackSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "The review agent did not return any output. Check the CI logs for errors."
	}
	return "Summary could not be parsed as structured JSON. Below is the raw agent output (truncated):\n\n---\n\n" +
		truncateRunes(strings.TrimSpace(raw), fallbackMaxRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
