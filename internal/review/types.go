package review

// InlineComment は差分内の特定のファイル・行に紐づくレビューコメントです。
type InlineComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
}

// Valid は投稿に必要な3要素（パス・行番号・本文）がすべて揃っているかを返します。
func (c InlineComment) Valid() bool {
	return c.Path != "" && c.Line > 0 && c.Body != ""
}

// Result はAIレビューの構造化された最終結果です。
// パーサーを通過した Result の Summary は常に非空であることが保証されます。
// InlineComments は nil にならず、空の場合も空スライスです。
type Result struct {
	InlineComments []InlineComment `json:"inline_comments"`
	Summary        string          `json:"summary"`
}
