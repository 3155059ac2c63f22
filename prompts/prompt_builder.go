package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"ai-review-bot-go/internal/config"
	"ai-review-bot-go/internal/guide"
)

// --- テンプレートのリソース定義 (go:embed) ---

//go:embed system_prompt.md
var systemPromptTemplate string

// ReviewTemplateData はシステムプロンプトのテンプレートに渡すデータ構造です。
type ReviewTemplateData struct {
	StyleGuide             string
	Architecture           string
	AntiPatterns           string
	MaxInlineComments      int
	AllowGoodToHaveInline  bool
	RequiredDescription    string
	GoodToHaveDescription  string
	MaxRequiredInSummary   int
	MaxGoodToHaveInSummary int
	SummaryGradeList       string
	CustomInstructions     string
}

// ReviewPromptBuilder はレビュープロンプトの構成を管理します。
type ReviewPromptBuilder struct {
	tmpl *template.Template
}

// NewReviewPromptBuilder は ReviewPromptBuilder を初期化します。
// テンプレート文字列をパースして保持します。name は主にエラーメッセージの識別に利用されます。
func NewReviewPromptBuilder(name string, templateContent string) (*ReviewPromptBuilder, error) {
	if templateContent == "" {
		return nil, fmt.Errorf("プロンプトテンプレートの内容が空です")
	}

	tmpl, err := template.New(name).Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートの解析に失敗しました: %w", err)
	}
	return &ReviewPromptBuilder{tmpl: tmpl}, nil
}

// NewSystemPromptBuilder は埋め込み済みのシステムプロンプトテンプレートでビルダーを初期化します。
func NewSystemPromptBuilder() (*ReviewPromptBuilder, error) {
	return NewReviewPromptBuilder("system_prompt", systemPromptTemplate)
}

// Build は ReviewTemplateData を埋め込み、最終的なプロンプト文字列を完成させます。
// 同じ入力に対して常に同じ文字列を返す純粋関数で、副作用はありません。
func (b *ReviewPromptBuilder) Build(data ReviewTemplateData) (string, error) {
	if b.tmpl == nil {
		return "", fmt.Errorf("レビュープロンプトテンプレートが初期化されていません")
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("レビュープロンプトの組み立てに失敗しました: %w", err)
	}

	return sb.String(), nil
}

// BuildSystemPrompt はマージ済み設定とガイドライン文書からシステムプロンプトを構築します。
func (b *ReviewPromptBuilder) BuildSystemPrompt(cfg config.ReviewConfig, docs guide.Documents) (string, error) {
	data := ReviewTemplateData{
		StyleGuide:             docs.StyleGuide,
		Architecture:           docs.Architecture,
		AntiPatterns:           docs.AntiPatterns,
		MaxInlineComments:      cfg.MaxInlineComments,
		AllowGoodToHaveInline:  cfg.AllowGoodToHaveInline,
		RequiredDescription:    cfg.RequiredDescription,
		GoodToHaveDescription:  cfg.GoodToHaveDescription,
		MaxRequiredInSummary:   cfg.MaxRequiredInSummary,
		MaxGoodToHaveInSummary: cfg.MaxGoodToHaveInSummary,
		SummaryGradeList:       strings.Join(cfg.SummaryGrades, ", "),
		CustomInstructions:     strings.TrimSpace(cfg.CustomInstructions),
	}
	return b.Build(data)
}

// UserMessage は差分を埋め込んだユーザーメッセージを構築します。
func UserMessage(diff string) string {
	return fmt.Sprintf("Review this git diff and respond with the JSON object only.\n\n```diff\n%s\n```", diff)
}
