package config

import (
	"encoding/json"
	"log/slog"
	"os"
)

// デフォルト値の定義。PRを汚さないため、インラインコメントの上限は控えめに設定しています。
const (
	defaultMaxInlineComments      = 3
	defaultMaxRequiredInSummary   = 3
	defaultMaxGoodToHaveInSummary = 3
	defaultRequiredDescription    = "実際のバグ・セキュリティリスク・マージをブロックすべき品質問題など、必ず修正が必要な指摘。"
	defaultGoodToHaveDescription  = "修正が望ましいが、マージをブロックするほどではない改善提案。"
	defaultGeminiModel            = "gemini-2.5-flash"
	geminiModelEnv                = "GEMINI_MODEL"
)

// ReviewConfig はAIコードレビューの挙動を制御する設定の共通データモデルです。
// すべてのフィールドは明示的なデフォルト値を持ち、ユーザー設定ファイルによる
// 上書きはフィールド単位で行われます。
type ReviewConfig struct {
	MaxInlineComments      int
	AllowGoodToHaveInline  bool
	PostInlineComments     bool
	DiffMaxLines           int // 0 は無制限
	SummaryGrades          []string
	MaxRequiredInSummary   int
	MaxGoodToHaveInSummary int
	RequiredDescription    string
	GoodToHaveDescription  string
	CustomInstructions     string
	Model                  string
}

// Default はすべてのフィールドにデフォルト値を設定した ReviewConfig を返します。
func Default() ReviewConfig {
	return ReviewConfig{
		MaxInlineComments:      defaultMaxInlineComments,
		AllowGoodToHaveInline:  false,
		PostInlineComments:     true,
		DiffMaxLines:           0,
		SummaryGrades:          []string{"Consistency", "Quality", "Security"},
		MaxRequiredInSummary:   defaultMaxRequiredInSummary,
		MaxGoodToHaveInSummary: defaultMaxGoodToHaveInSummary,
		RequiredDescription:    defaultRequiredDescription,
		GoodToHaveDescription:  defaultGoodToHaveDescription,
		CustomInstructions:     "",
		Model:                  "",
	}
}

// override はユーザー設定ファイル（JSON）のデコード先です。
// ポインタ型にすることで「キーなし/null」と「ゼロ値の指定」を区別します。
// 未知のキーは encoding/json が黙って無視します。
type override struct {
	MaxInlineComments      *int      `json:"max_inline_comments"`
	AllowGoodToHaveInline  *bool     `json:"allow_good_to_have_inline"`
	PostInlineComments     *bool     `json:"post_inline_comments"`
	DiffMaxLines           *int      `json:"diff_max_lines"`
	SummaryGrades          *[]string `json:"summary_grades"`
	MaxRequiredInSummary   *int      `json:"max_required_in_summary"`
	MaxGoodToHaveInSummary *int      `json:"max_good_to_have_in_summary"`
	RequiredDescription    *string   `json:"required_description"`
	GoodToHaveDescription  *string   `json:"good_to_have_description"`
	CustomInstructions     *string   `json:"custom_instructions"`
	Model                  *string   `json:"model"`
}

// Merge はデフォルト設定 cfg に対して、JSONバイト列 data の内容をフィールド単位で
// 上書きした結果を返します。data が不正なJSONやオブジェクト以外の場合は cfg を
// そのまま返します（全デフォルトへの縮退）。エラーは返しません。
func Merge(cfg ReviewConfig, data []byte) ReviewConfig {
	var ov override
	if err := json.Unmarshal(data, &ov); err != nil {
		slog.Warn("設定ファイルの解析に失敗したため、デフォルト設定を使用します。", "error", err)
		return cfg
	}

	if ov.MaxInlineComments != nil {
		cfg.MaxInlineComments = *ov.MaxInlineComments
	}
	if ov.AllowGoodToHaveInline != nil {
		cfg.AllowGoodToHaveInline = *ov.AllowGoodToHaveInline
	}
	if ov.PostInlineComments != nil {
		cfg.PostInlineComments = *ov.PostInlineComments
	}
	if ov.DiffMaxLines != nil {
		cfg.DiffMaxLines = *ov.DiffMaxLines
	}
	if ov.SummaryGrades != nil {
		cfg.SummaryGrades = *ov.SummaryGrades
	}
	if ov.MaxRequiredInSummary != nil {
		cfg.MaxRequiredInSummary = *ov.MaxRequiredInSummary
	}
	if ov.MaxGoodToHaveInSummary != nil {
		cfg.MaxGoodToHaveInSummary = *ov.MaxGoodToHaveInSummary
	}
	if ov.RequiredDescription != nil {
		cfg.RequiredDescription = *ov.RequiredDescription
	}
	if ov.GoodToHaveDescription != nil {
		cfg.GoodToHaveDescription = *ov.GoodToHaveDescription
	}
	if ov.CustomInstructions != nil {
		cfg.CustomInstructions = *ov.CustomInstructions
	}
	if ov.Model != nil {
		cfg.Model = *ov.Model
	}

	return cfg
}

// Load はパス path の設定ファイルを読み込み、デフォルト設定にマージして返します。
// path が空、ファイルが存在しない、または内容が不正な場合はデフォルト設定を返します。
func Load(path string) ReviewConfig {
	cfg := Default()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("設定ファイルを読み込めなかったため、デフォルト設定を使用します。", "path", path, "error", err)
		return cfg
	}
	return Merge(cfg, data)
}

// ResolveModel は使用するGeminiモデル名を決定します。
// 優先順位: 設定ファイル > 環境変数 GEMINI_MODEL > デフォルトのモデル名。
func (c ReviewConfig) ResolveModel() string {
	if c.Model != "" {
		return c.Model
	}
	if m := os.Getenv(geminiModelEnv); m != "" {
		return m
	}
	return defaultGeminiModel
}
