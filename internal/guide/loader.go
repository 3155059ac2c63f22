package guide

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FallbackText は、ガイドラインのドキュメントが存在しない場合にプロンプトへ
// 埋め込まれる固定の代替文字列です。
const FallbackText = "No repository-specific guide found. Apply general best practices: clarity, security, consistency."

// Documents はレビュー対象リポジトリから読み込んだガイドライン文書を保持します。
type Documents struct {
	StyleGuide   string
	Architecture string
	AntiPatterns string
}

// Load はリポジトリルート root 配下の STYLE_GUIDE.md・docs/ARCHITECTURE_IMPROVEMENTS.md・
// docs/ANTI_PATTERNS.md を読み込みます。存在しない・読めないファイルは FallbackText で
// 代替され、エラーは返しません。
func Load(root string) Documents {
	return Documents{
		StyleGuide:   readOrFallback(filepath.Join(root, "STYLE_GUIDE.md")),
		Architecture: readOrFallback(filepath.Join(root, "docs", "ARCHITECTURE_IMPROVEMENTS.md")),
		AntiPatterns: readOrFallback(filepath.Join(root, "docs", "ANTI_PATTERNS.md")),
	}
}

func readOrFallback(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("ガイドライン文書が見つからないため、代替文字列を使用します。", "path", path)
		return FallbackText
	}
	return string(data)
}
