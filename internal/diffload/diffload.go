// Package diffload はレビュー対象のPR差分を取得します。
// 優先順位: --diff-file フラグ > 環境変数 PR_DIFF_FILE > 標準入力（パイプ時のみ）。
package diffload

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// truncationMarker は diff_max_lines による切り詰めを示す末尾マーカーです。
const truncationMarker = "... (diff truncated)"

// Load は差分テキストを読み込みます。どのソースからも取得できない場合は
// 空文字列を返します（「差分なし」の判定は呼び出し元の責務）。
func Load(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("PR_DIFF_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("差分ファイルの読み込みに失敗しました (%s): %w", path, err)
		}
		return string(data), nil
	}

	// パイプされている場合のみ標準入力から読む
	if stdinIsPiped() {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("標準入力からの差分読み込みに失敗しました: %w", err)
		}
		return string(data), nil
	}

	return "", nil
}

func stdinIsPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

// Truncate は差分を maxLines 行に切り詰め、切り詰めた場合はマーカー行を付加します。
// maxLines が 0 以下の場合は無制限として扱い、差分をそのまま返します。
func Truncate(diff string, maxLines int) string {
	if maxLines <= 0 {
		return diff
	}
	lines := strings.Split(diff, "\n")
	if len(lines) <= maxLines {
		return diff
	}
	return strings.Join(lines[:maxLines], "\n") + "\n" + truncationMarker
}
