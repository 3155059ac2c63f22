package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 終了コードの定義。CIはこの値で「内容による失敗」と「判定不能」を区別します。
const (
	exitOK            = 0
	exitContentFail   = 1 // 差分なし、未解決スレッドあり
	exitIndeterminate = 2 // 認証情報・設定の不備、通信エラー
)

// exitError はプロセスの終了コードを運ぶエラーです。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// contentFailure は「内容による失敗」（終了コード1）のエラーを生成します。
func contentFailure(format string, args ...any) error {
	return &exitError{code: exitContentFail, err: fmt.Errorf(format, args...)}
}

// indeterminate は「判定不能・設定不備」（終了コード2）のエラーを生成します。
func indeterminate(format string, args ...any) error {
	return &exitError{code: exitIndeterminate, err: fmt.Errorf(format, args...)}
}

// RootCmd はアプリケーションのベースコマンド（"ai-review-bot-go" 本体）です。
var RootCmd = &cobra.Command{
	Use:   "ai-review-bot-go",
	Short: "PRの差分をGemini AIでレビューし、結果をGitHubに投稿するCIヘルパー",
	Long: `このツールは、プルリクエストの差分をGemini APIに渡してコードレビューを行い、
インラインコメントとサマリーをGitHubのPRへ投稿します。

利用可能なサブコマンド:
  review          (差分のレビューとGitHubへの投稿)
  check-resolved  (レビュースレッドの解決状態チェック / マージゲート)`,
	// ベースコマンド自体は処理を持たず、サブコマンドへ処理を委譲します。
	Run: func(cmd *cobra.Command, args []string) {
		// 引数なしで実行された場合などにヘルプを表示
		cmd.Help()
	},
}

// Execute はルートコマンドを実行し、アプリケーションを起動します。
// エラーに終了コードが付与されている場合はその値で、それ以外は1で終了します。
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitContentFail)
	}
}
