package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-review-bot-go/internal/gha"
	"ai-review-bot-go/internal/resolve"
)

// resolvedFlags は check-resolved コマンド固有のフラグを保持します。
type resolvedFlags struct {
	Repository string
	PRNumber   int
}

var resFlags resolvedFlags

// resolvedCmd は、PRのレビュースレッドが全て解決済みかを確認するマージゲートです。
var resolvedCmd = &cobra.Command{
	Use:   "check-resolved",
	Short: "PRのレビュースレッドが全て解決済みかを確認します (マージゲート)。",
	Long: `このコマンドは、GitHub GraphQL APIでPRのレビュースレッドを全ページ走査し、
未解決のスレッドが残っていればCIを失敗させます。

終了コード:
  0: 全スレッド解決済み
  1: 未解決スレッドあり
  2: 判定不能 (認証情報の不備・通信エラーなど)`,
	RunE: runCheckResolvedCommand,
}

func init() {
	RootCmd.AddCommand(resolvedCmd)

	resolvedCmd.Flags().StringVar(&resFlags.Repository, "repository", "", "対象リポジトリ (owner/repo 形式、未指定時は GITHUB_REPOSITORY)")
	resolvedCmd.Flags().IntVar(&resFlags.PRNumber, "pr-number", 0, "対象のPR番号 (未指定時は PR_NUMBER / イベントペイロード)")
}

func runCheckResolvedCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	gctx := gha.FromEnv()
	if resFlags.Repository != "" {
		gctx.Repository = resFlags.Repository
	}
	if resFlags.PRNumber != 0 {
		gctx.PRNumber = resFlags.PRNumber
	}

	// 認証情報・対象の不備は「未解決あり」と区別して終了コード2にする
	if gctx.Token == "" {
		return indeterminate("GITHUB_TOKEN が設定されていません。")
	}
	if gctx.Repository == "" {
		return indeterminate("対象リポジトリが特定できません。--repository か GITHUB_REPOSITORY を設定してください。")
	}
	if gctx.PRNumber == 0 {
		return indeterminate("PR番号が特定できません。--pr-number か PR_NUMBER を設定してください。")
	}

	fmt.Printf("🔍 %s#%d のレビュースレッドを確認します...\n", gctx.Repository, gctx.PRNumber)

	checker := resolve.NewChecker(gctx.Token, gha.GraphQLURL())
	unresolved, err := checker.CountUnresolved(ctx, gctx.Repository, gctx.PRNumber)
	if err != nil {
		return indeterminate("レビュースレッドの取得に失敗しました: %w", err)
	}

	if unresolved > 0 {
		return contentFailure("❌ 未解決のレビュースレッドが %d 件あります。解決してから再実行してください。", unresolved)
	}

	fmt.Println("✅ すべてのレビュースレッドは解決済みです。")
	return nil
}
