package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ai-review-bot-go/internal/adapters"
	"ai-review-bot-go/internal/archive"
	"ai-review-bot-go/internal/config"
	"ai-review-bot-go/internal/diffload"
	"ai-review-bot-go/internal/gha"
	"ai-review-bot-go/internal/gitdiff"
	"ai-review-bot-go/internal/guide"
	"ai-review-bot-go/internal/notify"
	"ai-review-bot-go/internal/publisher"
	"ai-review-bot-go/internal/review"
	"ai-review-bot-go/prompts"
)

// defaultConfigFile は --config 未指定時に探すユーザー設定ファイルです。
const defaultConfigFile = ".ai-review.json"

// summaryHeader はPRのサマリーコメントに付けるヘッダーです。
const summaryHeader = "## AI-Review-Bot"

// reviewFlags は review コマンド固有のフラグを保持します。
type reviewFlags struct {
	ConfigPath      string
	DiffFile        string
	RepoRoot        string
	LocalPath       string
	BaseBranch      string
	FeatureBranch   string
	NoPost          bool
	SlackWebhookURL string
	ArchiveURI      string
}

var revFlags reviewFlags

// reviewCmd は、PR差分のAIレビューを実行し、結果をGitHubに投稿するコマンドです。
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "PR差分のAIレビューを実行し、結果をGitHubのPRに投稿します。",
	Long: `このコマンドは、PRの差分（--diff-file / PR_DIFF_FILE / 標準入力、または
--base-branch と --feature-branch によるローカル比較）をGemini AIでレビューし、
インラインコメントとサマリーをGitHubのプルリクエストへ投稿します。`,
	RunE: runReviewCommand,
}

func init() {
	RootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVarP(&revFlags.ConfigPath, "config", "c", "", fmt.Sprintf("レビュー設定ファイル(JSON)のパス (デフォルト: %s があれば使用)", defaultConfigFile))
	reviewCmd.Flags().StringVarP(&revFlags.DiffFile, "diff-file", "d", "", "レビュー対象の差分ファイル (未指定時は PR_DIFF_FILE → 標準入力)")
	reviewCmd.Flags().StringVar(&revFlags.RepoRoot, "repo-root", ".", "ガイドライン文書を探すリポジトリルート")
	reviewCmd.Flags().StringVarP(&revFlags.LocalPath, "local-path", "p", ".", "ローカル差分比較に使うリポジトリのパス")
	reviewCmd.Flags().StringVarP(&revFlags.BaseBranch, "base-branch", "m", "", "差分比較の基準ブランチ (ローカル比較モード)")
	reviewCmd.Flags().StringVarP(&revFlags.FeatureBranch, "feature-branch", "f", "", "レビュー対象のフィーチャーブランチ (ローカル比較モード)")
	reviewCmd.Flags().BoolVar(&revFlags.NoPost, "no-post", false, "投稿をスキップし、結果を標準出力する")
	reviewCmd.Flags().StringVar(&revFlags.SlackWebhookURL, "slack-webhook-url", os.Getenv("SLACK_WEBHOOK_URL"), "レビューサマリーを通知する Slack Webhook URL (任意)")
	reviewCmd.Flags().StringVar(&revFlags.ArchiveURI, "archive-uri", "", "レビューレポートの保存先GCS URI (例: gs://bucket/path/review.html) (任意)")
}

// --------------------------------------------------------------------------
// コマンドの実行ロジック
// --------------------------------------------------------------------------

func runReviewCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 設定のロードとマージ
	cfg := config.Load(resolveConfigPath(revFlags.ConfigPath))

	// 2. 差分の取得
	diff, err := loadDiff()
	if err != nil {
		return err
	}
	if strings.TrimSpace(diff) == "" {
		return contentFailure("差分が指定されていません。--diff-file か PR_DIFF_FILE を設定するか、標準入力に差分を渡してください。")
	}
	diff = diffload.Truncate(diff, cfg.DiffMaxLines)
	slog.Info("差分の取得に成功しました。", "size_bytes", len(diff))

	// 3. ガイドライン文書のロードとプロンプトの組み立て
	docs := guide.Load(revFlags.RepoRoot)

	promptBuilder, err := prompts.NewSystemPromptBuilder()
	if err != nil {
		return fmt.Errorf("Prompt Builder の構築に失敗しました: %w", err)
	}
	systemPrompt, err := promptBuilder.BuildSystemPrompt(cfg, docs)
	if err != nil {
		return fmt.Errorf("システムプロンプトの組み立てに失敗しました: %w", err)
	}
	userMessage := prompts.UserMessage(diff)

	// 4. AIレビューの実行（この呼び出しがラン全体の単一障害点）
	modelName := cfg.ResolveModel()
	fmt.Println("🚀 Gemini AIによるコードレビューを開始します...")
	slog.Info("Gemini AIによるコードレビューを開始します。", "model", modelName)

	agent, err := adapters.NewGeminiAdapter(ctx, modelName)
	if err != nil {
		return indeterminate("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	raw, err := agent.ReviewCodeDiff(ctx, systemPrompt, userMessage)
	if err != nil {
		return indeterminate("Geminiによるコードレビューに失敗しました: %w", err)
	}

	// 5. 応答の解析（失敗してもフォールバック結果に縮退し、エラーにはならない）
	result := review.Parse(raw)
	summaryBody := summaryHeader + "\n\n" + result.Summary

	if !cfg.PostInlineComments {
		result.InlineComments = []review.InlineComment{}
	}

	// 6. no-post フラグによる出力分岐
	if revFlags.NoPost {
		printReviewResult(result, summaryBody)
		return nil
	}

	// 7. GitHubへの投稿
	gctx := gha.FromEnv()
	if gctx.Token == "" || gctx.Repository == "" || gctx.PRNumber == 0 || gctx.HeadSHA == "" {
		// CI外での実行など。結果を捨てずにJSONで出力して正常終了する
		fmt.Fprintln(os.Stderr, "CIで投稿するには GITHUB_TOKEN, GITHUB_REPOSITORY, PR_NUMBER, HEAD_SHA を設定してください。")
		fmt.Fprintln(os.Stderr, "投稿をスキップし、結果を出力します。")
		printResultJSON(result)
		return nil
	}

	ghClient, err := publisher.NewClient(gctx.Token, gha.APIBaseURL())
	if err != nil {
		return indeterminate("GitHubクライアントの初期化に失敗しました: %w", err)
	}

	fmt.Printf("📤 %s#%d にレビュー結果を投稿します...\n", gctx.Repository, gctx.PRNumber)
	ghClient.Publish(ctx, gctx.Repository, gctx.PRNumber, gctx.HeadSHA,
		result.InlineComments, cfg.MaxInlineComments, summaryBody)

	// 8. 任意の副次出力（失敗してもレビュー自体は成功として扱う）
	if revFlags.SlackWebhookURL != "" {
		slackClient := notify.NewSlackClient(revFlags.SlackWebhookURL)
		if err := slackClient.PostReviewSummary(ctx, result.Summary, gctx.Repository, gctx.PRNumber); err != nil {
			slog.Error("Slackへの通知に失敗しました。", "error", err)
		}
	}

	if revFlags.ArchiveURI != "" {
		title := fmt.Sprintf("AIコードレビュー結果 (%s#%d)", gctx.Repository, gctx.PRNumber)
		if err := archive.SaveReport(ctx, revFlags.ArchiveURI, title, summaryBody); err != nil {
			slog.Error("GCSへのレポート保存に失敗しました。", "error", err)
		}
	}

	fmt.Println("✅ レビューが完了しました。")
	return nil
}

// --------------------------------------------------------------------------
// ヘルパー関数
// --------------------------------------------------------------------------

// resolveConfigPath は --config 未指定時にデフォルト設定ファイルの存在を確認します。
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadDiff はフラグの組み合わせに応じた差分ソースから差分を読み込みます。
func loadDiff() (string, error) {
	if revFlags.BaseBranch != "" && revFlags.FeatureBranch != "" {
		diff, err := gitdiff.Diff(revFlags.LocalPath, revFlags.BaseBranch, revFlags.FeatureBranch)
		if err != nil {
			return "", contentFailure("ローカル差分の取得に失敗しました: %w", err)
		}
		return diff, nil
	}
	return diffload.Load(revFlags.DiffFile)
}

// printReviewResult は no-post 時に結果を標準出力します。
func printReviewResult(result review.Result, summaryBody string) {
	fmt.Println("\n=== インラインコメント ===")
	for _, c := range result.InlineComments {
		fmt.Printf("  %s:%d — %s\n", c.Path, c.Line, c.Body)
	}
	fmt.Println("\n=== サマリー (投稿本文) ===")
	fmt.Println(summaryBody)
}

// printResultJSON は投稿できない場合のフォールバックとして結果をJSONで出力します。
func printResultJSON(result review.Result) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("結果のJSON変換に失敗しました。", "error", err)
		return
	}
	fmt.Println(string(data))
}
