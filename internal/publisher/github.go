// Package publisher はレビュー結果をGitHubのプルリクエストへ投稿します。
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"ai-review-bot-go/internal/review"
)

// maxCommentBytes はGitHubが受け付けるコメント本文の上限です。
const maxCommentBytes = 65536

// Client は go-github をラップしたPR投稿用クライアントです。
type Client struct {
	gh *gh.Client
}

// NewClient は次のトランスポート構成でGitHub APIクライアントを生成します:
//  1. httpcache（ETagベースの条件付きリクエストキャッシュ）
//  2. go-github-ratelimit（セカンダリレート制限時のスリープ）
//  3. go-github（PAT認証付きRESTクライアント）
//
// baseURL が空でない場合（GitHub Enterprise など）はAPIのベースURLを差し替えます。
func NewClient(token, baseURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	if baseURL != "" && baseURL != "https://api.github.com" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("GITHUB_API_URL の解析に失敗しました: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client}, nil
}

// NewClientWithHTTPClient はテスト用に任意の http.Client とベースURLを注入します。
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient).WithAuthToken(token)

	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("ベースURLの解析に失敗しました: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// Publish はインラインコメントとサマリーコメントをPRへ投稿します。
//
// インラインコメントは maxInline 件に切り詰めたうえで、パス・行番号・本文の
// いずれかが欠けているものを除外し、1件ずつ行アンカー付きコメントとして投稿します。
// 個々のリクエストの失敗はエラーストリームへログ出力するのみで、残りの投稿を
// 中断しません。プロセスの終了ステータスにも影響しません。
func (c *Client) Publish(
	ctx context.Context,
	repoFullName string,
	prNumber int,
	headSHA string,
	comments []review.InlineComment,
	maxInline int,
	summaryBody string,
) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		slog.Error("リポジトリ名の解析に失敗したため、投稿をスキップします。", "repo", repoFullName, "error", err)
		return
	}

	if maxInline >= 0 && len(comments) > maxInline {
		comments = comments[:maxInline]
	}

	for _, comment := range comments {
		if !comment.Valid() {
			slog.Warn("不完全なインラインコメントを破棄しました。",
				"path", comment.Path, "line", comment.Line)
			continue
		}
		c.postInlineComment(ctx, owner, repo, prNumber, headSHA, comment)
	}

	c.postSummaryComment(ctx, owner, repo, prNumber, summaryBody)
}

// postInlineComment は1件の行アンカー付きレビューコメントを投稿します。
func (c *Client) postInlineComment(ctx context.Context, owner, repo string, prNumber int, headSHA string, comment review.InlineComment) {
	req := &gh.PullRequestComment{
		CommitID: gh.Ptr(headSHA),
		Path:     gh.Ptr(comment.Path),
		Line:     gh.Ptr(comment.Line),
		Body:     gh.Ptr(truncateBytes(comment.Body, maxCommentBytes)),
		Side:     gh.Ptr("RIGHT"),
	}

	_, _, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, prNumber, req)
	if err != nil {
		slog.Error("インラインコメントの投稿に失敗しました。",
			"path", comment.Path, "line", comment.Line, "error", err)
	}
}

// postSummaryComment はサマリーを1件の会話コメントとして投稿します。
func (c *Client) postSummaryComment(ctx context.Context, owner, repo string, prNumber int, body string) {
	comment := &gh.IssueComment{
		Body: gh.Ptr(truncateBytes(strings.TrimSpace(body), maxCommentBytes)),
	}

	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, prNumber, comment)
	if err != nil {
		slog.Error("サマリーコメントの投稿に失敗しました。", "error", err)
		return
	}
	fmt.Println("✅ サマリーコメントをPRに投稿しました。")
}

func splitRepo(repoFullName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("リポジトリ名は owner/repo 形式である必要があります: %q", repoFullName)
	}
	return parts[0], parts[1], nil
}

func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
