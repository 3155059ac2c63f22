// Package gha は GitHub Actions の実行環境からレビュー投稿に必要な
// コンテキスト（トークン・リポジトリ・PR番号・HEAD SHA）を収集します。
package gha

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// defaultAPIBase は github.com 向けのREST APIベースURLです。
// GitHub Enterprise では GITHUB_API_URL（例: https://ghe.example.com/api/v3）で上書きされます。
const defaultAPIBase = "https://api.github.com"

// Context は1回の実行で使用するGitHub側の情報一式です。
type Context struct {
	Token      string // GITHUB_TOKEN
	Repository string // owner/repo 形式 (GITHUB_REPOSITORY)
	PRNumber   int
	HeadSHA    string // HEAD_SHA
}

// eventPayload は pull_request イベントペイロードのうち必要な部分だけを写し取ります。
type eventPayload struct {
	PullRequest struct {
		Number int `json:"number"`
		Head   struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
}

// FromEnv は環境変数と GITHUB_EVENT_PATH のイベントペイロードからコンテキストを
// 組み立てます。取得できなかった値はゼロ値のままで、必須チェックは呼び出し元の責務です。
func FromEnv() Context {
	ctx := Context{
		Token:      os.Getenv("GITHUB_TOKEN"),
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		HeadSHA:    os.Getenv("HEAD_SHA"),
	}

	if pr := os.Getenv("PR_NUMBER"); pr != "" {
		if n, err := strconv.Atoi(pr); err == nil {
			ctx.PRNumber = n
		}
	}

	// PR_NUMBER が無い場合は pull_request イベントのペイロードから補完する
	if ctx.PRNumber == 0 || ctx.HeadSHA == "" {
		if payload, ok := readEventPayload(os.Getenv("GITHUB_EVENT_PATH")); ok {
			if ctx.PRNumber == 0 {
				ctx.PRNumber = payload.PullRequest.Number
			}
			if ctx.HeadSHA == "" {
				ctx.HeadSHA = payload.PullRequest.Head.SHA
			}
		}
	}

	return ctx
}

func readEventPayload(path string) (eventPayload, bool) {
	var payload eventPayload
	if path == "" {
		return payload, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, false
	}
	return payload, true
}

// APIBaseURL はREST APIのベースURLを返します（末尾スラッシュは除去）。
func APIBaseURL() string {
	base := os.Getenv("GITHUB_API_URL")
	if base == "" {
		base = defaultAPIBase
	}
	return strings.TrimRight(base, "/")
}

// GraphQLURL はREST APIベースURLからGraphQLエンドポイントを導出します。
// GitHub Enterprise（…/api/v3）では …/api/graphql になります。
func GraphQLURL() string {
	base := APIBaseURL()
	if strings.HasSuffix(base, "/api/v3") {
		return strings.TrimSuffix(base, "/api/v3") + "/api/graphql"
	}
	return base + "/graphql"
}
