// Package resolve はPRのレビュースレッドの解決状態をGraphQL APIで確認します。
// マージゲートとして、未解決スレッドが残っている間はCIを失敗させるために使います。
package resolve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// pageSize は1ページあたりに取得するレビュースレッド数です。
const pageSize = 100

const reviewThreadsQuery = `query($owner: String!, $name: String!, $number: Int!, $after: String) {
	repository(owner: $owner, name: $name) {
		pullRequest(number: $number) {
			reviewThreads(first: 100, after: $after) {
				nodes { isResolved }
				pageInfo { hasNextPage endCursor }
			}
		}
	}
}`

// graphqlRequest はGraphQL APIへ送信するJSONボディです。
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse はレビュースレッド照会の応答のうち必要な部分だけを写し取ります。
// isResolved はポインタ型にして「明示的に false」と「フィールドなし」を区別します。
type graphqlResponse struct {
	Data struct {
		Repository struct {
			PullRequest *struct {
				ReviewThreads struct {
					Nodes []struct {
						IsResolved *bool `json:"isResolved"`
					} `json:"nodes"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"reviewThreads"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Checker はGraphQLエンドポイントへの問い合わせを管理します。
type Checker struct {
	httpClient *http.Client
	graphqlURL string
	token      string
}

// NewChecker はCheckerを初期化します。
// ネットワークのハングアップを防ぐため、30秒のタイムアウトを設定します。
func NewChecker(token, graphqlURL string) *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		graphqlURL: graphqlURL,
		token:      token,
	}
}

// NewCheckerWithHTTPClient はテスト用に任意の http.Client を注入します。
func NewCheckerWithHTTPClient(httpClient *http.Client, token, graphqlURL string) *Checker {
	return &Checker{
		httpClient: httpClient,
		graphqlURL: graphqlURL,
		token:      token,
	}
}

// CountUnresolved は全ページを走査し、isResolved が明示的に false のスレッド数を
// 返します。通信・認可・GraphQLエラーはそのまま返し、呼び出し元が「判定不能」の
// 終了コードに変換します（「未解決あり」の終了コードとは区別されます）。
func (c *Checker) CountUnresolved(ctx context.Context, repoFullName string, prNumber int) (int, error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, fmt.Errorf("リポジトリ名は owner/repo 形式である必要があります: %q", repoFullName)
	}
	owner, name := parts[0], parts[1]

	total := 0
	var cursor *string

	for {
		resp, err := c.fetchPage(ctx, owner, name, prNumber, cursor)
		if err != nil {
			return 0, err
		}

		pr := resp.Data.Repository.PullRequest
		if pr == nil {
			// PRが見つからない場合はスレッドなしとして扱う
			break
		}

		threads := pr.ReviewThreads
		for _, node := range threads.Nodes {
			if node.IsResolved != nil && !*node.IsResolved {
				total++
			}
		}

		if !threads.PageInfo.HasNextPage || threads.PageInfo.EndCursor == "" {
			break
		}
		next := threads.PageInfo.EndCursor
		cursor = &next
	}

	return total, nil
}

func (c *Checker) fetchPage(ctx context.Context, owner, name string, prNumber int, cursor *string) (*graphqlResponse, error) {
	reqBody := graphqlRequest{
		Query: reviewThreadsQuery,
		Variables: map[string]any{
			"owner":  owner,
			"name":   name,
			"number": prNumber,
			"after":  cursor,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("GraphQLリクエストの構築に失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GraphQLリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("GraphQLリクエストの送信に失敗しました: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GraphQL APIがステータスコード %d を返しました", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("GraphQL応答の解析に失敗しました: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL APIがエラーを返しました: %s", gqlResp.Errors[0].Message)
	}

	return &gqlResp, nil
}
