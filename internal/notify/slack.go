// Package notify はレビュー完了をSlackチャンネルへ通知します。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackClient は Slack Incoming Webhook と連携するためのクライアントです。
type SlackClient struct {
	WebhookURL string
	httpClient *http.Client
}

// NewSlackClient は SlackClient の新しいインスタンスを作成します。
func NewSlackClient(webhookURL string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		httpClient: &http.Client{
			// ネットワークのハングアップを防ぐため、10秒のタイムアウトを設定
			Timeout: 10 * time.Second,
		},
	}
}

// PostReviewSummary はレビューサマリーを Block Kit メッセージとして投稿します。
func (c *SlackClient) PostReviewSummary(ctx context.Context, summary, repoFullName string, prNumber int) error {

	// 1. 通知用の代替テキストを構築
	notificationText := fmt.Sprintf("✅ AIレビュー完了: %s#%d", repoFullName, prNumber)

	// 2. Block Kitコンポーネントの構築
	headerBlock := slack.NewHeaderBlock(
		slack.NewTextBlockObject("plain_text", "🤖 AI Code Review Result:", true, false),
	)

	sectionBlock := slack.NewSectionBlock(
		slack.NewTextBlockObject("mrkdwn", summary, false, false),
		nil, // Fields (列) は使用しない
		nil, // Accessory (ボタンなど) は使用しない
	)

	msg := slack.WebhookMessage{
		Text: notificationText,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{headerBlock, sectionBlock},
		},
	}

	// 3. JSONペイロードに変換
	jsonPayload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	// 4. HTTPリクエスト処理
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to build Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to Slack: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("Slack APIレスポンスボディのクローズに失敗しました。", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack API returned non-OK status code: %s", resp.Status)
	}

	return nil
}
