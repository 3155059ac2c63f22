package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/shouni/go-ai-client/v2/pkg/ai/gemini"
)

const (
	// コードレビューの一貫性を優先するため、低い温度に設定
	defaultGeminiTemperature = float32(0.2)
	// 一時的なネットワークエラーやAPIのレート制限に対応するためのリトライ回数
	defaultGeminiMaxRetries = uint64(3)
)

// CodeReviewAI は、レビューエージェントとの通信機能の抽象化を提供し、DIで使用されます。
// 実装はシステムプロンプトと差分入りユーザーメッセージを送信し、モデルの生テキスト
// 出力を加工せずに返します。
type CodeReviewAI interface {
	ReviewCodeDiff(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// GeminiAdapter は go-ai-client の gemini.Client をラップし、
// CodeReviewAI インターフェースを実装する具体的な構造体です。
type GeminiAdapter struct {
	client    *gemini.Client
	modelName string
}

// NewGeminiAdapter はGeminiAdapterを初期化し、CodeReviewAIインターフェースとして返します。
// APIキーは GEMINI_API_KEY → GOOGLE_API_KEY の順で環境変数から取得します。
// キーが未設定の場合はエラーを返し、呼び出し元でプロセスを終了させます（リトライなし、
// この呼び出しがラン全体の単一障害点です）。
func NewGeminiAdapter(ctx context.Context, modelName string) (CodeReviewAI, error) {

	// 1. APIキーを環境変数から取得
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable is not set")
	}

	// 2. モデルパラメータとリトライ設定を定義
	temperature := defaultGeminiTemperature
	maxRetries := defaultGeminiMaxRetries

	// 3. gemini.Config 構造体を構築
	cfg := gemini.Config{
		APIKey:      apiKey,
		Temperature: &temperature,
		MaxRetries:  maxRetries,
	}

	// 4. gemini.NewClient を利用してクライアントを生成
	gClient, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize underlying gemini client: %w", err)
	}

	return &GeminiAdapter{
		client:    gClient,
		modelName: modelName,
	}, nil
}

// ReviewCodeDiff は CodeReviewAI インターフェースを満たします。
// go-ai-client は単一プロンプトを受け取るため、システムプロンプトとユーザー
// メッセージを区切り線で結合して送信します。
func (ga *GeminiAdapter) ReviewCodeDiff(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	finalPrompt := systemPrompt + "\n\n---\n\n" + userMessage

	resp, err := ga.client.GenerateContent(ctx, finalPrompt, ga.modelName)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed (Model: %s): %w", ga.modelName, err)
	}

	// 成功レスポンスからテキストをそのまま返す（解析は internal/review の責務）
	return resp.Text, nil
}
