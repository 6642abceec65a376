// Package llm はロードマップ・クイズ・チャット生成のためのLLMゲートウェイです。
// プロバイダ非依存のインターフェースとOpenAI互換実装を提供します。
package llm

import "context"

// Message はチャット形式のメッセージ1件
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest は補完リクエスト
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionResponse は補完レスポンス
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens は入出力トークンの合計を返します
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider は全LLMプロバイダが実装するインターフェース
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
