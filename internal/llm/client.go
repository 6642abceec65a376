// internal/llm/client.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go_5_roadmap_keep/internal/model"
)

const (
	roadmapSystemPrompt = `You are a learning-roadmap designer. Given a learning goal, respond with JSON only:
{"title":"...","nodes":[{"id":"n1","label":"...","description":"...","resources":["..."],"category":"core|optional|advanced|project","type":"input|default|output"}],"edges":[{"source":"n1","target":"n2"}]}
Order nodes from fundamentals to advanced topics. Edges point from prerequisite to dependent topic.
If the request is not a learning goal, reply with a short plain-text message instead of JSON.`

	quizSystemPrompt = `You are a quiz author. Respond with JSON only:
{"questions":[{"question":"...","options":["a","b","c","d"],"correctIndex":0,"explanation":"..."}]}
Every question has exactly 4 options and one correct answer.`

	chatSystemPrompt = `You are a friendly learning mentor helping the user work through their roadmap "%s". Answer concisely and concretely.`
)

// Client はLLM応答をドメインの型に変換する薄いゲートウェイです。
// プロンプト組み立てと応答の構文検証のみを担当し、永続化は行いません
type Client struct {
	provider Provider
	model    string
}

func NewClient(provider Provider, model string) *Client {
	return &Client{provider: provider, model: model}
}

// RoadmapDraft はレイアウト前の生成結果。座標は未設定 (ゼロ値) のまま返す
type RoadmapDraft struct {
	Title string
	Nodes []model.Node
	Edges []model.Edge
}

type draftPayload struct {
	Title string `json:"title"`
	Nodes []struct {
		ID          string   `json:"id"`
		Label       string   `json:"label"`
		Description string   `json:"description"`
		Resources   []string `json:"resources"`
		Category    string   `json:"category"`
		Type        string   `json:"type"`
	} `json:"nodes"`
	Edges []struct {
		ID     string `json:"id"`
		Source string `json:"source"`
		Target string `json:"target"`
	} `json:"edges"`
}

// GenerateRoadmap はプロンプトからロードマップ草案を生成します。
// 応答がグラフとして解釈できない場合はエラーにせず、第2戻り値に
// 会話メッセージとして返します (チャットフォールバック)
func (c *Client) GenerateRoadmap(ctx context.Context, prompt string, preferences map[string]string) (*RoadmapDraft, string, error) {
	userPrompt := prompt
	if len(preferences) > 0 {
		var sb strings.Builder
		sb.WriteString(prompt)
		sb.WriteString("\n\nPreferences:")
		for k, v := range preferences {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", k, v))
		}
		userPrompt = sb.String()
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: roadmapSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("llm roadmap completion: %w", err)
	}

	content := stripCodeFence(resp.Content)

	var payload draftPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		// JSONでない応答は雑談とみなしてそのまま返す
		return nil, strings.TrimSpace(resp.Content), nil
	}
	if payload.Title == "" || len(payload.Nodes) == 0 {
		return nil, strings.TrimSpace(resp.Content), nil
	}

	draft := &RoadmapDraft{Title: payload.Title}
	for i, n := range payload.Nodes {
		id := n.ID
		if id == "" {
			id = fmt.Sprintf("n%d", i+1)
		}
		nodeType := n.Type
		if nodeType == "" {
			nodeType = model.NodeTypeDefault
		}
		draft.Nodes = append(draft.Nodes, model.Node{
			ID:   id,
			Type: nodeType,
			Data: model.NodeData{
				Label:       n.Label,
				Description: n.Description,
				Resources:   n.Resources,
				Category:    n.Category,
			},
		})
	}
	for _, e := range payload.Edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("e-%s-%s", e.Source, e.Target)
		}
		draft.Edges = append(draft.Edges, model.Edge{
			ID:     id,
			Source: e.Source,
			Target: e.Target,
		})
	}
	return draft, "", nil
}

type quizPayload struct {
	Questions []model.QuizQuestion `json:"questions"`
}

// GenerateQuiz はノードのトピックに対するクイズを生成します。
// 設問数・選択肢数が揃わない応答は上流エラーとして弾きます
func (c *Client) GenerateQuiz(ctx context.Context, label, description string, count int) ([]model.QuizQuestion, error) {
	userPrompt := fmt.Sprintf("Write %d multiple-choice questions about: %s", count, label)
	if description != "" {
		userPrompt += "\nContext: " + description
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: quizSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm quiz completion: %w", err)
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &payload); err != nil {
		return nil, fmt.Errorf("llm quiz response is not valid JSON: %w", err)
	}
	if len(payload.Questions) != count {
		return nil, fmt.Errorf("llm quiz response has %d questions, want %d", len(payload.Questions), count)
	}
	for i, q := range payload.Questions {
		if q.Question == "" {
			return nil, fmt.Errorf("llm quiz question %d is empty", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("llm quiz question %d has %d options, want 4", i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return nil, fmt.Errorf("llm quiz question %d has correct index %d out of range", i, q.CorrectIndex)
		}
	}
	return payload.Questions, nil
}

// Chat はロードマップ文脈付きのメンターチャット応答を生成します
func (c *Client) Chat(ctx context.Context, roadmapTitle string, history []Message, userMessage string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role:    "system",
		Content: fmt.Sprintf(chatSystemPrompt, roadmapTitle),
	})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm chat completion: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// stripCodeFence は ```json ... ``` のようなフェンスを剥がします。
// モデルが指示を無視してフェンス付きで返すことがある
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // 先頭行の言語タグ (json 等) を捨てる
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
