// internal/llm/client_test.go
package llm

import (
	"context"
	"errors"
	"testing"

	"go_5_roadmap_keep/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDraftJSON = `{
  "title": "Learn Go",
  "nodes": [
    {"id": "n1", "label": "Basics", "category": "core", "type": "input"},
    {"label": "Goroutines", "category": "core"},
    {"id": "n3", "label": "Generics", "category": "advanced"}
  ],
  "edges": [
    {"source": "n1", "target": "n2"}
  ]
}`

func TestClient_GenerateRoadmap(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: JSON応答から草案が生成される", func(t *testing.T) {
		client := NewClient(NewMockProvider(validDraftJSON), "gpt-4o-mini")

		draft, chatMsg, err := client.GenerateRoadmap(ctx, "Goを学びたい", nil)

		require.NoError(t, err)
		require.NotNil(t, draft)
		assert.Empty(t, chatMsg)
		assert.Equal(t, "Learn Go", draft.Title)
		require.Len(t, draft.Nodes, 3)
		require.Len(t, draft.Edges, 1)

		// ID未指定のノードは連番、type未指定はdefaultで補完される
		assert.Equal(t, "n2", draft.Nodes[1].ID)
		assert.Equal(t, model.NodeTypeDefault, draft.Nodes[1].Type)
		assert.Equal(t, "input", draft.Nodes[0].Type)
		// エッジIDも補完される
		assert.Equal(t, "e-n1-n2", draft.Edges[0].ID)
		// 座標はレイアウト前なのでゼロ値のまま
		assert.Equal(t, model.Position{}, draft.Nodes[0].Position)
	})

	t.Run("正常系: コードフェンス付きのJSONも解釈できる", func(t *testing.T) {
		client := NewClient(NewMockProvider("```json\n"+validDraftJSON+"\n```"), "gpt-4o-mini")

		draft, chatMsg, err := client.GenerateRoadmap(ctx, "Goを学びたい", nil)

		require.NoError(t, err)
		require.NotNil(t, draft)
		assert.Empty(t, chatMsg)
		assert.Equal(t, "Learn Go", draft.Title)
	})

	t.Run("正常系: JSONでない応答はチャットフォールバックになる", func(t *testing.T) {
		client := NewClient(NewMockProvider("こんにちは！何を学びたいですか？"), "gpt-4o-mini")

		draft, chatMsg, err := client.GenerateRoadmap(ctx, "こんにちは", nil)

		require.NoError(t, err)
		assert.Nil(t, draft)
		assert.Equal(t, "こんにちは！何を学びたいですか？", chatMsg)
	})

	t.Run("正常系: ノードが空のJSONもチャットフォールバックになる", func(t *testing.T) {
		client := NewClient(NewMockProvider(`{"title":"x","nodes":[],"edges":[]}`), "gpt-4o-mini")

		draft, chatMsg, err := client.GenerateRoadmap(ctx, "曖昧な依頼", nil)

		require.NoError(t, err)
		assert.Nil(t, draft)
		assert.NotEmpty(t, chatMsg)
	})

	t.Run("異常系: プロバイダエラーはそのまま伝播する", func(t *testing.T) {
		mock := NewMockProvider("")
		mock.Err = errors.New("upstream down")
		client := NewClient(mock, "gpt-4o-mini")

		_, _, err := client.GenerateRoadmap(ctx, "Goを学びたい", nil)

		assert.Error(t, err)
	})

	t.Run("正常系: 学習設定がプロンプトに反映される", func(t *testing.T) {
		mock := NewMockProvider(validDraftJSON)
		client := NewClient(mock, "gpt-4o-mini")

		_, _, err := client.GenerateRoadmap(ctx, "Goを学びたい", map[string]string{"pace": "weekend"})

		require.NoError(t, err)
		require.NotNil(t, mock.LastRequest)
		userMsg := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1]
		assert.Contains(t, userMsg.Content, "pace: weekend")
	})
}

const validQuizJSON = `{
  "questions": [
    {"question": "Q1", "options": ["a","b","c","d"], "correctIndex": 0, "explanation": "e1"},
    {"question": "Q2", "options": ["a","b","c","d"], "correctIndex": 1, "explanation": "e2"},
    {"question": "Q3", "options": ["a","b","c","d"], "correctIndex": 2, "explanation": "e3"},
    {"question": "Q4", "options": ["a","b","c","d"], "correctIndex": 3, "explanation": "e4"},
    {"question": "Q5", "options": ["a","b","c","d"], "correctIndex": 0, "explanation": "e5"}
  ]
}`

func TestClient_GenerateQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 設問5件が生成される", func(t *testing.T) {
		client := NewClient(NewMockProvider(validQuizJSON), "gpt-4o-mini")

		questions, err := client.GenerateQuiz(ctx, "Goroutines", "並行処理の基礎", 5)

		require.NoError(t, err)
		require.Len(t, questions, 5)
		assert.Equal(t, "Q1", questions[0].Question)
		assert.Len(t, questions[0].Options, 4)
	})

	t.Run("異常系: 設問数が足りない応答はエラー", func(t *testing.T) {
		client := NewClient(NewMockProvider(`{"questions":[{"question":"Q1","options":["a","b","c","d"],"correctIndex":0}]}`), "gpt-4o-mini")

		_, err := client.GenerateQuiz(ctx, "Goroutines", "", 5)

		assert.Error(t, err)
	})

	t.Run("異常系: 選択肢が4件でない応答はエラー", func(t *testing.T) {
		client := NewClient(NewMockProvider(`{"questions":[{"question":"Q1","options":["a","b"],"correctIndex":0}]}`), "gpt-4o-mini")

		_, err := client.GenerateQuiz(ctx, "Goroutines", "", 1)

		assert.Error(t, err)
	})

	t.Run("異常系: 正解インデックスが範囲外の応答はエラー", func(t *testing.T) {
		client := NewClient(NewMockProvider(`{"questions":[{"question":"Q1","options":["a","b","c","d"],"correctIndex":4}]}`), "gpt-4o-mini")

		_, err := client.GenerateQuiz(ctx, "Goroutines", "", 1)

		assert.Error(t, err)
	})

	t.Run("異常系: JSONでない応答はエラー", func(t *testing.T) {
		client := NewClient(NewMockProvider("ここにクイズがあります"), "gpt-4o-mini")

		_, err := client.GenerateQuiz(ctx, "Goroutines", "", 5)

		assert.Error(t, err)
	})
}

func TestClient_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 履歴とシステムプロンプトを含めて送信する", func(t *testing.T) {
		mock := NewMockProvider("  いい質問ですね。まずはgoroutineから始めましょう。  ")
		client := NewClient(mock, "gpt-4o-mini")

		history := []Message{
			{Role: "user", Content: "前の質問"},
			{Role: "assistant", Content: "前の回答"},
		}
		reply, err := client.Chat(ctx, "Learn Go", history, "次は何を学べば？")

		require.NoError(t, err)
		assert.Equal(t, "いい質問ですね。まずはgoroutineから始めましょう。", reply)

		require.NotNil(t, mock.LastRequest)
		require.Len(t, mock.LastRequest.Messages, 4)
		assert.Equal(t, "system", mock.LastRequest.Messages[0].Role)
		assert.Contains(t, mock.LastRequest.Messages[0].Content, "Learn Go")
		assert.Equal(t, "次は何を学べば？", mock.LastRequest.Messages[3].Content)
	})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"フェンスなし", `{"a":1}`, `{"a":1}`},
		{"jsonタグ付きフェンス", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"タグなしフェンス", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"前後の空白", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}
