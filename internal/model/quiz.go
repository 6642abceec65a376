// internal/model/quiz.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizQuestion は4択問題1問を表します。CorrectIndex は 0..3
type QuizQuestion struct {
	Question     string   `json:"question" validate:"required"`
	Options      []string `json:"options" validate:"required,len=4"`
	CorrectIndex int      `json:"correctIndex" validate:"min=0,max=3"`
	Explanation  string   `json:"explanation,omitempty"`
}

// QuizResult は (roadmap, node, user) ごとに最新の受験結果のみを保持します。
// 再送信は上書き (upsert) で、履歴は残さない
type QuizResult struct {
	ResultID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"result_id"`
	RoadmapID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_key,unique" json:"roadmap_id"`
	NodeID     string         `gorm:"not null;index:idx_quiz_key,unique" json:"node_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_key,unique" json:"-"`
	Score      int            `gorm:"not null" json:"score"`
	Total      int            `gorm:"not null" json:"total"`
	Percentage int            `gorm:"not null" json:"percentage"`
	Passed     bool           `gorm:"not null" json:"passed"`
	Answers    datatypes.JSON `gorm:"type:json" json:"-"` // 提出された回答インデックス配列
	Questions  datatypes.JSON `gorm:"type:json" json:"-"` // 出題時の問題セットのスナップショット
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// DecodeQuestions はスナップショットの問題セットを復元します
func (q *QuizResult) DecodeQuestions() ([]QuizQuestion, error) {
	questions := []QuizQuestion{}
	if len(q.Questions) > 0 {
		if err := json.Unmarshal(q.Questions, &questions); err != nil {
			return nil, fmt.Errorf("quiz result %s: decode questions: %w", q.ResultID, err)
		}
	}
	return questions, nil
}

// DecodeAnswers は提出回答の配列を復元します
func (q *QuizResult) DecodeAnswers() ([]int, error) {
	answers := []int{}
	if len(q.Answers) > 0 {
		if err := json.Unmarshal(q.Answers, &answers); err != nil {
			return nil, fmt.Errorf("quiz result %s: decode answers: %w", q.ResultID, err)
		}
	}
	return answers, nil
}

// クイズ生成レスポンスDTO
type GenerateQuizResponse struct {
	NodeID    string         `json:"node_id"`
	Questions []QuizQuestion `json:"questions"`
}

// クイズ結果送信リクエストDTO。
// 未回答・時間切れは -1 で表現し、どの正解インデックスとも一致しない
type SubmitQuizRequest struct {
	Questions []QuizQuestion `json:"questions" validate:"required,min=1,dive"`
	Answers   []int          `json:"answers" validate:"required"`
}

// SubmitQuizResponse は採点結果と付与XPのレスポンスDTO
type SubmitQuizResponse struct {
	NodeID     string `json:"node_id"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Passed     bool   `json:"passed"`
	XPAwarded  int    `json:"xp_awarded"`
	XP         int    `json:"xp"`
	Level      int    `json:"level"`
}
