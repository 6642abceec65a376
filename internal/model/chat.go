// internal/model/chat.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage はロードマップに紐づくチャット履歴1件を表します
type ChatMessage struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	RoadmapID uuid.UUID `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// チャット送信リクエストDTO
type PostChatMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

// PostChatMessageResponse は送信メッセージとアシスタント応答のペア
type PostChatMessageResponse struct {
	Message *ChatMessage `json:"message"`
	Reply   *ChatMessage `json:"reply"`
}
