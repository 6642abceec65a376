// internal/model/roadmap.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ノード種別。描画形状のみを決め、グラフ構造上の意味は持たない
const (
	NodeTypeInput       = "input"
	NodeTypeDefault     = "default"
	NodeTypeOutput      = "output"
	NodeTypeDecision    = "decision"
	NodeTypeStartEnd    = "start-end"
	NodeTypeProject     = "project"
	NodeTypeImage       = "image"
	NodeTypeRoadmapCard = "roadmapCard"
)

// ノードカテゴリ。レイアウトと進捗計算を左右する (未設定は core 扱い)
const (
	CategoryCore     = "core"
	CategoryOptional = "optional"
	CategoryAdvanced = "advanced"
	CategoryProject  = "project"
)

// エッジ種別 (未設定は main 扱い)
const (
	EdgeTypeMain     = "main"
	EdgeTypeBranch   = "branch"
	EdgeTypeOptional = "optional"
)

// Position はキャンバス上の座標
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData はノードの意味的なペイロード
type NodeData struct {
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Resources   []string `json:"resources,omitempty"` // 表示順を保持。重複許容
	Category    string   `json:"category,omitempty"`
	IsCompleted bool     `json:"isCompleted"` // ユーザーが手動で切り替える
	QuizPassed  bool     `json:"quizPassed"`  // クイズ合格時のみ true にし、自動では戻さない
}

// Done はノードが完了扱いかどうかを返します。
// isCompleted OR quizPassed の判定はここに一本化する
func (d NodeData) Done() bool {
	return d.IsCompleted || d.QuizPassed
}

// Node は学習トピック1件を表します
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type,omitempty"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsBranch はレイアウト上サイドに配置するカテゴリかどうかを返します
func (n Node) IsBranch() bool {
	switch n.Data.Category {
	case CategoryOptional, CategoryAdvanced, CategoryProject:
		return true
	default:
		return false // 未設定・core は本線
	}
}

// Edge はノード間の有向な前提関係を表します。
// source/target の参照先が存在しない場合も保存は許容する (描画されないだけ)
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edgeType,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// IsMain は主経路レイアウトに参加するエッジかどうかを返します
func (e Edge) IsMain() bool {
	return e.EdgeType == "" || e.EdgeType == EdgeTypeMain
}

// Roadmap はノード・エッジ配列を丸ごと保持するコンテナです。
// 保存は毎回全置換で、差分更新は行わない
type Roadmap struct {
	RoadmapID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"roadmap_id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string         `gorm:"not null" json:"title"`
	Nodes     datatypes.JSON `gorm:"type:json" json:"-"`
	Edges     datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Roadmap) TableName() string {
	return "roadmaps"
}

// DecodeGraph はJSONカラムからノード・エッジ配列を復元します
func (r *Roadmap) DecodeGraph() ([]Node, []Edge, error) {
	nodes := []Node{}
	edges := []Edge{}
	if len(r.Nodes) > 0 {
		if err := json.Unmarshal(r.Nodes, &nodes); err != nil {
			return nil, nil, fmt.Errorf("roadmap %s: decode nodes: %w", r.RoadmapID, err)
		}
	}
	if len(r.Edges) > 0 {
		if err := json.Unmarshal(r.Edges, &edges); err != nil {
			return nil, nil, fmt.Errorf("roadmap %s: decode edges: %w", r.RoadmapID, err)
		}
	}
	return nodes, edges, nil
}

// EncodeGraph はノード・エッジ配列をJSONカラムへ書き込みます (全置換)
func (r *Roadmap) EncodeGraph(nodes []Node, edges []Edge) error {
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	nb, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}
	eb, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}
	r.Nodes = datatypes.JSON(nb)
	r.Edges = datatypes.JSON(eb)
	return nil
}

// ロードマップ生成リクエストDTO
type GenerateRoadmapRequest struct {
	Prompt      string            `json:"prompt" validate:"required,min=1,max=4000"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// ロードマップ更新（全置換）リクエストDTO
type PutRoadmapRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Nodes []Node  `json:"nodes" validate:"required"`
	Edges []Edge  `json:"edges" validate:"required"`
}

// RoadmapResponse はグラフを展開した形でクライアントに返すDTO
type RoadmapResponse struct {
	RoadmapID uuid.UUID `json:"roadmap_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerateRoadmapResponse はLLM生成結果のレスポンスDTO。
// グラフ化できない応答は type=chat で会話メッセージのみ返す
type GenerateRoadmapResponse struct {
	Type    string           `json:"type"` // "roadmap" or "chat"
	Roadmap *RoadmapResponse `json:"roadmap,omitempty"`
	Message string           `json:"message,omitempty"`
}

// RoadmapProgressResponse は進捗サマリのレスポンスDTO
type RoadmapProgressResponse struct {
	RoadmapID       uuid.UUID       `json:"roadmap_id"`
	TotalNodes      int             `json:"total_nodes"`
	CompletedNodes  int             `json:"completed_nodes"`
	ProgressPercent int             `json:"progress_percent"`
	FullyCompleted  bool            `json:"fully_completed"`
	Unlocked        map[string]bool `json:"unlocked"` // node_id -> クイズ受験可否
}
