package service

import (
	"context"
	"sync"

	"go_5_roadmap_keep/internal/graph"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EditorService はロードマップ編集セッション (選択・削除・複製・undo/redo) を
// 担当します。セッションはメモリ上に保持され、Commit するまでDBには反映されない
type EditorService interface {
	Open(ctx context.Context, userID, roadmapID uuid.UUID) (*model.EditorStateResponse, error)
	Apply(ctx context.Context, userID, roadmapID uuid.UUID, req *model.EditorActionRequest) (*model.EditorStateResponse, error)
	Commit(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapResponse, error)
	Close(userID, roadmapID uuid.UUID)
}

type sessionKey struct {
	userID    uuid.UUID
	roadmapID uuid.UUID
}

type editorService struct {
	db          *gorm.DB
	roadmapRepo repository.RoadmapRepository

	mu       sync.Mutex
	sessions map[sessionKey]*graph.Session
}

func NewEditorService(db *gorm.DB, roadmapRepo repository.RoadmapRepository) EditorService {
	return &editorService{
		db:          db,
		roadmapRepo: roadmapRepo,
		sessions:    make(map[sessionKey]*graph.Session),
	}
}

// Open はロードマップの現在の状態から編集セッションを開始します。
// 既存セッションがあれば破棄して読み直す
func (s *editorService) Open(ctx context.Context, userID, roadmapID uuid.UUID) (*model.EditorStateResponse, error) {
	logger := middleware.GetLogger(ctx)

	roadmap, err := s.roadmapRepo.FindByID(ctx, s.db, userID, roadmapID)
	if err != nil {
		return nil, model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
	}
	nodes, edges, err := roadmap.DecodeGraph()
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
	}

	session := graph.NewSession(nodes, edges)

	s.mu.Lock()
	s.sessions[sessionKey{userID, roadmapID}] = session
	s.mu.Unlock()

	logger.Info("Editor session opened", "roadmap_id", roadmapID.String())
	return stateOf(session), nil
}

// Apply は操作1件をセッションに適用し、適用後の状態を返します
func (s *editorService) Apply(ctx context.Context, userID, roadmapID uuid.UUID, req *model.EditorActionRequest) (*model.EditorStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionKey{userID, roadmapID}]
	if !ok {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "編集セッションが開かれていません。", "", model.ErrNotFound)
	}

	switch req.Action {
	case model.EditorActionAddNode:
		if req.Node == nil {
			return nil, model.NewAppError("INVALID_ACTION", "nodeが指定されていません。", "node", model.ErrInvalidInput)
		}
		session.AddNode(*req.Node)
	case model.EditorActionSelect:
		session.Select(req.NodeIDs...)
	case model.EditorActionDelete:
		session.DeleteSelected()
	case model.EditorActionDuplicate:
		session.DuplicateSelected()
	case model.EditorActionSetNodes:
		session.SetNodes(req.Nodes)
	case model.EditorActionSetEdges:
		session.SetEdges(req.Edges)
	case model.EditorActionUndo:
		session.Undo()
	case model.EditorActionRedo:
		session.Redo()
	default:
		return nil, model.NewAppError("INVALID_ACTION", "不明な操作です。", "action", model.ErrInvalidInput)
	}

	return stateOf(session), nil
}

// Commit はセッションの状態をロードマップに書き戻します
func (s *editorService) Commit(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapResponse, error) {
	logger := middleware.GetLogger(ctx)

	s.mu.Lock()
	session, ok := s.sessions[sessionKey{userID, roadmapID}]
	s.mu.Unlock()
	if !ok {
		return nil, model.NewAppError("SESSION_NOT_FOUND", "編集セッションが開かれていません。", "", model.ErrNotFound)
	}

	var saved *model.RoadmapResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roadmap, err := s.roadmapRepo.FindByID(ctx, tx, userID, roadmapID)
		if err != nil {
			return model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
		}
		nodes, edges := session.Nodes(), session.Edges()
		if err := roadmap.EncodeGraph(nodes, edges); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの保存に失敗しました。", "", err)
		}
		if err := s.roadmapRepo.Save(ctx, tx, roadmap); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの保存に失敗しました。", "", err)
		}
		saved = toRoadmapResponse(roadmap, nodes, edges)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Editor session committed", "roadmap_id", roadmapID.String())
	return saved, nil
}

// Close はセッションを破棄します。未コミットの編集は失われる
func (s *editorService) Close(userID, roadmapID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, sessionKey{userID, roadmapID})
	s.mu.Unlock()
}

func stateOf(session *graph.Session) *model.EditorStateResponse {
	nodes := session.Nodes()
	edges := session.Edges()
	selected := session.Selected()
	if nodes == nil {
		nodes = []model.Node{}
	}
	if edges == nil {
		edges = []model.Edge{}
	}
	if selected == nil {
		selected = []string{}
	}
	return &model.EditorStateResponse{Nodes: nodes, Edges: edges, Selected: selected}
}
