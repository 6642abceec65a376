package service

import (
	"context"
	"errors"
	"time"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/graph"
	"go_5_roadmap_keep/internal/llm"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoadmapService はロードマップの生成・取得・全置換保存・進捗計算を担当します
type RoadmapService interface {
	Generate(ctx context.Context, userID, projectID uuid.UUID, req *model.GenerateRoadmapRequest) (*model.GenerateRoadmapResponse, error)
	GetRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapResponse, error)
	ListRoadmaps(ctx context.Context, userID, projectID uuid.UUID) ([]model.RoadmapResponse, error)
	SaveRoadmap(ctx context.Context, userID, roadmapID uuid.UUID, req *model.PutRoadmapRequest) (*model.RoadmapResponse, error)
	DeleteRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) error
	GetProgress(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapProgressResponse, error)
}

type roadmapService struct {
	db          *gorm.DB
	roadmapRepo repository.RoadmapRepository
	projectRepo repository.ProjectRepository
	quizRepo    repository.QuizResultRepository
	chatRepo    repository.ChatRepository
	llmClient   *llm.Client
	cfg         *config.Config
}

func NewRoadmapService(db *gorm.DB, roadmapRepo repository.RoadmapRepository, projectRepo repository.ProjectRepository, quizRepo repository.QuizResultRepository, chatRepo repository.ChatRepository, llmClient *llm.Client, cfg *config.Config) RoadmapService {
	return &roadmapService{
		db:          db,
		roadmapRepo: roadmapRepo,
		projectRepo: projectRepo,
		quizRepo:    quizRepo,
		chatRepo:    chatRepo,
		llmClient:   llmClient,
		cfg:         cfg,
	}
}

// Generate はプロンプトからロードマップを生成し、レイアウト済みの状態で保存します。
// LLM応答がグラフとして解釈できない場合は type=chat で会話メッセージのみ返し、
// 何も保存しない
func (s *roadmapService) Generate(ctx context.Context, userID, projectID uuid.UUID, req *model.GenerateRoadmapRequest) (*model.GenerateRoadmapResponse, error) {
	logger := middleware.GetLogger(ctx)

	// 所有プロジェクト以外への生成は404扱い
	if _, err := s.projectRepo.FindByID(ctx, s.db, userID, projectID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	llmCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()

	draft, chatMsg, err := s.llmClient.GenerateRoadmap(llmCtx, req.Prompt, req.Preferences)
	if err != nil {
		logger.Error("Roadmap generation failed", "error", err)
		return nil, model.NewAppError("LLM_UNAVAILABLE", "ロードマップの生成に失敗しました。時間をおいて再度お試しください。", "", model.ErrInternalServer)
	}
	if draft == nil {
		logger.Info("Roadmap generation fell back to chat", "project_id", projectID.String())
		return &model.GenerateRoadmapResponse{Type: "chat", Message: chatMsg}, nil
	}

	// 生成直後に自動レイアウトを適用してから保存する
	nodes, edges := graph.Layout(draft.Nodes, draft.Edges)

	roadmap := &model.Roadmap{
		RoadmapID: uuid.New(),
		ProjectID: projectID,
		Title:     draft.Title,
	}
	if err := roadmap.EncodeGraph(nodes, edges); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの保存に失敗しました。", "", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.roadmapRepo.Create(ctx, tx, roadmap); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの保存に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Roadmap generated",
		"roadmap_id", roadmap.RoadmapID,
		"project_id", projectID.String(),
		"nodes", len(nodes),
		"edges", len(edges),
	)
	return &model.GenerateRoadmapResponse{
		Type:    "roadmap",
		Roadmap: toRoadmapResponse(roadmap, nodes, edges),
	}, nil
}

func (s *roadmapService) GetRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapResponse, error) {
	roadmap, err := s.findOwned(ctx, s.db, userID, roadmapID)
	if err != nil {
		return nil, err
	}
	nodes, edges, err := roadmap.DecodeGraph()
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
	}
	return toRoadmapResponse(roadmap, nodes, edges), nil
}

func (s *roadmapService) ListRoadmaps(ctx context.Context, userID, projectID uuid.UUID) ([]model.RoadmapResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, s.db, userID, projectID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROJECT_NOT_FOUND", "プロジェクトが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	roadmaps, err := s.roadmapRepo.FindByProjectID(ctx, s.db, userID, projectID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップ一覧の取得に失敗しました。", "", err)
	}

	responses := make([]model.RoadmapResponse, 0, len(roadmaps))
	for i := range roadmaps {
		nodes, edges, err := roadmaps[i].DecodeGraph()
		if err != nil {
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
		}
		responses = append(responses, *toRoadmapResponse(&roadmaps[i], nodes, edges))
	}
	return responses, nil
}

// SaveRoadmap はノード・エッジ配列を丸ごと置き換えます。差分マージはしない
func (s *roadmapService) SaveRoadmap(ctx context.Context, userID, roadmapID uuid.UUID, req *model.PutRoadmapRequest) (*model.RoadmapResponse, error) {
	logger := middleware.GetLogger(ctx)
	var saved *model.RoadmapResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roadmap, err := s.findOwned(ctx, tx, userID, roadmapID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			roadmap.Title = *req.Title
		}
		if err := roadmap.EncodeGraph(req.Nodes, req.Edges); err != nil {
			return model.NewAppError("INVALID_GRAPH", "グラフの形式が不正です。", "nodes", model.ErrInvalidInput)
		}

		if err := s.roadmapRepo.Save(ctx, tx, roadmap); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの保存に失敗しました。", "", err)
		}
		saved = toRoadmapResponse(roadmap, req.Nodes, req.Edges)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Roadmap saved", "roadmap_id", roadmapID.String(), "nodes", len(req.Nodes), "edges", len(req.Edges))
	return saved, nil
}

func (s *roadmapService) DeleteRoadmap(ctx context.Context, userID, roadmapID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.roadmapRepo.Delete(ctx, tx, userID, roadmapID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの削除に失敗しました。", "", err)
		}
		// チャット履歴も道連れで削除する
		if err := s.chatRepo.DeleteByRoadmap(ctx, tx, roadmapID); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの削除に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Roadmap deleted", "roadmap_id", roadmapID.String())
	return nil
}

// GetProgress はノードJSONの完了フラグと保存済みクイズ結果を突き合わせた
// 進捗サマリを返します
func (s *roadmapService) GetProgress(ctx context.Context, userID, roadmapID uuid.UUID) (*model.RoadmapProgressResponse, error) {
	roadmap, err := s.findOwned(ctx, s.db, userID, roadmapID)
	if err != nil {
		return nil, err
	}
	nodes, edges, err := roadmap.DecodeGraph()
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
	}

	passed, err := s.quizRepo.PassedNodeIDs(ctx, s.db, userID, roadmapID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "クイズ結果の取得に失敗しました。", "", err)
	}

	completed := graph.ReconcileCompleted(nodes, passed)
	percent := graph.ReconciledPercent(nodes, passed)

	return &model.RoadmapProgressResponse{
		RoadmapID:       roadmap.RoadmapID,
		TotalNodes:      len(nodes),
		CompletedNodes:  completed,
		ProgressPercent: percent,
		FullyCompleted:  len(nodes) > 0 && percent == 100,
		Unlocked:        graph.UnlockedMap(nodes, edges),
	}, nil
}

// --- ヘルパー関数 ---

func (s *roadmapService) findOwned(ctx context.Context, db *gorm.DB, userID, roadmapID uuid.UUID) (*model.Roadmap, error) {
	roadmap, err := s.roadmapRepo.FindByID(ctx, db, userID, roadmapID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return roadmap, nil
}

func toRoadmapResponse(r *model.Roadmap, nodes []model.Node, edges []model.Edge) *model.RoadmapResponse {
	if nodes == nil {
		nodes = []model.Node{}
	}
	if edges == nil {
		edges = []model.Edge{}
	}
	return &model.RoadmapResponse{
		RoadmapID: r.RoadmapID,
		ProjectID: r.ProjectID,
		Title:     r.Title,
		Nodes:     nodes,
		Edges:     edges,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
