package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/graph"
	"go_5_roadmap_keep/internal/llm"
	"go_5_roadmap_keep/internal/middleware"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/quiz"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService はノード単位のクイズ生成・採点・結果保存を担当します
type QuizService interface {
	GenerateQuiz(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*model.GenerateQuizResponse, error)
	SubmitQuiz(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, req *model.SubmitQuizRequest) (*model.SubmitQuizResponse, error)
	GetResult(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*model.QuizResult, error)
}

type quizService struct {
	db          *gorm.DB
	roadmapRepo repository.RoadmapRepository
	quizRepo    repository.QuizResultRepository
	userRepo    repository.UserRepository
	llmClient   *llm.Client
	cfg         *config.Config
}

func NewQuizService(db *gorm.DB, roadmapRepo repository.RoadmapRepository, quizRepo repository.QuizResultRepository, userRepo repository.UserRepository, llmClient *llm.Client, cfg *config.Config) QuizService {
	return &quizService{
		db:          db,
		roadmapRepo: roadmapRepo,
		quizRepo:    quizRepo,
		userRepo:    userRepo,
		llmClient:   llmClient,
		cfg:         cfg,
	}
}

// GenerateQuiz は指定ノードのクイズを生成します。
// 直近の前提ノードが全て合格済みになるまでクイズはロックされる
func (s *quizService) GenerateQuiz(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*model.GenerateQuizResponse, error) {
	logger := middleware.GetLogger(ctx)

	roadmap, err := s.roadmapRepo.FindByID(ctx, s.db, userID, roadmapID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	nodes, edges, err := roadmap.DecodeGraph()
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
	}

	node, ok := findNode(nodes, nodeID)
	if !ok {
		return nil, model.NewAppError("NODE_NOT_FOUND", "ノードが見つかりません。", "node_id", model.ErrNotFound)
	}

	if !graph.QuizUnlocked(nodes, edges, nodeID) {
		logger.Warn("Quiz is locked", "roadmap_id", roadmapID.String(), "node_id", nodeID)
		return nil, model.NewAppError("QUIZ_LOCKED", "前提トピックのクイズに合格するまで受験できません。", "node_id", model.ErrQuizLocked)
	}

	llmCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()

	questions, err := s.llmClient.GenerateQuiz(llmCtx, node.Data.Label, node.Data.Description, config.QuizQuestionCount)
	if err != nil {
		logger.Error("Quiz generation failed", "error", err, "node_id", nodeID)
		return nil, model.NewAppError("LLM_UNAVAILABLE", "クイズの生成に失敗しました。時間をおいて再度お試しください。", "", model.ErrInternalServer)
	}

	logger.Info("Quiz generated", "roadmap_id", roadmapID.String(), "node_id", nodeID)
	return &model.GenerateQuizResponse{NodeID: nodeID, Questions: questions}, nil
}

// SubmitQuiz は提出を採点し、結果を上書き保存します。
// 合格時はノードの quizPassed を立て、XPを付与する。
// 再提出で合格し直した場合もXPは毎回付与される
func (s *quizService) SubmitQuiz(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, req *model.SubmitQuizRequest) (*model.SubmitQuizResponse, error) {
	logger := middleware.GetLogger(ctx)

	result, err := quiz.Grade(req.Questions, req.Answers)
	if err != nil {
		return nil, err // quiz.Grade内でAppErrorにラップ済み
	}

	var resp *model.SubmitQuizResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roadmap, err := s.roadmapRepo.FindByID(ctx, tx, userID, roadmapID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("ROADMAP_NOT_FOUND", "ロードマップが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}

		nodes, edges, err := roadmap.DecodeGraph()
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの読み込みに失敗しました。", "", err)
		}
		if _, ok := findNode(nodes, nodeID); !ok {
			return model.NewAppError("NODE_NOT_FOUND", "ノードが見つかりません。", "node_id", model.ErrNotFound)
		}

		// 出題・回答のスナップショットを結果と一緒に保存する
		questionsJSON, err := json.Marshal(req.Questions)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "クイズ結果の保存に失敗しました。", "", err)
		}
		answersJSON, err := json.Marshal(req.Answers)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "クイズ結果の保存に失敗しました。", "", err)
		}

		quizResult := &model.QuizResult{
			ResultID:   uuid.New(),
			RoadmapID:  roadmapID,
			NodeID:     nodeID,
			UserID:     userID,
			Score:      result.Score,
			Total:      result.Total,
			Percentage: result.Percentage,
			Passed:     result.Passed,
			Questions:  datatypes.JSON(questionsJSON),
			Answers:    datatypes.JSON(answersJSON),
		}
		if err := s.quizRepo.Upsert(ctx, tx, quizResult); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "クイズ結果の保存に失敗しました。", "", err)
		}

		// 合格したらノード側の quizPassed も立てる。不合格では落とさない
		if result.Passed {
			for i := range nodes {
				if nodes[i].ID == nodeID {
					nodes[i].Data.QuizPassed = true
					break
				}
			}
			if err := roadmap.EncodeGraph(nodes, edges); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの更新に失敗しました。", "", err)
			}
			if err := s.roadmapRepo.Save(ctx, tx, roadmap); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "ロードマップの更新に失敗しました。", "", err)
			}
		}

		// XP付与とストリーク更新
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー情報の取得に失敗しました。", "", err)
		}

		xpAwarded := 0
		if result.Passed {
			xpAwarded = config.XPPerQuizPass
			user.XP += xpAwarded
			user.Level = levelForXP(user.XP)
		}
		applyStreak(user, time.Now())

		if err := s.userRepo.Save(ctx, tx, user); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー情報の更新に失敗しました。", "", err)
		}

		resp = &model.SubmitQuizResponse{
			NodeID:     nodeID,
			Score:      result.Score,
			Total:      result.Total,
			Percentage: result.Percentage,
			Passed:     result.Passed,
			XPAwarded:  xpAwarded,
			XP:         user.XP,
			Level:      user.Level,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Quiz submitted",
		"roadmap_id", roadmapID.String(),
		"node_id", nodeID,
		"score", resp.Score,
		"passed", resp.Passed,
	)
	return resp, nil
}

// GetResult は指定ノードの最新の受験結果を返します
func (s *quizService) GetResult(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*model.QuizResult, error) {
	result, err := s.quizRepo.Find(ctx, s.db, userID, roadmapID, nodeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("RESULT_NOT_FOUND", "受験結果が見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return result, nil
}

func findNode(nodes []model.Node, nodeID string) (model.Node, bool) {
	for _, n := range nodes {
		if n.ID == nodeID {
			return n, true
		}
	}
	return model.Node{}, false
}
