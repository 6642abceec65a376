// internal/service/quiz_service_test.go
package service

import (
	"context"
	"testing"

	"go_5_roadmap_keep/internal/config"
	"go_5_roadmap_keep/internal/llm"
	"go_5_roadmap_keep/internal/model"
	"go_5_roadmap_keep/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 ---
func setupTestDBQuiz(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:quizsvc?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("failed to connect database for testing: " + err.Error())
	}
	if err := db.AutoMigrate(&model.User{}, &model.Project{}, &model.Roadmap{}, &model.QuizResult{}); err != nil {
		panic("failed to migrate database for testing: " + err.Error())
	}
	return db
}

func newQuizServiceForTest(db *gorm.DB, provider llm.Provider) QuizService {
	cfg := &config.Config{}
	cfg.LLM.TimeoutSeconds = 5
	return NewQuizService(
		db,
		repository.NewGormRoadmapRepository(),
		repository.NewGormQuizResultRepository(),
		repository.NewGormUserRepository(),
		llm.NewClient(provider, "gpt-4o-mini"),
		cfg,
	)
}

// seedRoadmap はユーザー・プロジェクト・ロードマップ一式を作成します
func seedRoadmap(t *testing.T, db *gorm.DB, nodes []model.Node, edges []model.Edge) (userID, roadmapID uuid.UUID) {
	t.Helper()
	userID = uuid.New()
	require.NoError(t, db.Create(&model.User{
		UserID: userID, Name: "user-" + userID.String()[:8], Email: userID.String() + "@example.com",
		IsActive: true, Level: 1,
	}).Error)

	projectID := uuid.New()
	require.NoError(t, db.Create(&model.Project{
		ProjectID: projectID, UserID: userID, Name: "Go学習",
	}).Error)

	roadmap := &model.Roadmap{RoadmapID: uuid.New(), ProjectID: projectID, Title: "Learn Go"}
	require.NoError(t, roadmap.EncodeGraph(nodes, edges))
	require.NoError(t, db.Create(roadmap).Error)
	return userID, roadmap.RoadmapID
}

func makeQuestions(n int) []model.QuizQuestion {
	questions := make([]model.QuizQuestion, n)
	for i := range questions {
		questions[i] = model.QuizQuestion{
			Question:     "Q",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
		}
	}
	return questions
}

func allCorrect(n int) []int {
	answers := make([]int, n)
	return answers // 全問 correctIndex=0
}

func Test_quizService_SubmitQuiz(t *testing.T) {
	ctx := context.Background()
	db := setupTestDBQuiz(t)
	svc := newQuizServiceForTest(db, llm.NewMockProvider(""))

	nodes := []model.Node{
		{ID: "a", Data: model.NodeData{Label: "Basics", Category: model.CategoryCore}},
	}
	userID, roadmapID := seedRoadmap(t, db, nodes, nil)

	t.Run("正常系: 合格で結果保存・quizPassed・XP付与", func(t *testing.T) {
		req := &model.SubmitQuizRequest{Questions: makeQuestions(5), Answers: allCorrect(5)}

		resp, err := svc.SubmitQuiz(ctx, userID, roadmapID, "a", req)

		require.NoError(t, err)
		assert.True(t, resp.Passed)
		assert.Equal(t, 5, resp.Score)
		assert.Equal(t, 100, resp.Percentage)
		assert.Equal(t, config.XPPerQuizPass, resp.XPAwarded)
		assert.Equal(t, 100, resp.XP)
		assert.Equal(t, 1, resp.Level)

		// 結果行が1件保存され、出題と回答のスナップショットが復元できる
		var result model.QuizResult
		require.NoError(t, db.Where("roadmap_id = ? AND node_id = ?", roadmapID, "a").First(&result).Error)
		questions, err := result.DecodeQuestions()
		require.NoError(t, err)
		assert.Len(t, questions, 5)
		answers, err := result.DecodeAnswers()
		require.NoError(t, err)
		assert.Equal(t, allCorrect(5), answers)

		// ノード側の quizPassed が立つ
		var stored model.Roadmap
		require.NoError(t, db.Where("roadmap_id = ?", roadmapID).First(&stored).Error)
		storedNodes, _, err := stored.DecodeGraph()
		require.NoError(t, err)
		assert.True(t, storedNodes[0].Data.QuizPassed)

		// ストリークも更新される
		var user model.User
		require.NoError(t, db.Where("user_id = ?", userID).First(&user).Error)
		assert.Equal(t, 1, user.Streak)
	})

	t.Run("正常系: 再合格でも行は1件のままXPは毎回付与", func(t *testing.T) {
		req := &model.SubmitQuizRequest{Questions: makeQuestions(5), Answers: allCorrect(5)}

		resp, err := svc.SubmitQuiz(ctx, userID, roadmapID, "a", req)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.XP)

		var count int64
		db.Model(&model.QuizResult{}).Where("roadmap_id = ? AND node_id = ?", roadmapID, "a").Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("正常系: 不合格の再提出は結果を上書きするがquizPassedは戻さない", func(t *testing.T) {
		// 5問中1問だけ正解 (20%)
		answers := []int{0, 1, 1, 1, 1}
		req := &model.SubmitQuizRequest{Questions: makeQuestions(5), Answers: answers}

		resp, err := svc.SubmitQuiz(ctx, userID, roadmapID, "a", req)

		require.NoError(t, err)
		assert.False(t, resp.Passed)
		assert.Equal(t, 0, resp.XPAwarded)
		assert.Equal(t, 200, resp.XP) // XPは減らない

		var stored model.QuizResult
		require.NoError(t, db.Where("roadmap_id = ? AND node_id = ?", roadmapID, "a").First(&stored).Error)
		assert.False(t, stored.Passed)
		assert.Equal(t, 20, stored.Percentage)

		// ノードの quizPassed は一度立ったら自動では戻さない
		var storedRoadmap model.Roadmap
		require.NoError(t, db.Where("roadmap_id = ?", roadmapID).First(&storedRoadmap).Error)
		storedNodes, _, err := storedRoadmap.DecodeGraph()
		require.NoError(t, err)
		assert.True(t, storedNodes[0].Data.QuizPassed)
	})

	t.Run("異常系: 存在しないノードへの提出はNotFound", func(t *testing.T) {
		req := &model.SubmitQuizRequest{Questions: makeQuestions(5), Answers: allCorrect(5)}

		_, err := svc.SubmitQuiz(ctx, userID, roadmapID, "ghost", req)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("異常系: 回答数不一致はInvalidInput", func(t *testing.T) {
		req := &model.SubmitQuizRequest{Questions: makeQuestions(5), Answers: []int{0, 0}}

		_, err := svc.SubmitQuiz(ctx, userID, roadmapID, "a", req)

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func Test_quizService_GenerateQuiz_Gating(t *testing.T) {
	ctx := context.Background()
	db := setupTestDBQuiz(t)

	quizJSON := `{"questions":[
		{"question":"Q1","options":["a","b","c","d"],"correctIndex":0},
		{"question":"Q2","options":["a","b","c","d"],"correctIndex":1},
		{"question":"Q3","options":["a","b","c","d"],"correctIndex":2},
		{"question":"Q4","options":["a","b","c","d"],"correctIndex":3},
		{"question":"Q5","options":["a","b","c","d"],"correctIndex":0}]}`
	svc := newQuizServiceForTest(db, llm.NewMockProvider(quizJSON))

	t.Run("異常系: 前提ノード未合格のクイズはロックされる", func(t *testing.T) {
		nodes := []model.Node{
			{ID: "a", Data: model.NodeData{Label: "Basics"}},
			{ID: "b", Data: model.NodeData{Label: "Goroutines"}},
		}
		edges := []model.Edge{{ID: "e1", Source: "a", Target: "b"}}
		userID, roadmapID := seedRoadmap(t, db, nodes, edges)

		_, err := svc.GenerateQuiz(ctx, userID, roadmapID, "b")

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrQuizLocked)

		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "QUIZ_LOCKED", appErr.Detail.Code)
	})

	t.Run("正常系: 前提ノード合格済みなら生成できる", func(t *testing.T) {
		nodes := []model.Node{
			{ID: "a", Data: model.NodeData{Label: "Basics", QuizPassed: true}},
			{ID: "b", Data: model.NodeData{Label: "Goroutines"}},
		}
		edges := []model.Edge{{ID: "e1", Source: "a", Target: "b"}}
		userID, roadmapID := seedRoadmap(t, db, nodes, edges)

		resp, err := svc.GenerateQuiz(ctx, userID, roadmapID, "b")

		require.NoError(t, err)
		assert.Equal(t, "b", resp.NodeID)
		assert.Len(t, resp.Questions, config.QuizQuestionCount)
	})

	t.Run("正常系: isCompletedだけではロック解除にならない", func(t *testing.T) {
		nodes := []model.Node{
			{ID: "a", Data: model.NodeData{Label: "Basics", IsCompleted: true}},
			{ID: "b", Data: model.NodeData{Label: "Goroutines"}},
		}
		edges := []model.Edge{{ID: "e1", Source: "a", Target: "b"}}
		userID, roadmapID := seedRoadmap(t, db, nodes, edges)

		_, err := svc.GenerateQuiz(ctx, userID, roadmapID, "b")

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrQuizLocked)
	})

	t.Run("異常系: 他人のロードマップはNotFound", func(t *testing.T) {
		nodes := []model.Node{{ID: "a", Data: model.NodeData{Label: "Basics"}}}
		_, roadmapID := seedRoadmap(t, db, nodes, nil)

		_, err := svc.GenerateQuiz(ctx, uuid.New(), roadmapID, "a")

		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
