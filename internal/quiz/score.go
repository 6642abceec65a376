// internal/quiz/score.go
package quiz

import (
	"math"

	"go_5_roadmap_keep/internal/model"
)

// PassPercent は合格に必要な正答率です (固定、呼び出しごとの変更不可)
const PassPercent = 90

// Result は採点結果です
type Result struct {
	Score      int
	Total      int
	Percentage int
	Passed     bool
}

// Grade は4択クイズを決定的に採点します。
// questions と answers の長さが一致しない場合のみエラー。
// 回答インデックスが -1 や範囲外でもエラーにはせず、単にどの
// correctIndex とも一致しないので不正解として数える
func Grade(questions []model.QuizQuestion, answers []int) (Result, error) {
	if len(questions) != len(answers) {
		return Result{}, model.NewAppError(
			"ANSWER_COUNT_MISMATCH",
			"回答数が問題数と一致していません。",
			"answers",
			model.ErrInvalidInput,
		)
	}

	score := 0
	for i, q := range questions {
		if answers[i] == q.CorrectIndex {
			score++
		}
	}

	total := len(questions)
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(score) / float64(total) * 100))
	}

	return Result{
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Passed:     percentage >= PassPercent,
	}, nil
}
