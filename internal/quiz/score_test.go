// internal/quiz/score_test.go
package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_5_roadmap_keep/internal/model"
)

func questionsWithCorrectIndexes(indexes ...int) []model.QuizQuestion {
	questions := make([]model.QuizQuestion, len(indexes))
	for i, idx := range indexes {
		questions[i] = model.QuizQuestion{
			Question:     "q",
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: idx,
		}
	}
	return questions
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name    string
		correct []int
		answers []int
		want    Result
	}{
		{
			name:    "4/5正解は80%で不合格 (閾値90未満)",
			correct: []int{0, 1, 2, 3, 0},
			answers: []int{0, 1, 2, 3, 1},
			want:    Result{Score: 4, Total: 5, Percentage: 80, Passed: false},
		},
		{
			name:    "全問正解は100%で合格",
			correct: []int{0, 1, 2, 3, 0},
			answers: []int{0, 1, 2, 3, 0},
			want:    Result{Score: 5, Total: 5, Percentage: 100, Passed: true},
		},
		{
			name:    "未回答(-1)はどの正解とも一致せず不正解扱い",
			correct: []int{0, 0, 0, 0, 0},
			answers: []int{-1, -1, 0, 0, 0},
			want:    Result{Score: 3, Total: 5, Percentage: 60, Passed: false},
		},
		{
			name:    "範囲外のインデックスもエラーにせず不正解扱い",
			correct: []int{0, 1},
			answers: []int{7, 1},
			want:    Result{Score: 1, Total: 2, Percentage: 50, Passed: false},
		},
		{
			name:    "9/10は90%ちょうどで合格",
			correct: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			answers: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
			want:    Result{Score: 9, Total: 10, Percentage: 90, Passed: true},
		},
		{
			name:    "0問は0%で不合格",
			correct: []int{},
			answers: []int{},
			want:    Result{Score: 0, Total: 0, Percentage: 0, Passed: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(questionsWithCorrectIndexes(tt.correct...), tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_LengthMismatch(t *testing.T) {
	_, err := Grade(questionsWithCorrectIndexes(0, 1, 2), []int{0})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ANSWER_COUNT_MISMATCH", appErr.Detail.Code)
}

func TestGrade_Deterministic(t *testing.T) {
	questions := questionsWithCorrectIndexes(1, 2, 3, 0, 1)
	answers := []int{1, 2, 0, 0, 1}

	first, err := Grade(questions, answers)
	require.NoError(t, err)
	second, err := Grade(questions, answers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
