// internal/graph/progress.go
package graph

import (
	"math"

	"go_5_roadmap_keep/internal/model"
)

// CompletedCount は完了扱い (isCompleted OR quizPassed) のノード数を返します
func CompletedCount(nodes []model.Node) int {
	count := 0
	for _, n := range nodes {
		if n.Data.Done() {
			count++
		}
	}
	return count
}

// ProgressPercent は完了率を四捨五入した整数で返します。
// ノード0件は 0% とし、ゼロ除算にしない
func ProgressPercent(nodes []model.Node) int {
	if len(nodes) == 0 {
		return 0
	}
	return int(math.Round(float64(CompletedCount(nodes)) / float64(len(nodes)) * 100))
}

// IsFullyCompleted はロードマップ全体の完了判定です (100% かつノード1件以上)
func IsFullyCompleted(nodes []model.Node) bool {
	return len(nodes) > 0 && ProgressPercent(nodes) == 100
}

// ReconcileCompleted はノードJSON由来の完了フラグと、独立に保存された
// クイズ合格結果を突き合わせた実効完了数を返します。
// 両者は別々に保存されるためズレうるので、ノードごとに「どちらかが完了と
// 言っていれば完了」と高い方を採用する。どちらのソース単体より少なく
// 報告することはない。
//
// passed は node_id -> 合格済みレコードの有無
func ReconcileCompleted(nodes []model.Node, passed map[string]bool) int {
	count := 0
	for _, n := range nodes {
		if n.Data.Done() || passed[n.ID] {
			count++
		}
	}
	return count
}

// ReconciledPercent は ReconcileCompleted ベースの完了率です
func ReconciledPercent(nodes []model.Node, passed map[string]bool) int {
	if len(nodes) == 0 {
		return 0
	}
	return int(math.Round(float64(ReconcileCompleted(nodes, passed)) / float64(len(nodes)) * 100))
}

// QuizUnlocked は指定ノードのクイズが受験可能かを返します。
// そのノードへ入ってくるエッジの source すべてが quizPassed のとき解放。
// 入ってくるエッジがなければ常に解放。直近の前提ノードだけを見る
// ローカルな判定で、祖先まで遡る推移的なチェックはしない。
// source が存在しないノードを指すエッジは無視する (宙ぶらりんの許容)
func QuizUnlocked(nodes []model.Node, edges []model.Edge, nodeID string) bool {
	byID := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, e := range edges {
		if e.Target != nodeID {
			continue
		}
		src, ok := byID[e.Source]
		if !ok {
			continue
		}
		if !src.Data.QuizPassed {
			return false
		}
	}
	return true
}

// UnlockedMap は全ノード分の受験可否をまとめて計算します
func UnlockedMap(nodes []model.Node, edges []model.Edge) map[string]bool {
	byID := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	unlocked := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		unlocked[n.ID] = true
	}
	for _, e := range edges {
		if _, ok := unlocked[e.Target]; !ok {
			continue
		}
		src, ok := byID[e.Source]
		if !ok {
			continue
		}
		if !src.Data.QuizPassed {
			unlocked[e.Target] = false
		}
	}
	return unlocked
}
