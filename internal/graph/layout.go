// internal/graph/layout.go
package graph

import (
	"sort"

	"go_5_roadmap_keep/internal/model"
)

// レイアウト定数。LLMが返すノードにはサイズ情報がないため固定枠で配置する
const (
	NodeWidth  = 200.0
	NodeHeight = 100.0

	nodeSep = 80.0  // 同ランク内の水平間隔
	rankSep = 140.0 // ランク間の垂直間隔

	BranchOffsetX = 340.0 // ブランチノードの親からの水平オフセット
	branchStackY  = 140.0 // 同じ側に積むブランチの垂直間隔
)

// Layout は未配置のノード・エッジ配列に決定的な2D座標を割り当てます。
// core ノードは上から下への階層レイアウト、branch カテゴリのノードは
// 親の左右に振り分けて配置する。入力は変更せず、新しいスライスを返す。
//
// 不正な入力 (閉路・親のないブランチ・空配列) は失敗にせず、
// 原点フォールバック等の縮退した結果を返す。入力の検証は呼び出し側
// (LLM応答のパース) の責務で、ここでは行わない。
func Layout(nodes []model.Node, edges []model.Edge) ([]model.Node, []model.Edge) {
	out := make([]model.Node, len(nodes))
	copy(out, nodes)

	branchSet := make(map[string]bool, len(nodes))
	coreIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.IsBranch() {
			branchSet[n.ID] = true
		} else {
			coreIDs = append(coreIDs, n.ID)
		}
	}

	// 主経路レイアウトには core ノード同士を結ぶ main エッジだけを使う
	mainEdges := make([]model.Edge, 0, len(edges))
	for _, e := range edges {
		if e.IsMain() && !branchSet[e.Source] && !branchSet[e.Target] {
			mainEdges = append(mainEdges, e)
		}
	}

	centers := layoutCore(coreIDs, mainEdges)
	placeBranches(nodes, edges, branchSet, centers)

	for i := range out {
		c, ok := centers[out[i].ID]
		if !ok {
			c = model.Position{} // 到達しないはずだが原点に寄せる
		}
		// 中心座標から左上座標へ
		out[i].Position = model.Position{X: c.X - NodeWidth/2, Y: c.Y - NodeHeight/2}
	}

	outEdges := make([]model.Edge, len(edges))
	copy(outEdges, edges)
	for i := range outEdges {
		if branchSet[outEdges[i].Source] || branchSet[outEdges[i].Target] {
			outEdges[i].EdgeType = model.EdgeTypeBranch
			outEdges[i].Animated = true
		} else {
			outEdges[i].EdgeType = model.EdgeTypeMain
			outEdges[i].Animated = false
		}
	}

	return out, outEdges
}

// layoutCore は core ノードをトポロジカル深さでランク分けし、
// 各ランクを x=0 中心に等間隔で並べた中心座標を返します。
func layoutCore(ids []string, edges []model.Edge) map[string]model.Position {
	centers := make(map[string]model.Position, len(ids))
	if len(ids) == 0 {
		return centers
	}

	index := make(map[string]int, len(ids)) // 入力順。順序タイブレークに使う
	for i, id := range ids {
		index[id] = i
	}

	succ := make(map[string][]string, len(ids))
	pred := make(map[string][]string, len(ids))
	indeg := make(map[string]int, len(ids))
	for _, e := range edges {
		if _, ok := index[e.Source]; !ok {
			continue
		}
		if _, ok := index[e.Target]; !ok {
			continue
		}
		succ[e.Source] = append(succ[e.Source], e.Target)
		pred[e.Target] = append(pred[e.Target], e.Source)
		indeg[e.Target]++
	}

	// Kahn法で最長経路ランクを求める。閉路上のノードはキューに入らず
	// ランク0のまま残る (縮退ケース、エラーにしない)
	rank := make(map[string]int, len(ids))
	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			if rank[id]+1 > rank[next] {
				rank[next] = rank[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	maxRank := 0
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	rows := make([][]string, maxRank+1)
	for _, id := range ids { // 入力順で積むので初期順序は決定的
		rows[rank[id]] = append(rows[rank[id]], id)
	}

	// 上から下へ1回スイープし、前任ノードの位置の中央値で行内順序を整える
	pos := make(map[string]float64, len(ids))
	for r, row := range rows {
		if r > 0 {
			sort.SliceStable(row, func(i, j int) bool {
				mi, oki := medianPredPos(row[i], pred, pos)
				mj, okj := medianPredPos(row[j], pred, pos)
				if oki && okj && mi != mj {
					return mi < mj
				}
				if oki != okj {
					return okj // 前任なしは後ろへ
				}
				return index[row[i]] < index[row[j]]
			})
		}
		for i, id := range row {
			pos[id] = float64(i)
		}
	}

	for r, row := range rows {
		width := float64(len(row)-1) * (NodeWidth + nodeSep)
		for i, id := range row {
			centers[id] = model.Position{
				X: float64(i)*(NodeWidth+nodeSep) - width/2,
				Y: float64(r) * (NodeHeight + rankSep),
			}
		}
	}
	return centers
}

func medianPredPos(id string, pred map[string][]string, pos map[string]float64) (float64, bool) {
	ps := make([]float64, 0, len(pred[id]))
	for _, p := range pred[id] {
		if v, ok := pos[p]; ok {
			ps = append(ps, v)
		}
	}
	if len(ps) == 0 {
		return 0, false
	}
	sort.Float64s(ps)
	mid := len(ps) / 2
	if len(ps)%2 == 1 {
		return ps[mid], true
	}
	return (ps[mid-1] + ps[mid]) / 2, true
}

// placeBranches はブランチノードを親の左右に振り分けて centers に書き込みます。
// 遭遇順に最初は左、以降は親ごとに本数の少ない側へ置くので L,R,L,R と交互になる。
// 入ってくるエッジがないブランチは原点へフォールバックする。
func placeBranches(nodes []model.Node, edges []model.Edge, branchSet map[string]bool, centers map[string]model.Position) {
	type sideCount struct{ left, right int }
	counts := make(map[string]*sideCount)

	for _, n := range nodes {
		if !branchSet[n.ID] {
			continue
		}

		var parent string
		for _, e := range edges {
			if e.Target == n.ID {
				parent = e.Source
				break
			}
		}

		parentCenter, ok := centers[parent]
		if parent == "" || !ok {
			centers[n.ID] = model.Position{} // 親なしは原点
			continue
		}

		sc := counts[parent]
		if sc == nil {
			sc = &sideCount{}
			counts[parent] = sc
		}
		if sc.left <= sc.right {
			centers[n.ID] = model.Position{
				X: parentCenter.X - BranchOffsetX,
				Y: parentCenter.Y + float64(sc.left)*branchStackY,
			}
			sc.left++
		} else {
			centers[n.ID] = model.Position{
				X: parentCenter.X + BranchOffsetX,
				Y: parentCenter.Y + float64(sc.right)*branchStackY,
			}
			sc.right++
		}
	}
}
