// internal/graph/layout_test.go
package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_5_roadmap_keep/internal/model"
)

func coreNode(id string) model.Node {
	return model.Node{ID: id, Type: model.NodeTypeDefault, Data: model.NodeData{Label: id}}
}

func branchNode(id, category string) model.Node {
	return model.Node{ID: id, Type: model.NodeTypeDefault, Data: model.NodeData{Label: id, Category: category}}
}

func edge(id, source, target string) model.Edge {
	return model.Edge{ID: id, Source: source, Target: target}
}

func positionOf(t *testing.T, nodes []model.Node, id string) model.Position {
	t.Helper()
	for _, n := range nodes {
		if n.ID == id {
			return n.Position
		}
	}
	t.Fatalf("node %s not found in layout result", id)
	return model.Position{}
}

func TestLayout_Deterministic(t *testing.T) {
	nodes := []model.Node{
		coreNode("a"), coreNode("b"), coreNode("c"), coreNode("d"),
		branchNode("x", model.CategoryOptional),
		branchNode("y", model.CategoryAdvanced),
	}
	edges := []model.Edge{
		edge("e1", "a", "b"),
		edge("e2", "a", "c"),
		edge("e3", "b", "d"),
		edge("e4", "c", "d"),
		edge("e5", "b", "x"),
		edge("e6", "b", "y"),
	}

	gotNodes1, gotEdges1 := Layout(nodes, edges)
	gotNodes2, gotEdges2 := Layout(nodes, edges)

	// 同じ入力からは常に同じ座標が得られる (隠れた乱数なし)
	assert.Equal(t, gotNodes1, gotNodes2)
	assert.Equal(t, gotEdges1, gotEdges2)

	// 入力は書き換えない
	for _, n := range nodes {
		assert.Equal(t, model.Position{}, n.Position)
	}
}

func TestLayout_RanksTopToBottom(t *testing.T) {
	nodes := []model.Node{coreNode("a"), coreNode("b"), coreNode("c")}
	edges := []model.Edge{edge("e1", "a", "b"), edge("e2", "b", "c")}

	got, _ := Layout(nodes, edges)

	pa := positionOf(t, got, "a")
	pb := positionOf(t, got, "b")
	pc := positionOf(t, got, "c")

	// 直列の3ノードは同じx、ランクごとに一定間隔で下へ
	assert.Equal(t, pa.X, pb.X)
	assert.Equal(t, pb.X, pc.X)
	assert.Equal(t, NodeHeight+rankSep, pb.Y-pa.Y)
	assert.Equal(t, NodeHeight+rankSep, pc.Y-pb.Y)
}

func TestLayout_BranchAlternation(t *testing.T) {
	// 1つの親に4つのブランチ: 左→右→左→右 の交互配置
	nodes := []model.Node{
		coreNode("parent"),
		branchNode("b1", model.CategoryOptional),
		branchNode("b2", model.CategoryOptional),
		branchNode("b3", model.CategoryAdvanced),
		branchNode("b4", model.CategoryProject),
	}
	edges := []model.Edge{
		edge("e1", "parent", "b1"),
		edge("e2", "parent", "b2"),
		edge("e3", "parent", "b3"),
		edge("e4", "parent", "b4"),
	}

	got, gotEdges := Layout(nodes, edges)

	pp := positionOf(t, got, "parent")
	assert.Equal(t, pp.X-BranchOffsetX, positionOf(t, got, "b1").X, "1つ目は左")
	assert.Equal(t, pp.X+BranchOffsetX, positionOf(t, got, "b2").X, "2つ目は右")
	assert.Equal(t, pp.X-BranchOffsetX, positionOf(t, got, "b3").X, "3つ目は左")
	assert.Equal(t, pp.X+BranchOffsetX, positionOf(t, got, "b4").X, "4つ目は右")

	// 同じ側の2本目は下に積まれる
	assert.Equal(t, pp.Y, positionOf(t, got, "b1").Y)
	assert.Equal(t, pp.Y+branchStackY, positionOf(t, got, "b3").Y)

	// ブランチに触れるエッジは branch / animated になる
	for _, e := range gotEdges {
		assert.Equal(t, model.EdgeTypeBranch, e.EdgeType, e.ID)
		assert.True(t, e.Animated, e.ID)
	}
}

func TestLayout_BranchWithoutParentFallsBackToOrigin(t *testing.T) {
	nodes := []model.Node{branchNode("orphan", model.CategoryOptional)}

	got, _ := Layout(nodes, nil)

	// 原点中心に落ち、中央寄せ分だけ左上へずれる。エラーにはしない
	assert.Equal(t, model.Position{X: -NodeWidth / 2, Y: -NodeHeight / 2}, positionOf(t, got, "orphan"))
}

func TestLayout_DegenerateInputs(t *testing.T) {
	t.Run("空のノード配列", func(t *testing.T) {
		gotNodes, gotEdges := Layout(nil, nil)
		assert.Empty(t, gotNodes)
		assert.Empty(t, gotEdges)
	})

	t.Run("閉路があっても落ちない", func(t *testing.T) {
		nodes := []model.Node{coreNode("a"), coreNode("b")}
		edges := []model.Edge{edge("e1", "a", "b"), edge("e2", "b", "a")}
		require.NotPanics(t, func() {
			gotNodes, _ := Layout(nodes, edges)
			assert.Len(t, gotNodes, 2)
		})
	})

	t.Run("宙ぶらりんのエッジは無視される", func(t *testing.T) {
		nodes := []model.Node{coreNode("a")}
		edges := []model.Edge{edge("e1", "a", "ghost")}
		gotNodes, gotEdges := Layout(nodes, edges)
		assert.Len(t, gotNodes, 1)
		assert.Len(t, gotEdges, 1)
	})
}

func TestLayout_MainEdgesKeepMainType(t *testing.T) {
	nodes := []model.Node{coreNode("a"), coreNode("b")}
	edges := []model.Edge{edge("e1", "a", "b")}

	_, gotEdges := Layout(nodes, edges)

	require.Len(t, gotEdges, 1)
	assert.Equal(t, model.EdgeTypeMain, gotEdges[0].EdgeType)
	assert.False(t, gotEdges[0].Animated)
}
