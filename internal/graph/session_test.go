// internal/graph/session_test.go
package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go_5_roadmap_keep/internal/model"
)

func newTestSession() *Session {
	nodes := []model.Node{
		nodeWithFlags("a", false, false),
		nodeWithFlags("b", false, false),
		nodeWithFlags("c", false, false),
	}
	edges := []model.Edge{
		{ID: "ab", Source: "a", Target: "b"},
		{ID: "ca", Source: "c", Target: "a"},
		{ID: "bc", Source: "b", Target: "c"},
	}
	return NewSession(nodes, edges)
}

func nodeIDs(nodes []model.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestSession_DeleteSelectedCascades(t *testing.T) {
	s := newTestSession()

	// a を削除すると a->b, c->a の両エッジも消え、b と c は残る
	s.Select("a")
	s.DeleteSelected()

	assert.Equal(t, []string{"b", "c"}, nodeIDs(s.Nodes()))
	edges := s.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "bc", edges[0].ID)
	assert.Empty(t, s.Selected(), "削除後は選択解除される")
}

func TestSession_DuplicateSelected(t *testing.T) {
	s := newTestSession()
	s.Select("a", "b")

	s.DuplicateSelected()

	nodes := s.Nodes()
	require.Len(t, nodes, 5)

	originals := map[string]model.Node{}
	for _, n := range nodes[:3] {
		originals[n.ID] = n
	}
	for _, clone := range nodes[3:] {
		// 新しいIDで、元ノードから (+50,+50) ずれている
		_, exists := originals[clone.ID]
		assert.False(t, exists, "複製は新しいIDを持つ")
		src := originals[clone.Data.Label] // ラベルは元ノードのIDと同じにしてある
		assert.Equal(t, src.Position.X+DuplicateOffset, clone.Position.X)
		assert.Equal(t, src.Position.Y+DuplicateOffset, clone.Position.Y)
	}

	// 複製元同士のエッジ a->b は複製されない
	assert.Len(t, s.Edges(), 3)
	// 選択状態は元のまま (複製は未選択で挿入)
	assert.Equal(t, []string{"a", "b"}, s.Selected())
}

func TestSession_UndoRedo(t *testing.T) {
	s := NewSession(nil, nil)

	s.AddNode(nodeWithFlags("a", false, false))
	s.AddNode(nodeWithFlags("b", false, false))
	require.Len(t, s.Nodes(), 2)

	require.True(t, s.Undo())
	assert.Equal(t, []string{"a"}, nodeIDs(s.Nodes()))

	require.True(t, s.Undo())
	assert.Empty(t, s.Nodes())
	assert.False(t, s.Undo(), "初期状態より前には戻れない")

	require.True(t, s.Redo())
	assert.Equal(t, []string{"a"}, nodeIDs(s.Nodes()))

	// undo後に新しい変更を加えると redo 側の履歴は破棄される
	s.AddNode(nodeWithFlags("c", false, false))
	assert.Equal(t, []string{"a", "c"}, nodeIDs(s.Nodes()))
	assert.False(t, s.Redo())
}

func TestSession_UndoDoesNotTrackSelection(t *testing.T) {
	s := newTestSession()

	s.Select("a")
	s.AddNode(nodeWithFlags("d", false, false))
	require.True(t, s.Undo())

	// 選択状態は履歴の対象外なのでそのまま残る
	assert.Equal(t, []string{"a"}, s.Selected())
}

func TestSession_HistoryBounded(t *testing.T) {
	s := NewSession(nil, nil)

	// 60回追加した後に60回undoしても、上限50スナップショット分までしか戻れない
	for i := 0; i < 60; i++ {
		s.AddNode(nodeWithFlags(fmt.Sprintf("n%02d", i), false, false))
	}

	undone := 0
	for i := 0; i < 60; i++ {
		if s.Undo() {
			undone++
		}
	}

	assert.Equal(t, HistoryLimit-1, undone, "undo可能な回数は保持スナップショット数-1")
	// 最古のスナップショットは11ノード時点 (61スナップショットのうち古い11が捨てられている)
	assert.Len(t, s.Nodes(), 11)
}

func TestSession_SetNodesReplacesWholesale(t *testing.T) {
	s := newTestSession()

	replacement := []model.Node{nodeWithFlags("z", false, false)}
	s.SetNodes(replacement)
	assert.Equal(t, []string{"z"}, nodeIDs(s.Nodes()))

	s.SetEdges(nil)
	assert.Empty(t, s.Edges())

	require.True(t, s.Undo())
	assert.Equal(t, []string{"z"}, nodeIDs(s.Nodes()))
	require.True(t, s.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(s.Nodes()))
}
