// internal/graph/session.go
package graph

import (
	"github.com/google/uuid"

	"go_5_roadmap_keep/internal/model"
)

// HistoryLimit は1編集セッションで保持するスナップショットの上限です
const HistoryLimit = 50

// DuplicateOffset は複製ノードをずらす量です
const DuplicateOffset = 50.0

// snapshot はグラフ内容 (ノード・エッジ) だけを保持します。
// 選択状態やUIモードは履歴に含めない
type snapshot struct {
	nodes []model.Node
	edges []model.Edge
}

// Session は編集中のロードマップ1件のインメモリ状態です。
// 変更のたびにスナップショットを有限長のデックへ積み、カーソル移動で
// undo/redo する。プロセス内限定で、永続化されずリロードで消える。
// 並行アクセスの調整は呼び出し側 (SessionManager) が行う。
type Session struct {
	nodes    []model.Node
	edges    []model.Edge
	selected []string

	history []snapshot
	cursor  int
}

// NewSession は初期グラフを最初のスナップショットとして履歴に積みます
func NewSession(nodes []model.Node, edges []model.Edge) *Session {
	s := &Session{
		nodes: copyNodes(nodes),
		edges: copyEdges(edges),
	}
	s.history = []snapshot{s.snapshot()}
	s.cursor = 0
	return s
}

// Nodes は現在のノード配列のコピーを返します
func (s *Session) Nodes() []model.Node {
	return copyNodes(s.nodes)
}

// Edges は現在のエッジ配列のコピーを返します
func (s *Session) Edges() []model.Edge {
	return copyEdges(s.edges)
}

// Selected は選択中ノードIDのコピーを返します
func (s *Session) Selected() []string {
	return append([]string(nil), s.selected...)
}

// SetNodes はノード配列を丸ごと置き換えます (レイアウト後・ロード後に使用)
func (s *Session) SetNodes(nodes []model.Node) {
	s.nodes = copyNodes(nodes)
	s.push()
}

// SetEdges はエッジ配列を丸ごと置き換えます
func (s *Session) SetEdges(edges []model.Edge) {
	s.edges = copyEdges(edges)
	s.push()
}

// AddNode はノードを末尾に追加します
func (s *Session) AddNode(n model.Node) {
	s.nodes = append(s.nodes, n)
	s.push()
}

// Select は選択状態を置き換えます。履歴には積まない
func (s *Session) Select(ids ...string) {
	s.selected = append([]string(nil), ids...)
}

// DeleteSelected は選択中のノードと、削除ノードに触れるエッジを
// まとめて取り除きます (カスケード削除、孤立エッジを残さない)
func (s *Session) DeleteSelected() {
	if len(s.selected) == 0 {
		return
	}
	removing := make(map[string]bool, len(s.selected))
	for _, id := range s.selected {
		removing[id] = true
	}

	nodes := s.nodes[:0:0]
	removed := false
	for _, n := range s.nodes {
		if removing[n.ID] {
			removed = true
			continue
		}
		nodes = append(nodes, n)
	}
	if !removed {
		s.selected = nil
		return
	}

	edges := s.edges[:0:0]
	for _, e := range s.edges {
		if removing[e.Source] || removing[e.Target] {
			continue
		}
		edges = append(edges, e)
	}

	s.nodes = nodes
	s.edges = edges
	s.selected = nil
	s.push()
}

// DuplicateSelected は選択中の各ノードを新しいIDで複製し、
// (+50,+50) ずらして未選択の新規ノードとして挿入します。
// 複製元同士を結んでいたエッジは複製しない
func (s *Session) DuplicateSelected() {
	if len(s.selected) == 0 {
		return
	}
	selected := make(map[string]bool, len(s.selected))
	for _, id := range s.selected {
		selected[id] = true
	}

	clones := make([]model.Node, 0, len(s.selected))
	for _, n := range s.nodes {
		if !selected[n.ID] {
			continue
		}
		clone := n
		clone.ID = uuid.NewString()
		clone.Position.X += DuplicateOffset
		clone.Position.Y += DuplicateOffset
		clone.Data.Resources = append([]string(nil), n.Data.Resources...)
		clones = append(clones, clone)
	}
	if len(clones) == 0 {
		return
	}
	s.nodes = append(s.nodes, clones...)
	s.push()
}

// Undo は1つ前のスナップショットへ戻します。戻れた場合に true
func (s *Session) Undo() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	s.restore(s.history[s.cursor])
	return true
}

// Redo は undo で戻した変更をやり直します。進めた場合に true
func (s *Session) Redo() bool {
	if s.cursor >= len(s.history)-1 {
		return false
	}
	s.cursor++
	s.restore(s.history[s.cursor])
	return true
}

// push は現在のグラフ内容を履歴へ積みます。カーソルより先の redo 分は
// 破棄し、上限を超えたら先頭 (最古) から捨てる
func (s *Session) push() {
	s.history = append(s.history[:s.cursor+1], s.snapshot())
	if len(s.history) > HistoryLimit {
		s.history = s.history[len(s.history)-HistoryLimit:]
	}
	s.cursor = len(s.history) - 1
}

func (s *Session) snapshot() snapshot {
	return snapshot{nodes: copyNodes(s.nodes), edges: copyEdges(s.edges)}
}

func (s *Session) restore(snap snapshot) {
	s.nodes = copyNodes(snap.nodes)
	s.edges = copyEdges(snap.edges)
}

func copyNodes(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		out[i].Data.Resources = append([]string(nil), out[i].Data.Resources...)
	}
	return out
}

func copyEdges(edges []model.Edge) []model.Edge {
	out := make([]model.Edge, len(edges))
	copy(out, edges)
	return out
}
