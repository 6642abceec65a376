// internal/model/editor.go
package model

// エディタ操作の種別
const (
	EditorActionAddNode   = "add_node"
	EditorActionSelect    = "select"
	EditorActionDelete    = "delete_selected"
	EditorActionDuplicate = "duplicate_selected"
	EditorActionSetNodes  = "set_nodes"
	EditorActionSetEdges  = "set_edges"
	EditorActionUndo      = "undo"
	EditorActionRedo      = "redo"
)

// EditorActionRequest は編集セッションへの操作1件。
// Action に応じて使用するフィールドが決まる
type EditorActionRequest struct {
	Action  string   `json:"action" validate:"required,oneof=add_node select delete_selected duplicate_selected set_nodes set_edges undo redo"`
	Node    *Node    `json:"node,omitempty"`     // add_node
	Nodes   []Node   `json:"nodes,omitempty"`    // set_nodes
	Edges   []Edge   `json:"edges,omitempty"`    // set_edges
	NodeIDs []string `json:"node_ids,omitempty"` // select
}

// EditorStateResponse は操作適用後のセッション状態
type EditorStateResponse struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Selected []string `json:"selected"`
}
