package canvas

import (
	"encoding/json"
	"fmt"
	"time"
)

// NodeKind discriminates the closed set of node types on a canvas.
type NodeKind string

// Node kinds.
const (
	NodeNote   NodeKind = "note"   // backs a markdown file
	NodeFile   NodeKind = "file"   // backs a non-markdown file
	NodeFolder NodeKind = "folder" // backs a subdirectory
	NodeFrame  NodeKind = "frame"  // user-drawn grouping region
	NodeText   NodeKind = "text"   // freeform annotation
	NodeLink   NodeKind = "link"   // external reference
)

// Derived reports whether the kind's existence and data are owned by the
// vault (note/file/folder). Non-derived kinds are user-authored and are
// never removed by reconciliation.
func (k NodeKind) Derived() bool {
	switch k {
	case NodeNote, NodeFile, NodeFolder:
		return true
	}
	return false
}

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeNote, NodeFile, NodeFolder, NodeFrame, NodeText, NodeLink:
		return true
	}
	return false
}

// Position is a node's top-left corner in canvas coordinates. While a node
// has a ParentID, the position is relative to the parent frame.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the kind-specific payload of a node. Implementations are the
// *Data structs below; the set is closed.
type NodeData interface {
	nodeData()
}

// NoteData backs a markdown file node.
type NoteData struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}

// FileData backs a non-markdown file node.
type FileData struct {
	Title string `json:"title"`
}

// RecentNote is one entry in a folder node's recency preview.
type RecentNote struct {
	Path  string    `json:"path"`
	Name  string    `json:"name"`
	MTime time.Time `json:"mtime"`
}

// FolderData backs a subdirectory node. Counts are recursive and recomputed
// on every build; they are never authoritative once the scan was truncated.
type FolderData struct {
	Path          string       `json:"path"`
	TotalFiles    int          `json:"totalFiles"`
	TotalMarkdown int          `json:"totalMarkdown"`
	Recent        []RecentNote `json:"recent,omitempty"`
	Truncated     bool         `json:"truncated,omitempty"`
}

// FrameData backs a user-drawn grouping region.
type FrameData struct {
	Label string `json:"label,omitempty"`
}

// TextData backs a freeform annotation.
type TextData struct {
	Text string `json:"text"`
}

// LinkData backs a user-placed external reference.
type LinkData struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func (NoteData) nodeData()   {}
func (FileData) nodeData()   {}
func (FolderData) nodeData() {}
func (FrameData) nodeData()  {}
func (TextData) nodeData()   {}
func (LinkData) nodeData()   {}

// Node is one element on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeKind `json:"type"`
	Position Position `json:"position"`
	ParentID string   `json:"parentId,omitempty"`
	Data     NodeData `json:"data"`
}

// nodeJSON mirrors Node with a raw data payload for two-phase decoding.
type nodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeKind        `json:"type"`
	Position Position        `json:"position"`
	ParentID string          `json:"parentId,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the data payload according to the node type.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	n.ID = raw.ID
	n.Type = raw.Type
	n.Position = raw.Position
	n.ParentID = raw.ParentID

	data, err := decodeNodeData(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}

func decodeNodeData(kind NodeKind, raw json.RawMessage) (NodeData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var (
		data NodeData
		err  error
	)
	switch kind {
	case NodeNote:
		var d NoteData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeFile:
		var d FileData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeFolder:
		var d FolderData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeFrame:
		var d FrameData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeText:
		var d TextData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeLink:
		var d LinkData
		err = json.Unmarshal(raw, &d)
		data = d
	default:
		return nil, fmt.Errorf("canvas: unknown node kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("canvas: decode %s data: %w", kind, err)
	}
	return data, nil
}

// Edge is a user-drawn connection between two nodes. Edges are always
// user-authored; the engine preserves them verbatim.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}
