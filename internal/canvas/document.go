package canvas

import "time"

// DocumentVersion is the current layout scheme version. Version 1 documents
// used auto-generated grouping frames; loading one triggers migration and a
// bump to the current version on the next save.
const DocumentVersion = 2

// ViewDocument is the persisted and rendered unit for one selector: a
// node/edge graph plus view metadata. A save always replaces the whole
// document; it is never written partially.
type ViewDocument struct {
	Version  int            `json:"version"`
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Selector Selector       `json:"selector"`
	Updated  time.Time      `json:"updated"`
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
	Options  map[string]any `json:"options,omitempty"`
}

// Node returns a pointer to the node with the given ID, or nil.
func (d *ViewDocument) Node(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Clone returns a copy whose node and edge slices are independent of the
// receiver. Data payloads are value types and are copied along with the
// nodes.
func (d *ViewDocument) Clone() *ViewDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Nodes = append([]Node(nil), d.Nodes...)
	out.Edges = append([]Edge(nil), d.Edges...)
	if d.Options != nil {
		out.Options = make(map[string]any, len(d.Options))
		for k, v := range d.Options {
			out.Options[k] = v
		}
	}
	return &out
}
