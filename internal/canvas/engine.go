package canvas

// Entity is one item the vault currently wants represented on the canvas.
// The entity source computes the stable ID; the engine matches purely on it.
type Entity struct {
	ID   string
	Kind NodeKind
	Data NodeData
}

// BuildResult is the outcome of one reconciliation pass.
type BuildResult struct {
	Document *ViewDocument
	// Changed reports whether Document differs from the loaded document in
	// any way the caller must persist. When false the caller skips the write.
	Changed bool
}

// Build reconciles the desired entity set against a previously persisted
// document and returns a complete, renderable document. It is a pure
// function: loaded is never mutated, persistence is the caller's concern.
//
// Order of operations: legacy frame migration first (it must run before
// stale classification, since a legacy frame is removed regardless of the
// derived/user-authored distinction), then refresh of matched nodes, removal
// of stale derived nodes, and grid placement of new entities. Canvas-kind
// selectors carry no derived entities, so for them only migration and change
// detection apply.
func Build(sel Selector, entities []Entity, loaded *ViewDocument) BuildResult {
	doc := &ViewDocument{
		Version:  DocumentVersion,
		ID:       NewUserNodeID(),
		Selector: sel,
	}

	var prior []Node
	if loaded != nil {
		doc.ID = loaded.ID
		doc.Title = loaded.Title
		doc.Options = loaded.Options
		doc.Edges = append([]Edge(nil), loaded.Edges...)
		prior = migrateLegacyFrames(loaded.Nodes)
	}

	desired := make(map[string]Entity, len(entities))
	for _, e := range entities {
		if _, dup := desired[e.ID]; dup {
			continue
		}
		desired[e.ID] = e
	}

	matched := make(map[string]struct{}, len(prior))
	nodes := make([]Node, 0, len(prior)+len(entities))
	for _, n := range prior {
		if e, ok := desired[n.ID]; ok {
			// Refresh: layout stays, data is recomputed from the entity.
			n.Data = e.Data
			matched[n.ID] = struct{}{}
			nodes = append(nodes, n)
			continue
		}
		if sel.Kind == SelectorCanvas || !n.Type.Derived() {
			// User-authored nodes survive unconditionally.
			nodes = append(nodes, n)
			continue
		}
		// Stale derived node: dropped.
	}

	p := newPlacer(nodes)
	for _, e := range entities {
		if _, ok := matched[e.ID]; ok {
			continue
		}
		matched[e.ID] = struct{}{}
		nodes = append(nodes, Node{
			ID:       e.ID,
			Type:     e.Kind,
			Position: p.place(),
			Data:     e.Data,
		})
	}
	doc.Nodes = nodes

	changed := loaded == nil ||
		loaded.Version != doc.Version ||
		!nodesEqual(loaded.Nodes, doc.Nodes) ||
		!edgesEqual(loaded.Edges, doc.Edges)
	return BuildResult{Document: doc, Changed: changed}
}

// migrateLegacyFrames rewrites children of deprecated auto-generated frames
// to absolute positions and drops the frames. A child whose parent frame ID
// looks legacy but has no matching frame node is left untouched.
func migrateLegacyFrames(nodes []Node) []Node {
	var frames map[string]Position
	for _, n := range nodes {
		if n.Type == NodeFrame && IsLegacyFrameID(n.ID) {
			if frames == nil {
				frames = make(map[string]Position)
			}
			frames[n.ID] = n.Position
		}
	}
	out := make([]Node, 0, len(nodes))
	if frames == nil {
		return append(out, nodes...)
	}
	for _, n := range nodes {
		if _, isLegacy := frames[n.ID]; isLegacy {
			continue
		}
		if fp, ok := frames[n.ParentID]; ok {
			n.Position = Position{X: fp.X + n.Position.X, Y: fp.Y + n.Position.Y}
			n.ParentID = ""
		}
		out = append(out, n)
	}
	return out
}

// nodesEqual compares two node sets by ID, ignoring order. Nodes are equal
// when type, position, parent, and data all match.
func nodesEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]Node, len(a))
	for _, n := range a {
		byID[n.ID] = n
	}
	for _, n := range b {
		prev, ok := byID[n.ID]
		if !ok {
			return false
		}
		if prev.Type != n.Type || prev.Position != n.Position || prev.ParentID != n.ParentID {
			return false
		}
		if !dataEqual(prev.Data, n.Data) {
			return false
		}
	}
	return true
}

// dataEqual compares node payloads by value. Folder payloads need their own
// comparison: Recent mtimes must match by instant, not by Location, so a
// document decoded from storage (where times come back in UTC) still equals
// a fresh scan of the same tree.
func dataEqual(a, b NodeData) bool {
	fa, aFolder := a.(FolderData)
	fb, bFolder := b.(FolderData)
	if aFolder != bFolder {
		return false
	}
	if aFolder {
		return folderDataEqual(fa, fb)
	}
	// Every other payload is a comparable struct of scalars.
	return a == b
}

func folderDataEqual(a, b FolderData) bool {
	if a.Path != b.Path || a.TotalFiles != b.TotalFiles ||
		a.TotalMarkdown != b.TotalMarkdown || a.Truncated != b.Truncated {
		return false
	}
	if len(a.Recent) != len(b.Recent) {
		return false
	}
	for i, r := range a.Recent {
		o := b.Recent[i]
		if r.Path != o.Path || r.Name != o.Name || !r.MTime.Equal(o.MTime) {
			return false
		}
	}
	return true
}

func edgesEqual(a, b []Edge) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]Edge, len(a))
	for _, e := range a {
		byID[e.ID] = e
	}
	for _, e := range b {
		if prev, ok := byID[e.ID]; !ok || prev != e {
			return false
		}
	}
	return true
}
