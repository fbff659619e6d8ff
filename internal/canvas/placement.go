package canvas

// Default tiling policy for newly inserted nodes: row-major cells on a fixed
// grid, skipping any cell whose rectangle intersects an existing node's
// bounding box. Node sizes are not part of the persisted model, so every
// node is assumed to occupy the nominal footprint below.
const (
	gridCellWidth  = 280.0
	gridCellHeight = 200.0
	gridColumns    = 8
	nodeWidth      = 240.0
	nodeHeight     = 160.0
)

type rect struct {
	x, y, w, h float64
}

func (r rect) intersects(o rect) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w && r.y < o.y+o.h && o.y < r.y+r.h
}

// placer tiles new nodes left-to-right, top-to-bottom over free grid cells.
type placer struct {
	occupied []rect
	next     int // next candidate cell index
}

func newPlacer(existing []Node) *placer {
	p := &placer{occupied: make([]rect, 0, len(existing))}
	for _, n := range existing {
		p.occupied = append(p.occupied, nodeRect(n.Position))
	}
	return p
}

func nodeRect(pos Position) rect {
	return rect{x: pos.X, y: pos.Y, w: nodeWidth, h: nodeHeight}
}

// place returns the next free cell position and marks it occupied.
func (p *placer) place() Position {
	for ; ; p.next++ {
		col := p.next % gridColumns
		row := p.next / gridColumns
		pos := Position{X: float64(col) * gridCellWidth, Y: float64(row) * gridCellHeight}
		candidate := nodeRect(pos)

		free := true
		for _, o := range p.occupied {
			if candidate.intersects(o) {
				free = false
				break
			}
		}
		if free {
			p.occupied = append(p.occupied, candidate)
			p.next++
			return pos
		}
	}
}
