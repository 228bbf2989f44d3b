package rigid

// Quadtree capacity limits. A node splits once it holds more than MaxObjects
// bodies and its level is below MaxLevels.
const (
	MaxObjects = 10
	MaxLevels  = 5
)

// QuadTree is a broad-phase index over a fixed world rectangle. It holds
// non-owning body pointers and is rebuilt from scratch every tick.
//
// Bodies that straddle a quadrant boundary stay at the level where they no
// longer fit a single child. Retrieve collects the bodies along the query
// body's descent path, so a true overlapping pair is always returned by the
// query of at least one of its two bodies.
type QuadTree struct {
	level   int
	bounds  Rect
	objects []*Body
	nodes   [4]*QuadTree
}

// NewQuadTree creates an empty root node covering bounds.
func NewQuadTree(bounds Rect) *QuadTree {
	return newQuadTree(0, bounds)
}

func newQuadTree(level int, bounds Rect) *QuadTree {
	return &QuadTree{level: level, bounds: bounds}
}

// Bounds returns the rectangle covered by this node.
func (q *QuadTree) Bounds() Rect {
	return q.bounds
}

// Clear removes every body and discards the children.
func (q *QuadTree) Clear() {
	q.objects = q.objects[:0]
	for i, n := range q.nodes {
		if n != nil {
			n.Clear()
			q.nodes[i] = nil
		}
	}
}

// split creates the four children: 0 top-right, 1 top-left, 2 bottom-left,
// 3 bottom-right.
func (q *QuadTree) split() {
	w := q.bounds.Width / 2
	h := q.bounds.Height / 2
	x, y := q.bounds.X, q.bounds.Y
	next := q.level + 1

	q.nodes[0] = newQuadTree(next, Rect{x + w, y, w, h})
	q.nodes[1] = newQuadTree(next, Rect{x, y, w, h})
	q.nodes[2] = newQuadTree(next, Rect{x, y + h, w, h})
	q.nodes[3] = newQuadTree(next, Rect{x + w, y + h, w, h})
}

// index returns the child quadrant that fully contains b, or -1 when b
// straddles a midline.
func (q *QuadTree) index(b *Body) int {
	midX := q.bounds.X + q.bounds.Width/2
	midY := q.bounds.Y + q.bounds.Height/2
	p, s := b.Position, b.Size

	top := p.Y < midY && p.Y+s.Y < midY
	bottom := p.Y > midY

	switch {
	case p.X < midX && p.X+s.X < midX:
		if top {
			return 1
		} else if bottom {
			return 2
		}
	case p.X > midX:
		if top {
			return 0
		} else if bottom {
			return 3
		}
	}
	return -1
}

// Insert adds b to the tree, splitting this node when it overflows.
func (q *QuadTree) Insert(b *Body) {
	if q.nodes[0] != nil {
		if i := q.index(b); i != -1 {
			q.nodes[i].Insert(b)
			return
		}
	}

	q.objects = append(q.objects, b)
	if len(q.objects) <= MaxObjects || q.level >= MaxLevels {
		return
	}

	if q.nodes[0] == nil {
		q.split()
	}
	kept := q.objects[:0]
	for _, o := range q.objects {
		if i := q.index(o); i != -1 {
			q.nodes[i].Insert(o)
		} else {
			kept = append(kept, o)
		}
	}
	// Zero the tail so moved bodies are not pinned by the backing array.
	for i := len(kept); i < len(q.objects); i++ {
		q.objects[i] = nil
	}
	q.objects = kept
}

// Retrieve appends to dst every body that may collide with b and returns
// the extended slice. The result may include b itself and bodies that do not
// overlap it; callers re-test precisely.
func (q *QuadTree) Retrieve(dst []*Body, b *Body) []*Body {
	if q.nodes[0] != nil {
		if i := q.index(b); i != -1 {
			dst = q.nodes[i].Retrieve(dst, b)
		}
	}
	return append(dst, q.objects...)
}

// Len returns the number of bodies stored in this node and its children.
func (q *QuadTree) Len() int {
	n := len(q.objects)
	for _, c := range q.nodes {
		if c != nil {
			n += c.Len()
		}
	}
	return n
}

// Depth returns the number of levels below and including this node.
func (q *QuadTree) Depth() int {
	d := 0
	for _, c := range q.nodes {
		if c != nil {
			if cd := c.Depth(); cd > d {
				d = cd
			}
		}
	}
	return d + 1
}
