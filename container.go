package rigid

// Container groups child bodies under a parent body. Each child's position
// is kept at parent.Position plus the offset captured when it was attached.
// The container references its bodies; it does not own them.
type Container struct {
	parent   *Body
	children []*Body
}

// NewContainer creates an empty container for parent.
func NewContainer(parent *Body) *Container {
	return &Container{parent: parent}
}

// Parent returns the parent body.
func (c *Container) Parent() *Body {
	return c.parent
}

// Children returns the attached bodies. The returned slice MUST NOT be mutated.
func (c *Container) Children() []*Body {
	return c.children
}

// Attach adds child and records its current offset from the parent. A child
// already in another container is detached from it first. Attaching the
// parent to its own container is ignored.
func (c *Container) Attach(child *Body) {
	if child == c.parent {
		return
	}
	if child.container != nil {
		child.container.Detach(child)
	}
	child.container = c
	child.containerOffset = child.Position.Minus(c.parent.Position)
	c.children = append(c.children, child)
}

// Detach removes child from the container. It reports whether child was
// attached.
func (c *Container) Detach(child *Body) bool {
	for i, ch := range c.children {
		if ch == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			child.container = nil
			child.containerOffset = Vec2{}
			return true
		}
	}
	return false
}

// DetachAll releases every child.
func (c *Container) DetachAll() {
	for _, ch := range c.children {
		ch.container = nil
		ch.containerOffset = Vec2{}
	}
	c.children = nil
}

// Propagate moves every child to parent.Position plus its attach offset.
func (c *Container) Propagate() {
	for _, ch := range c.children {
		ch.Position = c.parent.Position.Plus(ch.containerOffset)
	}
}

// ContainerOffset returns the offset recorded when b was attached, and
// whether b is attached to a container at all.
func (b *Body) ContainerOffset() (Vec2, bool) {
	return b.containerOffset, b.container != nil
}
