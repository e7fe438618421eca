package darkroom

// Container is a node that owns an ordered list of children and an ordered
// list of filters applied to its whole subtree.
type Container struct {
	DisplayObject

	children []Node
	filters  []Filter
}

// NewContainer creates an empty container.
func NewContainer(name string) *Container {
	c := &Container{}
	c.init(name)
	return c
}

// AddChild appends child. If child already has a parent it is removed from
// that parent first. Panics if child is nil or is an ancestor of c.
func (c *Container) AddChild(child Node) {
	c.AddChildAt(child, len(c.children))
}

// AddChildAt inserts child at index, with the same reparenting rules as
// AddChild.
func (c *Container) AddChildAt(child Node, index int) {
	if child == nil {
		panic("darkroom: cannot add nil child")
	}
	cd := child.displayObject()
	if isAncestor(cd, &c.DisplayObject) {
		panic("darkroom: adding child would create a cycle")
	}
	if cd.parent != nil {
		cd.parent.removeChild(child)
		if cd.parent == c && index > len(c.children) {
			index = len(c.children)
		}
	}
	if index < 0 || index > len(c.children) {
		panic("darkroom: child index out of range")
	}
	cd.parent = c
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	if debugChecks {
		debugCheckTreeDepth(cd)
		debugCheckChildCount(c)
	}
}

// RemoveChild detaches child. Panics if child is not a child of c.
func (c *Container) RemoveChild(child Node) {
	if child.displayObject().parent != c {
		panic("darkroom: child's parent is not this container")
	}
	c.removeChild(child)
	child.displayObject().parent = nil
}

// RemoveChildren detaches all children.
func (c *Container) RemoveChildren() {
	for i, child := range c.children {
		child.displayObject().parent = nil
		c.children[i] = nil
	}
	c.children = c.children[:0]
}

// Children returns the child list. The returned slice must not be mutated.
func (c *Container) Children() []Node {
	return c.children
}

// NumChildren returns the number of children.
func (c *Container) NumChildren() int {
	return len(c.children)
}

// removeChild drops child from c.children without touching its parent.
func (c *Container) removeChild(child Node) {
	for i, ch := range c.children {
		if ch == child {
			copy(c.children[i:], c.children[i+1:])
			c.children[len(c.children)-1] = nil
			c.children = c.children[:len(c.children)-1]
			return
		}
	}
}

// Filters returns the filters applied to this subtree.
func (c *Container) Filters() []Filter {
	return c.filters
}

// SetFilters replaces the filter list. No arguments clears it.
func (c *Container) SetFilters(filters ...Filter) {
	c.filters = append(c.filters[:0], filters...)
}

// UpdateTransform updates c and then every descendant, top-down.
func (c *Container) UpdateTransform() {
	c.DisplayObject.UpdateTransform()
	c.updateChildren()
}

func (c *Container) updateChildren() {
	for _, child := range c.children {
		child.UpdateTransform()
	}
}

// Bounds returns the union of the visible children's bounds.
func (c *Container) Bounds() Rectangle {
	var r Rectangle
	for _, child := range c.children {
		if !child.displayObject().Visible {
			continue
		}
		r = r.Union(child.Bounds())
	}
	return r
}

// RenderVia draws the children through r, wrapped in this container's
// filters.
func (c *Container) RenderVia(r Renderer) error {
	return c.renderWith(r, c, nil)
}

// renderWith is the shared draw path for every node: push filters sized to
// self's bounds, draw self, draw children, pop and apply filters.
func (c *Container) renderWith(r Renderer, self Drawable, drawSelf func() error) error {
	if !c.Visible || c.worldAlpha <= 0 {
		return nil
	}
	fm := r.FilterManager()
	pushed := false
	if len(c.filters) > 0 {
		if err := fm.PushFilters(self, c.filters); err != nil {
			return err
		}
		pushed = true
	}

	err := c.renderContent(r, drawSelf)

	if pushed {
		if perr := fm.PopFilters(); err == nil {
			err = perr
		}
	}
	return err
}

func (c *Container) renderContent(r Renderer, drawSelf func() error) error {
	if drawSelf != nil {
		if err := drawSelf(); err != nil {
			return err
		}
	}
	for _, child := range c.children {
		if err := child.RenderVia(r); err != nil {
			return err
		}
	}
	return nil
}
