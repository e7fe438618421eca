package darkroom

// debugChecks enables scene-graph sanity warnings. Off by default.
var debugChecks bool

// SetDebug turns scene-graph sanity checks on or off. When on, AddChild
// warns through the package logger about very deep trees and containers
// with very many children.
func SetDebug(on bool) { debugChecks = on }

// debugCheckTreeDepth warns if d sits deeper than the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(d *DisplayObject) {
	depth := 1
	for p := d.parent; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		defaultLogger.Warn("darkroom: deep scene graph",
			"node", d.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugCheckChildCount warns if c holds more children than the threshold.
const debugMaxChildCount = 1000

func debugCheckChildCount(c *Container) {
	if len(c.children) > debugMaxChildCount {
		defaultLogger.Warn("darkroom: container has many children",
			"node", c.Name, "children", len(c.children), "threshold", debugMaxChildCount)
	}
}
