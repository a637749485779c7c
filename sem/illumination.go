package sem

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/sl"
)

// analyzeIlluminate checks `illuminate(position[, axis, angle]) { body }`
// (§4.2, §4.4). position must be point-shaped; axis/angle, when given,
// are vector and float respectively.
func (a *Analyzer) analyzeIlluminate(n *sl.Node) {
	args, body := splitIlluminationArgs(n)
	if len(args) > 0 {
		t, _ := a.analyzeExpr(args[0])
		if t != lang.Point {
			a.errorf(n, "illuminate position must be a point, got %s", t)
		}
	}
	if len(args) == 3 {
		a.analyzeExpr(args[1])
		a.analyzeExpr(args[2])
	}
	a.analyzeBlock(body)
}

// analyzeSolar checks `solar([axis, angle]) { body }` (§4.2, §4.4).
func (a *Analyzer) analyzeSolar(n *sl.Node) {
	args, body := splitIlluminationArgs(n)
	if len(args) == 2 {
		a.analyzeExpr(args[0])
		a.analyzeExpr(args[1])
	}
	a.analyzeBlock(body)
}

// analyzeIlluminance checks `illuminance(position, axis, angle) { body }`
// (§4.2, §4.4). Inside the body, Cl and Ol are promoted to varying
// regardless of their declared storage, since they carry a per-light,
// per-sample contribution accumulated across the light loop — the same
// rule the original source's IlluminanceStatements shadeop applies
// before running the body for each light.
func (a *Analyzer) analyzeIlluminance(n *sl.Node) {
	args, body := splitIlluminationArgs(n)
	if len(args) > 0 {
		t, _ := a.analyzeExpr(args[0])
		if t != lang.Point {
			a.errorf(n, "illuminance position must be a point, got %s", t)
		}
	}
	if len(args) == 3 {
		a.analyzeExpr(args[1])
		a.analyzeExpr(args[2])
	}
	a.promoteLightVaryingGlobals()
	a.analyzeBlock(body)
}

// promoteLightVaryingGlobals forces Cl and Ol to varying storage for the
// remainder of analysis, matching §6's resolved open question on
// illuminance-body storage.
func (a *Analyzer) promoteLightVaryingGlobals() {
	for _, name := range []string{"Cl", "Ol"} {
		if sym, ok := a.table.Resolve(name); ok {
			sym.Storage = lang.Varying
		}
	}
}

// splitIlluminationArgs separates an illumination statement's argument
// expressions from its trailing block body.
func splitIlluminationArgs(n *sl.Node) ([]*sl.Node, *sl.Node) {
	if len(n.Children) == 0 {
		return nil, nil
	}
	body := n.Children[len(n.Children)-1]
	return n.Children[:len(n.Children)-1], body
}
