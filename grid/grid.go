// Package grid implements the data-parallel Grid the shading VM shades
// over: a rectangular lattice of shading points with columnar,
// attribute-named value storage at constant, uniform, or varying length
// (§3).
package grid

import "github.com/cwbaker/reyes/lang"

// Value is a single named attribute's storage: a contiguous buffer of
// float32 components, one group of Type.Components() floats per lattice
// sample (or a single group when Storage is constant/uniform, §3).
type Value struct {
	Type    lang.Type
	Storage lang.Storage
	Data    []float32 // len == Length() * Type.Components()
	Str     []string  // used instead of Data when Type == lang.String
}

// Length returns the number of per-sample entries this value holds: 1
// for constant/uniform, width*height for varying.
func (v *Value) Length(width, height int) int {
	if v.Storage == lang.Varying {
		return width * height
	}
	return 1
}

// NewValue allocates a zero-initialized Value sized for storage class s
// over a width x height grid, per §3's "eager zero-initializer"
// invariant: every declared attribute is immediately backed by storage,
// never lazily materialized.
func NewValue(t lang.Type, s lang.Storage, width, height int) *Value {
	length := 1
	if s == lang.Varying {
		length = width * height
	}
	v := &Value{Type: t, Storage: s}
	if t == lang.String {
		v.Str = make([]string, length)
	} else {
		v.Data = make([]float32, length*t.Components())
	}
	return v
}

// Grid is a rectangular lattice of shading samples plus every named
// attribute currently bound to it (§3). A renderer driver reuses one
// Grid across many micropolygon batches rather than allocating fresh,
// calling Resize between batches of differing size (§6's Host API).
type Grid struct {
	Width, Height int

	attributes map[string]*Value

	// ShadingRate is a hint to the renderer's micropolygon dicing stage;
	// it does not affect VM execution.
	ShadingRate float32

	// Lights lists every light currently visible to this grid's
	// illuminance loop (§4.6); populated by the renderer before running
	// a surface shader.
	Lights []Light
}

// Light is the renderer-side handle a Grid holds for one active light
// source, opaque to package grid itself (defined fully in package vm to
// avoid an import cycle back into grid).
type Light interface {
	Category() int
}

// New creates a Grid with no attributes bound.
func New(width, height int) *Grid {
	return &Grid{Width: width, Height: height, attributes: make(map[string]*Value)}
}

// Add declares (or re-declares) a named attribute, (re)allocating its
// storage. Add is idempotent: adding the same name and shape twice
// leaves the existing buffer in place rather than reallocating, so a
// shader's predefined globals can be seeded once before each grid's
// shaders run without losing earlier writes (§3).
func (g *Grid) Add(name string, t lang.Type, s lang.Storage) *Value {
	if v, ok := g.attributes[name]; ok && v.Type == t && v.Storage == s {
		return v
	}
	v := NewValue(t, s, g.Width, g.Height)
	g.attributes[name] = v
	return v
}

// Lookup returns the named attribute, or false if it has not been
// added.
func (g *Grid) Lookup(name string) (*Value, bool) {
	v, ok := g.attributes[name]
	return v, ok
}

// Names returns every attribute name currently bound to the grid.
func (g *Grid) Names() []string {
	names := make([]string, 0, len(g.attributes))
	for name := range g.attributes {
		names = append(names, name)
	}
	return names
}

// Samples returns the number of shading samples in the grid.
func (g *Grid) Samples() int {
	return g.Width * g.Height
}

// Resize changes the grid's dimensions and reallocates every bound
// varying attribute's storage to match (§6's Host API: a renderer
// driver dices geometry into differently sized micropolygon batches
// and reuses one Grid across them rather than allocating a fresh one
// per batch). Uniform and constant attributes keep their single-group
// buffer untouched, since their length does not depend on Width or
// Height. Resized varying buffers come back zeroed, same as a freshly
// Add-ed attribute; any samples a shader needs seeded (P, N, and so
// on) must be written again by the caller after Resize.
func (g *Grid) Resize(width, height int) {
	if width == g.Width && height == g.Height {
		return
	}
	g.Width, g.Height = width, height
	for name, v := range g.attributes {
		if v.Storage != lang.Varying {
			continue
		}
		g.attributes[name] = NewValue(v.Type, v.Storage, width, height)
	}
}
