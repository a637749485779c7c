package vm

import "github.com/cwbaker/reyes/grid"

// LightCategory names the three light shapes §4.2/§4.3's illumination
// statements address, grounded on the original source's light
// categorization in its solar/illuminate shadeops.
type LightCategory int

const (
	LightAmbient LightCategory = iota
	LightSolar
	LightIlluminate
)

// Light is the renderer-side descriptor for one active light source: its
// category, optional axis/angle cone (solar and illuminate may both be
// given a cone; an angle of 0 means "no cone, full sphere/hemisphere"),
// and the per-sample Cl/Ol/Ps/N grid a light shader has already filled
// in.
type Light struct {
	Category LightCategory
	Axis     [3]float32
	Angle    float32
	Position [3]float32 // illuminate only
	Grid     *grid.Grid
}

// category implements grid.Light.
func (l *Light) category() int { return int(l.Category) }

var _ grid.Light = (*lightAdapter)(nil)

// lightAdapter satisfies grid.Light without pulling package vm's full
// Light type into package grid's dependency surface.
type lightAdapter struct{ light *Light }

func (a *lightAdapter) Category() int { return a.light.category() }

// AddLight registers a light with the VM, visible to any subsequent
// illuminate/solar/illuminance statement.
func (m *VM) AddLight(l *Light) {
	m.lights = append(m.lights, l)
	m.Grid.Lights = append(m.Grid.Lights, &lightAdapter{light: l})
}
