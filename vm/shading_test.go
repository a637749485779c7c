package vm

import (
	"testing"

	"github.com/cwbaker/reyes/grid"
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/render"
)

// TestLibraryAmbient checks that ambient() sums every LightAmbient's
// color and ignores non-ambient lights, with no position/cone test.
func TestLibraryAmbient(t *testing.T) {
	program := compileTestProgram(t, `surface s() {
		Ci = ambient();
	}`)

	g := grid.New(1, 1)
	ci := g.Add("Ci", lang.Color, lang.Varying)

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {})
	m := New(program, g, render.NewCoordinateSystems(), policy)

	ambientGrid := grid.New(1, 1)
	copy(ambientGrid.Add("Cl", lang.Color, lang.Uniform).Data, []float32{0.1, 0.2, 0.3})
	m.AddLight(&Light{Category: LightAmbient, Grid: ambientGrid})

	illumGrid := grid.New(1, 1)
	copy(illumGrid.Add("Cl", lang.Color, lang.Uniform).Data, []float32{1, 1, 1})
	m.AddLight(&Light{Category: LightIlluminate, Position: [3]float32{0, 1, 0}, Grid: illumGrid})

	for i, reg := range program.Registers {
		if reg.Name == "Ci" {
			m.BindParameter(i, ci)
		}
	}
	if err := m.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, reg := range program.Registers {
		if reg.Name == "Ci" {
			m.StoreParameter(i, ci)
		}
	}

	want := [3]float32{0.1, 0.2, 0.3}
	for c := 0; c < 3; c++ {
		if ci.Data[c] != want[c] {
			t.Errorf("Ci[%d] = %v, want %v (illuminate light must not contribute)", c, ci.Data[c], want[c])
		}
	}
}

// TestLibraryDiffuse checks diffuse(N) against a single illuminate
// light straight above the surface: a normal pointing at the light
// gets full N.L weighting, a normal pointing away gets zero.
func TestLibraryDiffuse(t *testing.T) {
	program := compileTestProgram(t, `surface s() {
		Ci = diffuse(N);
	}`)

	g := grid.New(2, 1)
	p := g.Add("P", lang.Point, lang.Varying)
	n := g.Add("N", lang.Normal, lang.Varying)
	ci := g.Add("Ci", lang.Color, lang.Varying)
	copy(p.Data, []float32{0, 0, 0, 0, 0, 0})
	copy(n.Data, []float32{0, 1, 0, 0, -1, 0})

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {})
	m := New(program, g, render.NewCoordinateSystems(), policy)

	lightGrid := grid.New(1, 1)
	copy(lightGrid.Add("Cl", lang.Color, lang.Uniform).Data, []float32{1, 1, 1})
	m.AddLight(&Light{Category: LightIlluminate, Position: [3]float32{0, 1, 0}, Grid: lightGrid})

	bind := func(name string, v *grid.Value) {
		for i, reg := range program.Registers {
			if reg.Name == name {
				m.BindParameter(i, v)
			}
		}
	}
	bind("P", p)
	bind("N", n)
	bind("Ci", ci)

	if err := m.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, reg := range program.Registers {
		if reg.Name == "Ci" {
			m.StoreParameter(i, ci)
		}
	}

	if got := ci.Data[1]; got <= 0.99 || got > 1.0001 {
		t.Errorf("lit sample green = %v, want ~1", got)
	}
	for c := 0; c < 3; c++ {
		if got := ci.Data[3+c]; got != 0 {
			t.Errorf("unlit sample Ci[%d] = %v, want 0", c, got)
		}
	}
}

// TestLibrarySpecularBRDFMatchesLitDirection checks specularbrdf(L, N,
// V, roughness) returns its maximum (1,1,1) when the half vector aligns
// exactly with N.
func TestLibrarySpecularBRDFMatchesLitDirection(t *testing.T) {
	program := compileTestProgram(t, `surface s(varying float roughness = 1;) {
		Ci = specularbrdf(normalize(vector(0,1,0)), N, normalize(vector(0,1,0)), roughness);
	}`)

	g := grid.New(1, 1)
	n := g.Add("N", lang.Normal, lang.Varying)
	ci := g.Add("Ci", lang.Color, lang.Varying)
	copy(n.Data, []float32{0, 1, 0})

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {})
	m := New(program, g, render.NewCoordinateSystems(), policy)

	bind := func(name string, v *grid.Value) {
		for i, reg := range program.Registers {
			if reg.Name == name {
				m.BindParameter(i, v)
			}
		}
	}
	bind("N", n)
	bind("Ci", ci)

	if err := m.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, reg := range program.Registers {
		if reg.Name == "Ci" {
			m.StoreParameter(i, ci)
		}
	}

	for c := 0; c < 3; c++ {
		if got := ci.Data[c]; got < 0.99 || got > 1.0001 {
			t.Errorf("Ci[%d] = %v, want ~1 when H aligns with N", c, got)
		}
	}
}

// TestLibraryTraceIsZeroStub checks trace(P, R) always reports black,
// matching the original source's stub (ray tracing is out of scope).
func TestLibraryTraceIsZeroStub(t *testing.T) {
	program := compileTestProgram(t, `surface s() {
		Ci = trace(P, I);
	}`)

	g := grid.New(1, 1)
	p := g.Add("P", lang.Point, lang.Varying)
	i := g.Add("I", lang.Vector, lang.Varying)
	ci := g.Add("Ci", lang.Color, lang.Varying)
	copy(i.Data, []float32{0, 0, 1})

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {})
	m := New(program, g, render.NewCoordinateSystems(), policy)

	bind := func(name string, v *grid.Value) {
		for idx, reg := range program.Registers {
			if reg.Name == name {
				m.BindParameter(idx, v)
			}
		}
	}
	bind("P", p)
	bind("I", i)
	bind("Ci", ci)

	if err := m.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for idx, reg := range program.Registers {
		if reg.Name == "Ci" {
			m.StoreParameter(idx, ci)
		}
	}
	for c := 0; c < 3; c++ {
		if ci.Data[c] != 0 {
			t.Errorf("Ci[%d] = %v, want 0", c, ci.Data[c])
		}
	}
}
