package reyes

import (
	"testing"

	"github.com/cwbaker/reyes/grid"
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/render"
	"github.com/cwbaker/reyes/symbols"
)

// compileSurface compiles source (a surface shader) against a fresh
// predefined scope and a no-op error policy, failing the test on any
// diagnostic.
func compileSurface(t *testing.T, source string) *Shader {
	t.Helper()
	predefined := symbols.NewPredefinedScope()
	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		t.Logf("%s: %s", code, message)
	})
	shader, err := Compile(source, predefined, policy, DefaultOptions())
	if err != nil {
		t.Fatalf("compile failed: %v (messages: %v)", err, policy.Messages())
	}
	return shader
}

// gridWithFloats builds a 2x2 varying-float Grid with one attribute per
// entry in attrs, each seeded with the given four values (§8's scenarios
// are all stated over a 2x2/four-sample grid).
func gridWithFloats(attrs map[string][4]float32) *grid.Grid {
	g := grid.New(2, 2)
	for name, values := range attrs {
		v := g.Add(name, lang.Float, lang.Varying)
		copy(v.Data, values[:])
	}
	return g
}

func runShader(t *testing.T, shader *Shader, g *grid.Grid) {
	t.Helper()
	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		t.Logf("%s: %s", code, message)
	})
	if err := Shade(g, shader, render.NewCoordinateSystems(), policy); err != nil {
		t.Fatalf("shade failed: %v", err)
	}
}

func floatsOf(t *testing.T, g *grid.Grid, name string) []float32 {
	t.Helper()
	v, ok := g.Lookup(name)
	if !ok {
		t.Fatalf("grid has no attribute %q", name)
	}
	return v.Data
}

// Scenario 1 (§8): `surface s() { x = 1; }` on a 2x2 grid with varying
// float x initialized to 0 produces x = [1,1,1,1].
func TestScenarioAssignConstant(t *testing.T) {
	shader := compileSurface(t, `surface s(varying float x = 0;) { x = 1; }`)
	g := gridWithFloats(map[string][4]float32{"x": {0, 0, 0, 0}})
	runShader(t, shader, g)
	got := floatsOf(t, g, "x")
	want := []float32{1, 1, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("x[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

// Scenario 2 (§8): `surface s() { if (x > 0) y = 1 - 2*x; }` with
// x = [1,0,1,0] and y = [0,0,0,0] produces y = [-1,0,-1,0].
func TestScenarioVaryingIf(t *testing.T) {
	shader := compileSurface(t, `surface s(varying float x = 0; varying float y = 0;) {
		if (x > 0) y = 1 - 2*x;
	}`)
	g := gridWithFloats(map[string][4]float32{
		"x": {1, 0, 1, 0},
		"y": {0, 0, 0, 0},
	})
	runShader(t, shader, g)
	got := floatsOf(t, g, "y")
	want := []float32{-1, 0, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

// Scenario 3 (§8): `break` inside a uniform-condition for loop exits
// after the first iteration, so y accumulates x exactly once.
func TestScenarioUniformLoopBreak(t *testing.T) {
	shader := compileSurface(t, `surface s(varying float x = 0; varying float y = 0;) {
		uniform float i;
		for (i = 0; i < 4; i += 1) {
			y += x;
			break;
		}
	}`)
	g := gridWithFloats(map[string][4]float32{
		"x": {1, 0, 1, 0},
		"y": {0, 0, 0, 0},
	})
	runShader(t, shader, g)
	got := floatsOf(t, g, "y")
	want := []float32{1, 0, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

// Scenario 4 (§8): `continue` skips the second accumulation on every
// iteration, so y accumulates x exactly once per iteration (4 total).
func TestScenarioUniformLoopContinue(t *testing.T) {
	shader := compileSurface(t, `surface s(varying float x = 0; varying float y = 0;) {
		uniform float i;
		for (i = 0; i < 4; i += 1) {
			y += x;
			continue;
			y += x;
		}
	}`)
	g := gridWithFloats(map[string][4]float32{
		"x": {1, 0, 1, 0},
		"y": {0, 0, 0, 0},
	})
	runShader(t, shader, g)
	got := floatsOf(t, g, "y")
	want := []float32{4, 0, 4, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

// Scenario 5 (§8): comparison results are numerically 0/1 (SL has no
// user-declarable integer type; comparisons produce the language's
// internal integer type, which only ever surfaces through a float
// target here, matching original RenderMan SL's float-as-boolean
// convention).
func TestScenarioComparisonResults(t *testing.T) {
	shader := compileSurface(t, `surface s(varying float x = 0; varying float a = 0;) {
		a = x > 0;
	}`)
	g := gridWithFloats(map[string][4]float32{
		"x": {-1, 0, 0, 1},
		"a": {0, 0, 0, 0},
	})
	runShader(t, shader, g)
	got := floatsOf(t, g, "a")
	want := []float32{0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("a[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}

	shaderGE := compileSurface(t, `surface s(varying float x = 0; varying float a = 0;) {
		a = x >= 0;
	}`)
	g2 := gridWithFloats(map[string][4]float32{
		"x": {-1, 0, 0, 1},
		"a": {0, 0, 0, 0},
	})
	runShader(t, shaderGE, g2)
	got2 := floatsOf(t, g2, "a")
	want2 := []float32{0, 1, 1, 1}
	for i := range want2 {
		if got2[i] != want2[i] {
			t.Errorf("(>=) a[%d] = %v, want %v (full: %v)", i, got2[i], want2[i], got2)
		}
	}
}

// §8: "For all `break k` outside a k-deep loop: compile fails with
// CODE_GENERATION_ERROR and message 'Break to a level outside of a
// loop'. Same for continue."
func TestBreakOutOfRangeLevelFails(t *testing.T) {
	predefined := symbols.NewPredefinedScope()
	var messages []string
	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		messages = append(messages, message)
		if code != render.CodeGenerationError {
			t.Errorf("expected CODE_GENERATION_ERROR, got %s", code)
		}
	})
	source := `surface s() {
		while (1 > 0) {
			break 2;
		}
	}`
	_, err := Compile(source, predefined, policy, DefaultOptions())
	if err == nil {
		t.Fatal("expected compile to fail for an out-of-range break level")
	}
	found := false
	for _, m := range messages {
		if m == "Break to a level outside of a loop" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected message %q, got %v", "Break to a level outside of a loop", messages)
	}
}

// §8: break/continue entirely outside any loop is also a
// CODE_GENERATION_ERROR.
func TestBreakOutsideLoopFails(t *testing.T) {
	predefined := symbols.NewPredefinedScope()
	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		if code != render.CodeGenerationError {
			t.Errorf("expected CODE_GENERATION_ERROR, got %s", code)
		}
	})
	source := `surface s() {
		break;
	}`
	if _, err := Compile(source, predefined, policy, DefaultOptions()); err == nil {
		t.Fatal("expected compile to fail for a break outside any loop")
	}
}

// §8: assignment is idempotent: x = v twice produces the same grid
// state as once.
func TestAssignmentIsIdempotent(t *testing.T) {
	source := `surface s(varying float x = 0;) { x = 1; x = 1; }`
	shader := compileSurface(t, source)
	g := gridWithFloats(map[string][4]float32{"x": {0, 0, 0, 0}})
	runShader(t, shader, g)
	twice := append([]float32(nil), floatsOf(t, g, "x")...)

	shaderOnce := compileSurface(t, `surface s(varying float x = 0;) { x = 1; }`)
	g2 := gridWithFloats(map[string][4]float32{"x": {0, 0, 0, 0}})
	runShader(t, shaderOnce, g2)
	once := floatsOf(t, g2, "x")

	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("idempotence violated at %d: once=%v twice=%v", i, once[i], twice[i])
		}
	}
}

// §8: storage-class demotion (assigning a varying value to a uniform
// target) is a compile error, not a silent truncation.
func TestStorageDemotionFails(t *testing.T) {
	predefined := symbols.NewPredefinedScope()
	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {})
	source := `surface s(varying float x = 0;) {
		uniform float u;
		u = x;
	}`
	if _, err := Compile(source, predefined, policy, DefaultOptions()); err == nil {
		t.Fatal("expected compile to fail assigning a varying value to a uniform target")
	}
}
