package render

import "testing"

func TestIdentity4MulIsIdentity(t *testing.T) {
	id := Identity4()
	m := Mat4{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	got := id.Mul(m)
	for i := range got {
		if got[i] != m[i] {
			t.Errorf("Identity4().Mul(m)[%d] = %v, want %v", i, got[i], m[i])
		}
	}
}

// mtransform composition is associative: M*(A*B) == (M*A)*B (§8).
func TestMat4MulIsAssociative(t *testing.T) {
	a := Mat4{2, 0, 0, 1, 0, 3, 0, 2, 0, 0, 4, 3, 0, 0, 0, 1}
	b := Mat4{1, 0, 0, 5, 0, 1, 0, 6, 0, 0, 1, 7, 0, 0, 0, 1}
	m := Mat4{0, 1, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

	left := m.Mul(a.Mul(b))
	right := (m.Mul(a)).Mul(b)
	for i := range left {
		if diff := left[i] - right[i]; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("associativity violated at %d: M*(A*B)=%v (A*M)*B=%v", i, left[i], right[i])
		}
	}
}

func TestNewCoordinateSystemsSeedsWorld(t *testing.T) {
	c := NewCoordinateSystems()
	m, err := c.TransformTo("world")
	if err != nil {
		t.Fatalf("TransformTo(world) failed: %v", err)
	}
	if m != Identity4() {
		t.Errorf("world transform = %v, want identity", m)
	}
}

func TestDefineRegistersNamedCoordinateSystem(t *testing.T) {
	c := NewCoordinateSystems()
	custom := Mat4{
		1, 0, 0, 10,
		0, 1, 0, 20,
		0, 0, 1, 30,
		0, 0, 0, 1,
	}
	c.Define("object", custom)
	m, err := c.TransformTo("object")
	if err != nil {
		t.Fatalf("TransformTo(object) failed: %v", err)
	}
	if m != custom {
		t.Errorf("object transform = %v, want %v", m, custom)
	}
}

func TestTransformToUnknownNameFails(t *testing.T) {
	c := NewCoordinateSystems()
	if _, err := c.TransformTo("nonexistent"); err == nil {
		t.Fatal("expected an error looking up an unregistered coordinate system")
	}
}
