package grid

import (
	"testing"

	"github.com/cwbaker/reyes/lang"
)

func TestNewGridHasNoAttributes(t *testing.T) {
	g := New(4, 2)
	if g.Samples() != 8 {
		t.Errorf("Samples() = %d, want 8", g.Samples())
	}
	if len(g.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", g.Names())
	}
}

// A varying attribute's buffer has one Components()-sized group per
// sample; a uniform or constant attribute's buffer has exactly one.
func TestAddSizesStorageByClass(t *testing.T) {
	g := New(4, 2)
	v := g.Add("Cs", lang.Color, lang.Varying)
	if len(v.Data) != 8*3 {
		t.Errorf("varying color len(Data) = %d, want %d", len(v.Data), 8*3)
	}
	u := g.Add("albedo", lang.Float, lang.Uniform)
	if len(u.Data) != 1 {
		t.Errorf("uniform float len(Data) = %d, want 1", len(u.Data))
	}
}

// Add is idempotent when the name, type, and storage all match an
// existing attribute: the same buffer comes back, preserving any writes
// already made to it.
func TestAddIsIdempotent(t *testing.T) {
	g := New(2, 2)
	first := g.Add("x", lang.Float, lang.Varying)
	first.Data[0] = 42
	second := g.Add("x", lang.Float, lang.Varying)
	if second != first {
		t.Fatal("Add returned a different Value for an identical re-declaration")
	}
	if second.Data[0] != 42 {
		t.Errorf("Data[0] = %v, want 42 (re-Add must not reallocate)", second.Data[0])
	}
}

// Re-adding the same name with a different type or storage class
// reallocates (since it is really a different attribute).
func TestAddReallocatesOnShapeChange(t *testing.T) {
	g := New(2, 2)
	first := g.Add("x", lang.Float, lang.Varying)
	first.Data[0] = 42
	second := g.Add("x", lang.Float, lang.Uniform)
	if second == first {
		t.Fatal("Add should reallocate when storage class changes")
	}
	if len(second.Data) != 1 {
		t.Errorf("len(Data) = %d, want 1", len(second.Data))
	}
}

func TestLookupMissingAttribute(t *testing.T) {
	g := New(1, 1)
	if _, ok := g.Lookup("nope"); ok {
		t.Error("Lookup of an undeclared attribute should report ok=false")
	}
}

// A string-typed value uses Str, never Data.
func TestStringValueUsesStrSlice(t *testing.T) {
	g := New(2, 1)
	v := g.Add("name", lang.String, lang.Varying)
	if v.Data != nil {
		t.Errorf("Data = %v, want nil for a string value", v.Data)
	}
	if len(v.Str) != 2 {
		t.Errorf("len(Str) = %d, want 2", len(v.Str))
	}
}

// Resize reallocates varying attributes to the new sample count and
// leaves uniform attributes at their single-group length.
func TestResizeReallocatesVaryingOnly(t *testing.T) {
	g := New(2, 2)
	p := g.Add("P", lang.Point, lang.Varying)
	albedo := g.Add("albedo", lang.Float, lang.Uniform)
	albedo.Data[0] = 0.5

	g.Resize(4, 4)

	if g.Samples() != 16 {
		t.Errorf("Samples() = %d, want 16", g.Samples())
	}
	resizedP, _ := g.Lookup("P")
	if len(resizedP.Data) != 16*3 {
		t.Errorf("resized varying len(Data) = %d, want %d", len(resizedP.Data), 16*3)
	}
	resizedAlbedo, _ := g.Lookup("albedo")
	if len(resizedAlbedo.Data) != 1 {
		t.Errorf("uniform len(Data) after Resize = %d, want 1", len(resizedAlbedo.Data))
	}
	if resizedAlbedo.Data[0] != 0.5 {
		t.Errorf("uniform Data after Resize = %v, want unchanged 0.5", resizedAlbedo.Data[0])
	}
	_ = p
}

// Resizing to the same dimensions is a no-op: existing buffers (and
// any writes already in them) are left alone.
func TestResizeNoopOnSameDimensions(t *testing.T) {
	g := New(2, 2)
	v := g.Add("x", lang.Float, lang.Varying)
	v.Data[0] = 7
	g.Resize(2, 2)
	same, _ := g.Lookup("x")
	if same != v {
		t.Fatal("Resize to identical dimensions reallocated an attribute")
	}
	if same.Data[0] != 7 {
		t.Errorf("Data[0] = %v, want unchanged 7", same.Data[0])
	}
}
