// Command reyesvm loads a compiled SL surface shader and a small grid
// description, runs the shading VM over it, and prints the resulting
// attribute buffers. It plays the renderer-driver role §6 calls an
// external collaborator, reduced to a runnable example binary: the
// renderer normally constructs a Grid, attaches a compiled Shader, and
// calls shade (§2 "Control flow").
//
// Usage:
//
//	reyesvm [-w width] [-h height] <shader.sl>
//
// The grid is seeded with a flat P/N (facing the camera) and a white
// Cs/Os so a shader can be exercised without a full renderer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbaker/reyes"
	"github.com/cwbaker/reyes/grid"
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/render"
	"github.com/cwbaker/reyes/symbols"
)

var (
	width  = flag.Int("w", 2, "grid width, in shading samples")
	height = flag.Int("h", 2, "grid height, in shading samples")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: reyesvm [-w width] [-h height] <shader.sl>\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "reyesvm: %s: %v\n", args[0], err)
		os.Exit(int(render.OpeningFileFailed))
	}

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", code, message)
	})

	predefined := symbols.NewPredefinedScope()
	shader, err := reyes.Compile(string(source), predefined, policy, reyes.DefaultOptions())
	if err != nil {
		os.Exit(int(render.ParsingFailed))
	}

	g := grid.New(*width, *height)
	seedSurfaceGlobals(g)

	coords := render.NewCoordinateSystems()
	if err := reyes.Shade(g, shader, coords, policy); err != nil {
		fmt.Fprintf(os.Stderr, "reyesvm: shade failed: %v\n", err)
		os.Exit(1)
	}

	for _, name := range []string{"Ci", "Oi", "P", "N"} {
		v, ok := g.Lookup(name)
		if !ok {
			continue
		}
		fmt.Printf("%s (%s, %s):\n", name, v.Storage, v.Type)
		printValue(v)
	}
}

func seedSurfaceGlobals(g *grid.Grid) {
	cs := g.Add("Cs", lang.Color, lang.Varying)
	os := g.Add("Os", lang.Color, lang.Varying)
	p := g.Add("P", lang.Point, lang.Varying)
	n := g.Add("N", lang.Normal, lang.Varying)
	iv := g.Add("I", lang.Vector, lang.Varying)
	g.Add("s", lang.Float, lang.Varying)
	g.Add("t", lang.Float, lang.Varying)
	g.Add("Ci", lang.Color, lang.Varying)
	g.Add("Oi", lang.Color, lang.Varying)

	for i := 0; i < g.Samples(); i++ {
		copy(cs.Data[i*3:i*3+3], []float32{1, 1, 1})
		copy(os.Data[i*3:i*3+3], []float32{1, 1, 1})
		copy(p.Data[i*3:i*3+3], []float32{0, 0, 0})
		copy(n.Data[i*3:i*3+3], []float32{0, 0, 1})
		copy(iv.Data[i*3:i*3+3], []float32{0, 0, -1})
	}
}

func printValue(v *grid.Value) {
	comp := v.Type.Components()
	if comp == 0 {
		for i, s := range v.Str {
			fmt.Printf("  [%d] %q\n", i, s)
		}
		return
	}
	n := len(v.Data) / comp
	for i := 0; i < n; i++ {
		fmt.Printf("  [%d] %v\n", i, v.Data[i*comp:i*comp+comp])
	}
}
