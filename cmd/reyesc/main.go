// Command reyesc is the SL shader compiler CLI.
//
// Usage:
//
//	reyesc [options] <input.sl>
//
// Examples:
//
//	reyesc surface.sl                  # compile and report diagnostics
//	reyesc -o surface.bc surface.sl    # compile and write the register listing and instruction/constant counts to a file
//	reyesc -validate=false surface.sl  # skip semantic analysis; code generation still runs
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/cwbaker/reyes"
	"github.com/cwbaker/reyes/render"
	"github.com/cwbaker/reyes/symbols"
)

var (
	output      = flag.String("o", "", "output listing file (default: stdout)")
	validate    = flag.Bool("validate", true, "run semantic analysis")
	versionFlag = flag.Bool("version", false, "print version")
)

// version returns the module version from build info.
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func usage() {
	fmt.Fprintf(os.Stderr, "reyesc %s - RenderMan-style shading language compiler\n\n", version())
	fmt.Fprintf(os.Stderr, "Usage: reyesc [options] <input.sl>\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Println(version())
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "reyesc: %s: %v\n", args[0], err)
		os.Exit(int(render.OpeningFileFailed))
	}

	policy := render.NewCountingPolicy(func(code render.ErrorCode, message string) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", code, message)
	})

	opts := reyes.DefaultOptions()
	opts.Validate = *validate

	predefined := symbols.NewPredefinedScope()
	shader, err := reyes.Compile(string(source), predefined, policy, opts)
	if err != nil {
		os.Exit(int(render.ParsingFailed))
	}

	out := os.Stdout
	if *output != "" {
		f, ferr := os.Create(*output)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "reyesc: %s: %v\n", *output, ferr)
			os.Exit(int(render.OpeningFileFailed))
		}
		defer f.Close()
		out = f
	}

	fmt.Fprintf(out, "shader %s (kind=%d)\n", shader.Name, shader.Kind)
	fmt.Fprintf(out, "registers: %d, instructions: %d, constants: %d\n",
		len(shader.Program.Registers), len(shader.Program.Instructions), len(shader.Program.Constants))
	for i, reg := range shader.Program.Registers {
		fmt.Fprintf(out, "  r%-4d %-8s %-8s %s\n", i, reg.Storage, reg.Type, reg.Name)
	}
}
