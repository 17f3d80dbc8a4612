// meshtool is a CLI utility for converting and inspecting OBJ and STL meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/Faultbox/meshconv/internal/config"
	"github.com/Faultbox/meshconv/internal/logger"
	"github.com/Faultbox/meshconv/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert", "c":
		cmdConvert(args)
	case "info", "i":
		cmdInfo(args)
	case "join", "j":
		cmdJoin(args)
	case "normals", "n":
		cmdNormals(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - OBJ/STL mesh utility

Usage:
  meshtool <command> [options]

Commands:
  convert <src> <dst>                    Convert by file extension
  convert -out <dir> -ext <ext> <src>... Convert many files into a directory
  info <file>                            Show objects, pool sizes and bounds
  join -o <out.stl> <a.stl> <b.stl>...   Merge STL files, solids by name
  normals -o <out.obj> <in.obj>          Recompute OBJ normals

Common options:
  -config <file>   YAML config file
  -debug           Debug logging
  -log-file <file> Also log to a rotating file
  -profile <dir>   Write a CPU profile to dir

Examples:
  meshtool convert -binary model.obj model.stl
  meshtool convert -out stl -ext stl parts/*.obj
  meshtool info model.stl
  meshtool join -o scene.stl a.stl b.stl
  meshtool normals -smooth -o smooth.obj model.obj`)
}

// common holds the options every subcommand accepts.
type common struct {
	config  *string
	debug   *bool
	logFile *string
	profile *string
}

func addCommon(fs *flag.FlagSet) *common {
	return &common{
		config:  fs.String("config", "", "Path to config file"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		logFile: fs.String("log-file", "", "Write logs to this file"),
		profile: fs.String("profile", "", "Write a CPU profile to this directory"),
	}
}

// setup loads config, applies overrides and starts logging. The returned
// function stops profiling and flushes logs.
func (c *common) setup(override func(*config.Config)) (*pipeline.Converter, *config.Config, func()) {
	cfg, err := config.LoadFile(*c.config)
	if err != nil {
		fatalf("Config error: %v", err)
	}
	if *c.debug {
		cfg.Logging.Level = "debug"
	}
	if *c.logFile != "" {
		cfg.Logging.LogFile = *c.logFile
	}
	if override != nil {
		override(cfg)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatalf("Logger error: %v", err)
	}

	var stopProfile func()
	if *c.profile != "" {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath(*c.profile), profile.Quiet)
		stopProfile = p.Stop
	}

	conv, err := pipeline.New(cfg)
	if err != nil {
		logger.Sync()
		fatalf("Error: %v", err)
	}

	return conv, cfg, func() {
		if stopProfile != nil {
			stopProfile()
		}
		logger.Sync()
	}
}

func cmdConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	com := addCommon(fs)
	binary := fs.Bool("binary", false, "Write binary STL")
	normals := fs.String("normals", "", "Normal synthesis: flat, smooth or none")
	encoding := fs.String("encoding", "", "Charset of text input")
	outDir := fs.String("out", "", "Output directory for batch conversion")
	ext := fs.String("ext", "", "Output extension for batch conversion (obj or stl)")
	fs.Parse(args)

	batch := *outDir != ""
	if (!batch && fs.NArg() != 2) || (batch && (fs.NArg() < 1 || *ext == "")) {
		fmt.Fprintln(os.Stderr, "Usage: meshtool convert [options] <src> <dst>")
		fmt.Fprintln(os.Stderr, "       meshtool convert [options] -out <dir> -ext <obj|stl> <src>...")
		os.Exit(1)
	}

	conv, _, done := com.setup(func(cfg *config.Config) {
		if *binary {
			cfg.Conversion.STLBinary = true
		}
		if *normals != "" {
			cfg.Conversion.Normals = *normals
		}
		if *encoding != "" {
			cfg.Conversion.InputEncoding = *encoding
		}
	})
	defer done()

	if !batch {
		res, err := conv.ConvertFile(fs.Arg(0), fs.Arg(1))
		if err != nil {
			done()
			fatalf("Error: %v", err)
		}
		printResult(res)
		return
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		done()
		fatalf("Error: %v", err)
	}
	suffix := "." + strings.TrimPrefix(strings.ToLower(*ext), ".")

	failed := 0
	for _, src := range fs.Args() {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(*outDir, base+suffix)
		res, err := conv.ConvertFile(src, dst)
		if err != nil {
			logger.Error("conversion failed", zap.String("src", src), zap.Error(err))
			failed++
			continue
		}
		printResult(res)
	}

	if m := conv.Materials(); m != nil {
		logger.Debug("material cache", zap.Int("libraries", m.Len()))
	}
	if failed > 0 {
		done()
		fatalf("%d of %d conversions failed", failed, fs.NArg())
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	com := addCommon(fs)
	encoding := fs.String("encoding", "", "Charset of text input")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <file.obj|file.stl>")
		os.Exit(1)
	}

	conv, _, done := com.setup(func(cfg *config.Config) {
		if *encoding != "" {
			cfg.Conversion.InputEncoding = *encoding
		}
	})
	defer done()

	for _, path := range fs.Args() {
		s, err := conv.Describe(path)
		if err != nil {
			done()
			fatalf("Error: %v", err)
		}
		printSummary(s)
	}
}

func cmdJoin(args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	com := addCommon(fs)
	out := fs.String("o", "", "Output STL file")
	binary := fs.Bool("binary", false, "Write binary STL")
	fs.Parse(args)

	if *out == "" || fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool join -o <out.stl> [-binary] <a.stl> [b.stl]...")
		os.Exit(1)
	}

	conv, _, done := com.setup(func(cfg *config.Config) {
		if *binary {
			cfg.Conversion.STLBinary = true
		}
	})
	defer done()

	doc, err := conv.JoinSTL(fs.Args(), *out)
	if err != nil {
		done()
		fatalf("Error: %v", err)
	}
	fmt.Printf("Joined %d files into %s\n", fs.NArg(), *out)
	fmt.Printf("Solids:    %d\n", len(doc.Names()))
	fmt.Printf("Triangles: %d\n", doc.TriangleCount())
}

func cmdNormals(args []string) {
	fs := flag.NewFlagSet("normals", flag.ExitOnError)
	com := addCommon(fs)
	out := fs.String("o", "", "Output OBJ file")
	smooth := fs.Bool("smooth", false, "Average normals per vertex instead of per face")
	fs.Parse(args)

	if *out == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool normals [-smooth] -o <out.obj> <in.obj>")
		os.Exit(1)
	}

	conv, cfg, done := com.setup(func(cfg *config.Config) {
		cfg.Conversion.RecomputeNormals = true
		cfg.Conversion.Normals = "flat"
		if *smooth {
			cfg.Conversion.Normals = "smooth"
		}
	})
	defer done()

	res, err := conv.Convert(fs.Arg(0), pipeline.FormatOBJ, *out, pipeline.FormatOBJ)
	if err != nil {
		done()
		fatalf("Error: %v", err)
	}
	fmt.Printf("%s -> %s (%s normals, %d objects)\n", res.Src, res.Dst, cfg.Conversion.Normals, res.Synthesized)
}

func printResult(res *pipeline.Result) {
	fmt.Printf("%s -> %s: %d objects, %d triangles", res.Src, res.Dst, res.Objects, res.Triangles)
	if res.Synthesized > 0 {
		fmt.Printf(", normals computed for %d", res.Synthesized)
	}
	fmt.Printf(" (%s)\n", res.Elapsed.Round(time.Microsecond))
}

func printSummary(s *pipeline.Summary) {
	fmt.Printf("File:      %s\n", s.Path)
	fmt.Printf("Format:    %s\n", s.Format)
	if s.MaterialLib != "" {
		fmt.Printf("Materials: %s\n", s.MaterialLib)
	}
	fmt.Printf("Objects:   %d\n", len(s.Objects))
	fmt.Printf("Triangles: %d\n", s.Triangles())
	fmt.Println()

	for _, o := range s.Objects {
		name := o.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %s\n", name)
		if o.Material != "" {
			fmt.Printf("    material:  %s\n", o.Material)
		}
		fmt.Printf("    triangles: %d\n", o.Triangles)
		fmt.Printf("    pools:     v=%d vt=%d vn=%d vp=%d\n", o.Positions, o.Texcoords, o.Normals, o.Params)
		if o.HasBounds {
			fmt.Printf("    bounds:    [%s] - [%s]\n", o.Min, o.Max)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
