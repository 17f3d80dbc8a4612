// stl2obj converts an ASCII or binary STL file to Wavefront OBJ.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshconv/internal/config"
	"github.com/Faultbox/meshconv/internal/logger"
	"github.com/Faultbox/meshconv/internal/pipeline"
)

var (
	flagFrom = flag.String("from", "", "Source STL file")
	flagTo   = flag.String("to", "", "Destination OBJ file")
)

func init() {
	flag.StringVar(flagFrom, "f", "", "Shorthand for -from")
	flag.StringVar(flagTo, "t", "", "Shorthand for -to")
}

func main() {
	config.ParseFlags()

	if *flagFrom == "" || *flagTo == "" {
		fmt.Fprintln(os.Stderr, "Usage: stl2obj -from <file.stl> -to <file.obj>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	conv, err := pipeline.New(cfg)
	if err != nil {
		logger.Error("failed to create converter", zap.Error(err))
		os.Exit(1)
	}

	res, err := conv.Convert(*flagFrom, pipeline.FormatSTL, *flagTo, pipeline.FormatOBJ)
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("converted",
		zap.String("from", res.Src),
		zap.String("to", res.Dst),
		zap.Int("objects", res.Objects),
		zap.Int("faces", res.Triangles),
	)
}
