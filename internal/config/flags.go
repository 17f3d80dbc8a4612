package config

import "flag"

var (
	flagConfig         = flag.String("config", "", "Path to config file")
	flagDebug          = flag.Bool("debug", false, "Enable debug logging")
	flagBinary         = flag.Bool("binary", false, "Write binary STL")
	flagNormals        = flag.String("normals", "", "Normal synthesis: flat, smooth or none")
	flagRecompute      = flag.Bool("recompute-normals", false, "Recompute normals even when present")
	flagKeepEmpty      = flag.Bool("keep-empty", false, "Keep OBJ objects without faces")
	flagInputEncoding  = flag.String("encoding", "", "Charset of text input")
	flagOutputEncoding = flag.String("output-encoding", "", "Charset of text output")
	flagLogFile        = flag.String("log-file", "", "Write logs to this file")
)

func init() {
	flag.BoolVar(flagBinary, "b", false, "Shorthand for -binary")
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagBinary {
		cfg.Conversion.STLBinary = true
	}
	if *flagNormals != "" {
		cfg.Conversion.Normals = *flagNormals
	}
	if *flagRecompute {
		cfg.Conversion.RecomputeNormals = true
	}
	if *flagKeepEmpty {
		cfg.Conversion.KeepEmptyObjects = true
	}
	if *flagInputEncoding != "" {
		cfg.Conversion.InputEncoding = *flagInputEncoding
	}
	if *flagOutputEncoding != "" {
		cfg.Conversion.OutputEncoding = *flagOutputEncoding
	}
}
