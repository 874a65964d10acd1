package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagMode   = flag.String("mode", "", "Pipeline mode: mesh or vertex")
	flagOut    = flag.String("out", "", "Write the bundle blob to this path")
	flagGLB    = flag.String("glb", "", "Write a meshlet-coloured GLB to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Source returns the first positional argument: a procedural mesh name or
// a glTF path.
func Source() string {
	return flag.Arg(0)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMode != "" {
		cfg.Pipeline.Mode = *flagMode
	}
	if *flagOut != "" {
		cfg.Output.BundlePath = *flagOut
	}
	if *flagGLB != "" {
		cfg.Output.DebugGLBPath = *flagGLB
	}
}
