// solmesh builds a meshlet bundle from a procedural mesh or a glTF scene and
// reports what the GPU upload buffers would contain.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/sol/internal/bundle"
	"github.com/Faultbox/sol/internal/config"
	"github.com/Faultbox/sol/internal/logger"
	"github.com/Faultbox/sol/internal/scene"
	"github.com/Faultbox/sol/pkg/geometry"
	"github.com/Faultbox/sol/pkg/procedural"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	source := config.Source()
	if source == "" {
		printUsage()
		os.Exit(1)
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

	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg, source); err != nil {
		logger.Error("solmesh failed", zap.String("source", source), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(flag.CommandLine.Output(), `solmesh - meshlet bundle builder

Usage:
  solmesh [flags] <cube|sphere|quad|triangle|grid|file.gltf|file.glb>

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprint(flag.CommandLine.Output(), `
Examples:
  solmesh sphere
  solmesh -mode vertex cube
  solmesh -out scene.solb -glb clusters.glb model.glb
`)
}

func run(cfg *config.Config, source string) error {
	opts := cfg.BundleOptions()
	opts.Logger = logger.Named("bundle")
	asm := bundle.NewAssembler(opts)

	start := time.Now()
	var data *bundle.TemporaryData
	if mesh, ok := procedural.ByName(source); ok {
		data = asm.Assemble([]geometry.Mesh{mesh})
	} else {
		if !isGLTF(source) {
			return fmt.Errorf("unknown source %q: not a procedural mesh or glTF file", source)
		}
		imp := cfg.ImportOptions()
		imp.Logger = logger.Named("scene")
		s, err := scene.Load(source, imp)
		if err != nil {
			return err
		}
		data = asm.AssembleScene(s)
	}
	logger.Info("bundle built",
		zap.String("source", source),
		zap.Stringer("mode", asm.Mode()),
		zap.Duration("elapsed", time.Since(start)))

	vl, pl := asm.Limits()
	printStats(source, data, data.Stats(vl, pl))

	if path := cfg.Output.BundlePath; path != "" {
		if err := writeBlob(data, path); err != nil {
			return err
		}
		logger.Info("bundle written", zap.String("path", path), zap.Int("bytes", data.BlobSize()))
	}
	if path := cfg.Output.DebugGLBPath; path != "" {
		if err := data.ExportDebugGLB(path); err != nil {
			return err
		}
		logger.Info("debug glb written", zap.String("path", path))
	}
	return nil
}

func isGLTF(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

func writeBlob(data *bundle.TemporaryData, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := data.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(source string, data *bundle.TemporaryData, st bundle.Stats) {
	fmt.Printf("Source:    %s\n", source)
	fmt.Printf("Mode:      %s\n", data.Mode)
	fmt.Printf("Meshes:    %d\n", st.Meshes)
	fmt.Printf("Vertices:  %d\n", st.Vertices)
	fmt.Printf("Triangles: %d\n", st.Triangles)
	if data.Mode == bundle.MeshShader {
		fmt.Printf("Meshlets:  %d (%d degenerate cones)\n", st.Meshlets, st.DegenerateCones)
		fmt.Printf("Fill:      %.1f%% vertices, %.1f%% primitives\n", st.VertexFill*100, st.PrimitiveFill*100)
	}
	fmt.Printf("Blob:      %.2f KB\n", float64(data.BlobSize())/1024)
}
