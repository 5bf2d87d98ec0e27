package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/relbench/internal/config"
)

// loadConfig builds the run configuration from defaults, the optional
// --config file and every flag the user set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if changed(cmd, "browsers") {
		raw, _ := flags.GetString("browsers")
		cfg.Browsers = config.ParseBrowsers(raw)
	}
	if changed(cmd, "capabilities") {
		raw, _ := flags.GetString("capabilities")
		caps, err := config.ParseCapabilities(raw)
		if err != nil {
			return nil, err
		}
		cfg.Capabilities = caps
	}
	if changed(cmd, "server") {
		cfg.Server, _ = flags.GetString("server")
	}
	if changed(cmd, "iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if changed(cmd, "warmup") {
		cfg.WarmupCycles, _ = flags.GetInt("warmup")
	}
	if changed(cmd, "warm-iterations") {
		cfg.WarmIterations, _ = flags.GetInt("warm-iterations")
	}
	if changed(cmd, "script-timeout") {
		d, _ := flags.GetDuration("script-timeout")
		cfg.ScriptTimeout = config.Duration(d)
	}
	if changed(cmd, "custom") {
		cfg.Custom, _ = flags.GetString("custom")
	}
	if changed(cmd, "output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if changed(cmd, "json") {
		cfg.JSONOutput, _ = flags.GetString("json")
	}
	if changed(cmd, "versions-file") {
		cfg.VersionsFile, _ = flags.GetString("versions-file")
	}
	if changed(cmd, "benchmarks-dir") {
		cfg.BenchmarksDir, _ = flags.GetString("benchmarks-dir")
	}
	if changed(cmd, "artifacts-dir") {
		cfg.ArtifactsDir, _ = flags.GetString("artifacts-dir")
	}
	if changed(cmd, "build-command") {
		raw, _ := flags.GetString("build-command")
		cfg.BuildCommand = strings.Fields(raw)
	}
	if changed(cmd, "headless") {
		cfg.Headless, _ = flags.GetBool("headless")
	}
	if changed(cmd, "chrome-bin") {
		cfg.ChromeBin, _ = flags.GetString("chrome-bin")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
