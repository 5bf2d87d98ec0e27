package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/relbench/internal/artifact"
	"github.com/wesleyorama2/relbench/internal/browser"
	"github.com/wesleyorama2/relbench/internal/browser/chromium"
	"github.com/wesleyorama2/relbench/internal/browser/webdriver"
	"github.com/wesleyorama2/relbench/internal/config"
	"github.com/wesleyorama2/relbench/internal/orchestrator"
	"github.com/wesleyorama2/relbench/internal/report"
	"github.com/wesleyorama2/relbench/internal/results"
	"github.com/wesleyorama2/relbench/internal/timer"
	"github.com/wesleyorama2/relbench/internal/version"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmark the selected releases in every configured browser",
		Long: `Run every benchmark against the selected releases, one browser session
after another, and print a comparison table per benchmark and browser.

Local Chromium:
  relbench run --browsers chrome

Remote WebDriver grid:
  relbench run --server http://localhost:4444/wd/hub --browsers firefox,chrome

Remote capabilities:
  relbench run --server https://hub.example.com/wd/hub \
    --capabilities '[{"browserName":"safari","os":"OS X","os_version":"Sonoma"}]'`,
		Args: cobra.NoArgs,
		RunE: runBenchmarks,
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Configuration file (YAML)")
	flags.StringP("browsers", "b", "", "Comma-separated browser names")
	flags.String("capabilities", "", "JSON array of remote capability descriptors (requires --server)")
	flags.String("server", "", "Remote WebDriver endpoint")
	flags.IntP("iterations", "n", config.DefaultIterations, "Samples per release and benchmark")
	flags.Int("warmup", config.DefaultWarmupCycles, "Unmeasured lifecycle cycles before the warm phase")
	flags.Int("warm-iterations", config.DefaultWarmIterations, "Measured cycles averaged into each warm sample")
	flags.Duration("script-timeout", config.DefaultScriptTimeout, "Timeout for one in-page timing run")
	flags.String("custom", "", "Build location benchmarked as \"custom\"")
	flags.StringP("output", "o", "", "Append a plain text copy of the report to this file")
	flags.String("json", "", "Write all results as JSON to this file")
	flags.String("versions-file", config.DefaultVersionsFile, "JSON array of release versions")
	flags.String("benchmarks-dir", config.DefaultBenchmarksDir, "Directory with one subdirectory per benchmark")
	flags.String("artifacts-dir", config.DefaultArtifactsDir, "Directory of prebuilt component.json files")
	flags.String("build-command", strings.Join(config.DefaultBuildCommand, " "), "Command building the custom location")
	flags.Bool("headless", true, "Run locally launched Chromium headless")
	flags.String("chrome-bin", "", "Chromium binary for local runs (downloaded when empty)")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.Bool("no-color", false, "Disable colored output")

	return cmd
}

func runBenchmarks(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	opts := orchestrator.Options{
		Custom:        cfg.Custom,
		Targets:       targets(cfg),
		Iterations:    cfg.Iterations,
		ScriptTimeout: cfg.ScriptTimeout.Std(),
		Timer: timer.Options{
			WarmupCycles: cfg.WarmupCycles,
			Iterations:   cfg.WarmIterations,
		},
	}

	// Nothing is read from disk when there is nothing to run.
	if cfg.HasTargets() {
		if opts.Versions, err = version.LoadFile(cfg.VersionsFile); err != nil {
			return err
		}
		if opts.Benchmarks, err = artifact.DiscoverBenchmarks(cfg.BenchmarksDir); err != nil {
			return err
		}
	}

	reporter := report.New(report.Options{
		Writer:  cmd.OutOrStdout(),
		File:    cfg.Output,
		NoColor: noColor,
	})

	orch := orchestrator.New(opts,
		artifact.NewStore(cfg.ArtifactsDir),
		artifact.NewCommandBuilder(cfg.BuildCommand, "", logger),
		newLauncher(cfg, logger),
		reporter,
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	store, runErr := orch.Run(ctx)
	if cfg.JSONOutput != "" && len(store.Passes()) > 0 {
		if err := writeJSON(cfg.JSONOutput, store); err != nil {
			logger.Error("failed to export results", slog.String("error", err.Error()))
		} else {
			logger.Info("results exported", slog.String("path", cfg.JSONOutput))
		}
	}
	return runErr
}

// targets lists the plain browsers first, then the capability descriptors.
func targets(cfg *config.Config) []browser.Target {
	out := make([]browser.Target, 0, len(cfg.Browsers)+len(cfg.Capabilities))
	for _, name := range cfg.Browsers {
		out = append(out, browser.BrowserTarget(name))
	}
	for _, caps := range cfg.Capabilities {
		out = append(out, browser.CapabilityTarget(caps))
	}
	return out
}

// newLauncher routes every target to the remote server when one is given,
// otherwise Chromium names go to a locally launched browser.
func newLauncher(cfg *config.Config, logger *slog.Logger) browser.Launcher {
	router := &browser.Router{Local: map[string]browser.Launcher{}}
	if cfg.Server != "" {
		router.Remote = webdriver.NewLauncher(webdriver.NewClient(cfg.Server))
		return router
	}

	local := chromium.NewLauncher(cfg.Headless, cfg.ChromeBin, logger)
	router.Local["chrome"] = local
	router.Local["chromium"] = local
	return router
}

func writeJSON(path string, store *results.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return store.WriteJSON(f)
}
