package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/output"
	"github.com/abdul-hamid-achik/hitchain/packages/scenario"
	"github.com/abdul-hamid-achik/hitchain/packages/snapshot"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run scenario files",
	Long: `Run the API scenarios defined in .chain.yaml or .chain.yml files.

Examples:
  hitchain run login.chain.yaml
  hitchain run ./scenarios/ --base-url http://localhost:8080
  hitchain run ./scenarios/ --env-file .env.staging --bail
  hitchain run smoke.chain.yaml --rate 5 -v
  hitchain run ./scenarios/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	baseURLFlag  string
	configFlag   string
	envFileFlag  string
	verboseFlag  bool
	noColorFlag  bool
	bailFlag     bool
	timeoutFlag  string
	rateFlag     float64
	insecureFlag bool
	watchFlag    bool

	updateSnapshotsFlag bool
)

func init() {
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", getEnvString("HITCHAIN_BASE_URL", ""), "Base URL for every scenario (env: HITCHAIN_BASE_URL)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITCHAIN_CONFIG", ""), "Path to config file (env: HITCHAIN_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HITCHAIN_ENV_FILE", ""), "Path to .env file seeding scenario variables (env: HITCHAIN_ENV_FILE)")

	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print requests, responses and saved values")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITCHAIN_NO_COLOR", false), "Disable colored output (env: HITCHAIN_NO_COLOR)")

	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("HITCHAIN_BAIL", false), "Stop on first failure (env: HITCHAIN_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITCHAIN_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITCHAIN_TIMEOUT)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum steps per second (0 = unlimited)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITCHAIN_INSECURE", false), "Disable SSL certificate validation (env: HITCHAIN_INSECURE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run scenarios")

	runCmd.Flags().BoolVar(&updateSnapshotsFlag, "update-snapshots", false, "Update snapshot files instead of comparing")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return val == "yes"
		}
		return b
	}
	return defaultVal
}

// buildConfig loads the config file and applies the command-line overrides.
func buildConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{
		BaseURL:   baseURLFlag,
		RateLimit: rateFlag,
	}
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		overrides.Timeout = int(timeout.Milliseconds())
	}
	if verboseFlag {
		overrides.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	if bailFlag {
		overrides.Bail = config.BoolPtr(true)
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}

	return fileConfig.Merge(overrides), nil
}

type totals struct {
	passed, failed, skipped int
	broken                  int // files that failed to load
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	var vars map[string]string
	if envFileFlag != "" {
		vars, err = state.LoadDotEnv(envFileFlag)
		if err != nil {
			return withExitCode(ExitConfigError, fmt.Errorf("loading env file: %w", err))
		}
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithErrWriter(cmd.ErrOrStderr()),
		output.WithVerbose(cfg.GetVerbose()),
		output.WithNoColor(cfg.GetNoColor()),
	)

	files, err := scenario.CollectFiles(args)
	if err != nil {
		formatter.FormatError(err)
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		err := errors.New("no .chain.yaml or .chain.yml files found")
		formatter.FormatError(err)
		return withExitCode(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := scenario.NewRunner(cfg,
		scenario.WithPrinter(formatter),
		scenario.WithVars(vars),
		scenario.WithSnapshots(snapshot.NewManager(updateSnapshotsFlag)),
	)

	runAll := func() totals {
		var t totals
		start := time.Now()
		formatter.FormatHeader(version)

		for _, file := range files {
			sc, err := loadScenario(file)
			if err != nil {
				formatter.FormatError(err)
				t.broken++
				if cfg.GetBail() {
					break
				}
				continue
			}

			result := runner.Run(ctx, sc)
			formatter.FormatScenario(result.Name, result.File)
			for _, step := range result.Steps {
				formatter.FormatStep(step.Line())
			}
			t.passed += result.Passed
			t.failed += result.Failed
			t.skipped += result.Skipped

			if cfg.GetBail() && result.Failed > 0 {
				break
			}
		}

		formatter.FormatSummary(t.passed, t.failed, t.skipped, time.Since(start))
		return t
	}

	t := runAll()
	if !watchFlag {
		switch {
		case t.broken > 0:
			return withExitCode(ExitParseError, fmt.Errorf("%d scenario file(s) could not be loaded", t.broken))
		case t.failed > 0:
			return withExitCode(ExitTestFailure, fmt.Errorf("%d step(s) failed", t.failed))
		}
		return nil
	}

	return watch(ctx, cmd, args, files, formatter, func() { runAll() })
}

// watch re-runs the scenarios whenever one of them is written, until ctx is
// cancelled.
func watch(ctx context.Context, cmd *cobra.Command, args, files []string, formatter *output.ConsoleFormatter, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				formatter.FormatError(fmt.Errorf("failed to watch %s: %w", dir, err))
			}
			watchedDirs[dir] = true
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && scenario.IsScenarioFile(event.Name) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				name := event.Name
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running scenarios...\n\n", name)
					rerun()
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
