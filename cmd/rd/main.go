package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/readiness/internal/config"
	"github.com/steveyegge/readiness/internal/debug"
	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/keylock"
	"github.com/steveyegge/readiness/internal/service"
	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/storage/factory"
	"github.com/steveyegge/readiness/internal/telemetry"
	"github.com/steveyegge/readiness/internal/ui"
)

var (
	dbPath      string
	backendFlag string
	actor       string
	jsonOutput  bool
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	settings *config.Settings
	store    storage.Storage
	svc      *service.Service

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// readOnlyCommands open an existing SQLite database read-only.
var readOnlyCommands = map[string]bool{
	"show":    true,
	"score":   true,
	"history": true,
	"export":  true,
	"list":    true,
}

// noDBAnnotation marks commands that run without opening a store.
const noDBAnnotation = "nodb"

func init() {
	// Assigned here rather than in the literal to break the
	// rootCmd -> setup -> needsStore -> rootCmd initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	}

	rootCmd.AddGroup(&cobra.Group{ID: "projects", Title: "Working With Projects:"})
	rootCmd.AddGroup(&cobra.Group{ID: "engine", Title: "Readiness Engine:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .readiness/readiness.db)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: memory, sqlite or mysql (default: config key backend)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor name for the event log (default: $RD_ACTOR, $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:           "rd",
	Short:         "rd - Project readiness scoring, diagnostics and autofix",
	Long:          `Scores how ready a software project is to build, diagnoses what is missing and fixes the most valuable gap first.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "rd version %s (%s)\n", Version, Build)
			return nil
		}
		return cmd.Help()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

// setup resolves settings and, unless the command is marked nodb, opens the
// store and builds the service.
func setup(cmd *cobra.Command) error {
	setupSignalContext(cmd)
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)

	if err := config.Initialize(); err != nil {
		WarnError("failed to initialize config: %v", err)
	}
	applyFlagOverrides(cmd)
	s, err := config.Load()
	if err != nil {
		return err
	}
	settings = s
	jsonOutput = s.JSON
	if s.Actor != "" {
		_ = os.Setenv("RD_ACTOR", s.Actor)
	}

	debug.InitLogger(debug.ParseLevel(s.LogLevel), s.LogFormat, os.Stderr)
	ui.Init()
	if err := telemetry.Init(rootCtx, "rd", Version); err != nil {
		WarnError("telemetry disabled: %v", err)
	}

	if !needsStore(cmd) {
		return nil
	}
	return openStore(cmd)
}

func setupSignalContext(cmd *cobra.Command) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	rootCtx, rootCancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// applyFlagOverrides copies explicitly set persistent flags into viper so
// they win over files and environment.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		config.Set(config.KeyDB, dbPath)
	}
	if flags.Changed("backend") {
		config.Set(config.KeyBackend, backendFlag)
	}
	if flags.Changed("actor") {
		config.Set(config.KeyActor, actor)
	}
	if flags.Changed("json") {
		config.Set(config.KeyJSON, jsonOutput)
	}
}

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[noDBAnnotation] == "true" {
			return false
		}
	}
	return cmd.Name() != "help" && cmd.Name() != "completion" && cmd != rootCmd
}

func openStore(cmd *cobra.Command) error {
	opts := factory.Options{
		Backend:     settings.Backend,
		Path:        settings.DBPath,
		DSN:         settings.MySQLDSN,
		OpenTimeout: settings.OpenTimeout,
	}
	if settings.Backend == storage.BackendSQLite {
		if _, err := os.Stat(settings.DBPath); err == nil {
			opts.ReadOnly = readOnlyCommands[cmd.Name()]
		} else if err := os.MkdirAll(filepath.Dir(settings.DBPath), 0o750); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	debug.Logf("opening %s store (read-only=%v)\n", settings.Backend, opts.ReadOnly)

	s, err := factory.Open(rootCtx, opts)
	if err != nil {
		return err
	}
	store = s

	locker := keylock.New()
	if settings.LockDir != "" {
		locker = keylock.NewWithDir(settings.LockDir)
	}
	svc = service.New(store, service.Options{
		Locker:      locker,
		LockTimeout: settings.LockTimeout,
		IDs:         idsFor(settings),
		Logger:      debug.Logger("service"),
	})
	return nil
}

// idsFor builds the per-operation id generator factory from settings.
func idsFor(s *config.Settings) func(seed string) idgen.Generator {
	return func(seed string) idgen.Generator {
		if s.IDs == "hash" {
			return idgen.NewHash(seed, s.IDLength)
		}
		return idgen.New(s.IDs, seed)
	}
}

func teardown() {
	if store != nil {
		_ = store.Close()
		store = nil
	}
	svc = nil
	if rootCtx != nil {
		telemetry.Shutdown(rootCtx)
	}
	if rootCancel != nil {
		rootCancel()
	}
}

func main() {
	if name := os.Getenv("RD_NAME"); name != "" {
		rootCmd.Use = name
	}
	if err := rootCmd.Execute(); err != nil {
		teardown()
		os.Exit(reportError(os.Stderr, err))
	}
}
