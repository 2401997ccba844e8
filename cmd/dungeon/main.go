package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/escaperoom/dungeon/internal/config"
	"github.com/escaperoom/dungeon/internal/data"
	"github.com/escaperoom/dungeon/internal/game"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string // --config, falls back to $DUNGEON_CONFIG
	maxFrames  int    // 0 = until quit or signal
	player     int    // overrides game.player_number when > 0
)

var rootCmd = &cobra.Command{
	Use:           "dungeon",
	Short:         "Headless escape-room dungeon simulation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	runCmd.Flags().IntVar(&maxFrames, "frames", 0, "stop after N frames (0 = run until quit)")
	runCmd.Flags().IntVar(&player, "player", 0, "player number (1 or 2)")
	rootCmd.AddCommand(runCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(title string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m %-41s \033[36;1m│\033[0m\n", title)
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Commands ───────────────────────────────────────────────────────

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func migrate() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	n, _ := persist.MigrationCount()
	log.Info("migrations applied", zap.Int("files", n))
	return nil
}

func run() error {
	// 1. Config and logger
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if player > 0 {
		cfg.Game.PlayerNumber = player
	}

	printBanner(cfg.Game.Title)

	// 2. Game state backend
	printSection("Game state")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var backend persist.Backend
	switch cfg.State.Backend {
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		backend = persist.NewPostgresBackend(db, cfg.State.Slot)
	default:
		fb := persist.NewFileBackend(cfg.State.Path)
		printOK("save file " + fb.Path())
		backend = fb
	}
	store := persist.NewStore(backend, log)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load game state: %w", err)
	}
	printStat("saved resources", len(store.Keys()))
	fmt.Println()

	// 3. Data tables and scripts
	printSection("Data")
	levels, err := data.LoadLevelTable(cfg.Data.LevelsFile)
	if err != nil {
		return fmt.Errorf("load level table: %w", err)
	}
	printStat("levels", levels.Count())

	g, err := game.New(game.Options{Config: cfg, Levels: levels, Store: store, Log: log})
	if err != nil {
		return err
	}
	printOK("Lua scripts loaded")
	if err := g.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	printOK("start level " + g.Loader.Label())
	fmt.Println()

	// 4. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	frame := cfg.Game.FrameDuration()
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	shutdown := func(reason string) error {
		log.Info("shutting down", zap.String("reason", reason), zap.Int("frames", g.Frames()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := g.Shutdown(ctx); err != nil {
			return fmt.Errorf("save game state: %w", err)
		}
		return nil
	}

	for {
		select {
		case <-ticker.C:
			g.Frame(frame)
			if g.Quitting() {
				return shutdown("quit")
			}
			if maxFrames > 0 && g.Frames() >= maxFrames {
				return shutdown("frame limit")
			}
		case sig := <-shutdownCh:
			return shutdown(sig.String())
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
