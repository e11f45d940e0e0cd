package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cogentcore.org/core/math32"
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orbitforge/client/internal/config"
	"github.com/orbitforge/client/internal/data"
	"github.com/orbitforge/client/internal/engine"
	"github.com/orbitforge/client/internal/engine/headless"
	"github.com/orbitforge/client/internal/engine/termview"
	"github.com/orbitforge/client/internal/persist"
	"github.com/orbitforge/client/internal/scripting"
	"github.com/orbitforge/client/internal/system"
	"github.com/orbitforge/client/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if p := startProfile(cfg.Profile.Mode); p != nil {
		defer p.Stop()
	}

	printBanner(cfg.Client.Name)

	// 3. Engines
	printSection("Engines")
	physics := headless.NewPhysics(math32.Vec3(0, -cfg.World.Gravity, 0))
	var (
		graphics engine.Graphics
		view     *termview.View
	)
	switch cfg.Render.Backend {
	case "terminal":
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal init: %w", err)
		}
		defer screen.Fini()
		view, err = termview.New(screen, cfg.Render.CellScale)
		if err != nil {
			return err
		}
		graphics = view
	default:
		graphics = headless.NewGraphics()
	}
	printOK(fmt.Sprintf("graphics: %s", cfg.Render.Backend))

	w := world.New(graphics, physics, cfg.World, log)
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn("world shutdown incomplete", zap.Error(err))
		}
	}()

	// 4. Database (optional)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var layouts *persist.LayoutRepo
	if cfg.Database.Enabled {
		printSection("Database")
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		layouts = persist.NewLayoutRepo(db)
		printOK("PostgreSQL connected, migrations applied")
	}

	// 5. Data
	printSection("Data")
	protos, err := data.LoadPrototypeTable(cfg.Data.Prototypes)
	if err != nil {
		return fmt.Errorf("load prototypes: %w", err)
	}
	w.SetPrototypes(protos)
	printStat("prototypes", protos.Count())

	level, err := loadLevel(ctx, cfg, layouts, log)
	if err != nil {
		return err
	}
	if err := w.LoadLevel(level); err != nil {
		log.Warn("level loaded with errors", zap.Error(err))
	}
	printStat("entities", w.Registry().Len())

	if _, err := w.CreateCamera("main"); err != nil {
		return err
	}
	if _, err := w.CreateLight("sun", engine.Light{Kind: engine.LightDirectional, Color: "white"}); err != nil {
		return err
	}

	sel, err := w.NewSelectionSet(cfg.Selection.Capacity)
	if err != nil {
		return err
	}

	// 6. Scripts
	printSection("Scripts")
	eng, err := scripting.NewEngine(cfg.Scripting.Dir, w, sel, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer eng.Close()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	var reload <-chan struct{}
	if cfg.Scripting.HotReload {
		reload, err = scripting.Watch(loopCtx, cfg.Scripting.Dir, log)
		if err != nil {
			log.Warn("script hot reload disabled", zap.Error(err))
		} else {
			printOK("hot reload on " + cfg.Scripting.Dir)
		}
	}

	// 7. Systems, in the order they run within a phase
	commands := make(chan system.Command, 64)
	w.Register(system.NewInputSystem(w, commands, 32, log))
	w.Register(scripting.NewScriptSystem(eng, w, reload, log))
	w.Register(system.NewPhysicsSystem(w))
	w.Register(system.NewSyncSystem(w))
	if view != nil {
		w.Register(newHUD(w, view, sel))
	}
	w.Register(system.NewRenderSystem(w, log))
	var saver *system.PersistenceSystem
	if layouts != nil {
		saver = system.NewPersistenceSystem(w, layouts, cfg.Database.Level, cfg.Database.AutosaveTicks, log)
		w.Register(saver)
	}
	w.Register(system.NewCleanupSystem(w, log))

	quit := make(chan struct{}, 1)
	redraw := make(chan struct{}, 1)
	if view != nil {
		go pollInput(loopCtx, view.Screen(), commands, quit, redraw, sel)
	}

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.World.TickRate))

	for {
		select {
		case <-ticker.C:
			w.Tick(cfg.World.TickRate)
		case <-redraw:
			w.Redraw()
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(saver, log)
		case <-quit:
			log.Info("quit requested")
			return shutdown(saver, log)
		}
	}
}

// loadLevel prefers the layout stored in the database and falls back to
// the level file.
func loadLevel(ctx context.Context, cfg *config.Config, layouts *persist.LayoutRepo, log *zap.Logger) (*data.SpawnList, error) {
	if layouts != nil {
		l, err := layouts.LoadLayout(ctx, cfg.Database.Level)
		switch {
		case err == nil:
			printOK(fmt.Sprintf("layout %q from database", cfg.Database.Level))
			return l, nil
		case errors.Is(err, persist.ErrLayoutNotFound):
			log.Info("no stored layout, using level file", zap.String("level", cfg.Database.Level))
		default:
			return nil, fmt.Errorf("load layout: %w", err)
		}
	}
	l, err := data.LoadSpawnList(cfg.Data.Level)
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	if layouts != nil {
		// future saves go under the configured name
		l.Level = cfg.Database.Level
	}
	printOK(fmt.Sprintf("level %q from %s", l.Level, cfg.Data.Level))
	return l, nil
}

func shutdown(saver *system.PersistenceSystem, log *zap.Logger) error {
	if saver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := saver.Save(ctx); err != nil {
			log.Error("final layout save failed", zap.Error(err))
		}
	}
	log.Info("client stopped")
	return nil
}

func startProfile(mode string) interface{ Stop() } {
	opts := []func(*profile.Profile){profile.ProfilePath("."), profile.NoShutdownHook}
	switch mode {
	case "cpu":
		return profile.Start(append(opts, profile.CPUProfile)...)
	case "mem":
		return profile.Start(append(opts, profile.MemProfileAllocs)...)
	case "trace":
		return profile.Start(append(opts, profile.TraceProfile)...)
	}
	return nil
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
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.File == "" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// the terminal view owns the screen, so logs go to a file there
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
