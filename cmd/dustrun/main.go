package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dustrun/engine/internal/config"
	coresys "github.com/dustrun/engine/internal/core/system"
	"github.com/dustrun/engine/internal/data"
	"github.com/dustrun/engine/internal/enemy"
	"github.com/dustrun/engine/internal/event"
	"github.com/dustrun/engine/internal/scene"
	"github.com/dustrun/engine/internal/scripting"
	"github.com/dustrun/engine/internal/system"
	"github.com/dustrun/engine/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("DUSTRUN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load level tables and the rule script engine
	levels, err := data.LoadLevelTable("data/levels")
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	log.Info("level tables loaded", zap.Int("count", levels.Count()))

	lua, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()

	// 4. Build the session and its collaborators
	root := scene.NewRoot()
	grid := world.NewGrid(cfg.World.SegmentSize)
	enemies := enemy.NewManager(root, grid, log)

	sess, err := world.NewSession(world.Options{
		Config:  cfg,
		Level:   levels.First(),
		Root:    root,
		Index:   grid,
		Enemies: enemies,
		Rules:   lua,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	event.Subscribe(sess.Bus(), func(e world.CoinCollected) {
		log.Debug("pickup",
			zap.String("kind", e.Kind),
			zap.String("segment", e.Segment.String()),
			zap.Int("score", e.Score))
	})
	event.Subscribe(sess.Bus(), func(e world.SegmentLoaded) {
		log.Debug("segment in",
			zap.String("segment", e.Segment.String()),
			zap.Int("placements", e.Placements),
			zap.Int("enemies", e.Enemies))
	})

	// 5. Initial load with progress reporting
	if err := sess.Chunks().LoadInitialChunks(func(loaded, total int) {
		log.Info("loading world", zap.Int("loaded", loaded), zap.Int("total", total))
	}); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	// 6. Create systems and register with runner
	tracker := &system.Tracker{Speed: cfg.Simulation.RunSpeed}
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(sess, tracker))
	runner.Register(system.NewStreamSystem(sess, tracker))
	runner.Register(system.NewSimulateSystem(sess, enemies, tracker))
	runner.Register(system.NewFeedbackSystem(sess))
	runner.Register(system.NewStatsSystem(sess, 300, log))

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	log.Info("dustrun engine ready",
		zap.Duration("tick", cfg.Simulation.TickRate),
		zap.Float64("run_speed", cfg.Simulation.RunSpeed),
		zap.Int("segments", sess.Chunks().Resident()))

	// The magnet powerup re-arms on a fixed cadence so a headless run still
	// exercises attraction and auto-collection.
	magnetCounter := 0
	magnetInterval := int(30 * time.Second / cfg.Simulation.TickRate)
	if magnetInterval < 1 {
		magnetInterval = 1
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
			magnetCounter++
			if magnetCounter >= magnetInterval {
				magnetCounter = 0
				sess.ActivatePowerup(world.PowerupMagnet, 8)
				log.Debug("magnet armed")
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			points, collected := sess.Score()
			log.Info("final score", zap.Int("points", points), zap.Int("collected", collected))
			sess.Reset()
			enemies.RemoveAllEnemies()
			return nil
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
