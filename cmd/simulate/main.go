// Package main runs a headless game: an autopilot plays the human side
// against the AI until the game ends, then the final state is saved.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/board"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/progression"
	"github.com/cory-johannsen/tactics/internal/game/turn"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/scripting"
	"github.com/cory-johannsen/tactics/internal/storage"
	"github.com/cory-johannsen/tactics/internal/storage/file"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and environment")
	envFile := flag.String("env", ".env", "dotenv file loaded before the configuration")
	maxTurns := flag.Int("turns", 1000, "maximum number of player actions")
	native := flag.Bool("native", false, "use the built-in enemy rules instead of the scripted planner")
	resume := flag.Bool("resume", false, "continue the saved game instead of starting a new one")
	flag.Parse()

	ctx := context.Background()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("loading env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source = dice.NewCryptoSource()
	if cfg.Game.Seed != 0 {
		src = dice.NewSeededSource(cfg.Game.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger)
	osFs := afero.NewOsFs()

	table := character.DefaultTable()
	calc := board.NewCalculator(cfg.Game.BoardSize, table)
	prog := progression.New(progression.Config{
		BoardSize:        cfg.Game.BoardSize,
		LevelCap:         cfg.Game.LevelCap,
		InitialSquadSize: cfg.Game.InitialSquadSize,
	}, character.NewGenerator(table, roller), src, logger)

	var planner *ai.Planner
	if !*native {
		domain, err := ai.LoadDomain(osFs, cfg.Game.AIDomain)
		if err != nil {
			logger.Fatal("loading ai domain", zap.Error(err))
		}
		scripts := scripting.NewManager(roller, logger, cfg.Game.InstructionLimit)
		defer scripts.Close()
		if cfg.Game.AIScript == "" {
			err = scripts.LoadSource(ai.DefaultScriptFile, ai.DefaultScript())
		} else {
			err = scripts.LoadFile(osFs, cfg.Game.AIScript)
		}
		if err != nil {
			logger.Fatal("loading ai script", zap.Error(err))
		}
		planner = ai.NewPlanner(domain, scripts, src)
	}

	store, closeStore, err := openStore(ctx, cfg, osFs, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer closeStore()

	ctl := turn.NewController(turn.Deps{
		Calculator:  calc,
		Progression: prog,
		AI:          ai.NewController(calc, planner, src, logger),
		Table:       table,
		Store:       store,
		Logger:      logger,
	})
	ctl.Attach(turn.ListenerFunc(func(e turn.Event) {
		logger.Debug("event",
			zap.Stringer("kind", e.Kind),
			zap.Stringer("side", e.Side),
			zap.Ints("cells", e.Cells),
			zap.Float64("amount", e.Amount),
			zap.Bool("removed", e.Removed),
		)
	}))

	if *resume {
		err = ctl.Load(ctx)
		if errors.Is(err, storage.ErrNoSavedGame) {
			logger.Info("no saved game, starting fresh")
			err = ctl.Start(ctx)
		}
	} else {
		err = ctl.Start(ctx)
	}
	if err != nil {
		logger.Fatal("starting game", zap.Error(err))
	}

	pilot := autopilot{size: cfg.Game.BoardSize}
	actions := 0
	for ; actions < *maxTurns && ctl.State() != turn.StageGameOver; actions++ {
		if err := pilot.step(ctx, ctl); err != nil {
			logger.Warn("autopilot stopped", zap.Error(err), zap.Int("actions", actions))
			break
		}
	}

	if err := ctl.Save(ctx); err != nil {
		logger.Error("saving game", zap.Error(err))
	}
	logger.Info("simulation finished",
		zap.Stringer("stage", ctl.State()),
		zap.Stringer("outcome", ctl.Outcome()),
		zap.Int("level", ctl.Level()),
		zap.Int("actions", actions),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// openStore builds the configured snapshot store and its cleanup func.
func openStore(ctx context.Context, cfg config.Config, fsys afero.Fs, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		return file.NewStore(fsys, cfg.Storage.Path), func() {}, nil
	}
	pool, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return pool.Saves(cfg.Storage.Slot), pool.Close, nil
}
