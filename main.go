// Command gameserver starts the authoritative game server.
//
// The server loads the game description file, optionally restores a
// world snapshot, connects to PostgreSQL for retired-player records and
// serves the REST API, the websocket state stream and the static game
// client. With --tick-period the server drives the simulation itself;
// without it time only advances through the tick endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/lootcity/gameserver/api"
	"github.com/lootcity/gameserver/game/config"
	"github.com/lootcity/gameserver/game/player"
	"github.com/lootcity/gameserver/game/service"
	"github.com/lootcity/gameserver/storage"
	"github.com/lootcity/gameserver/transport/websocket"
)

const (
	// dbURLEnv names the PostgreSQL connection string variable. The
	// server refuses to start without it.
	dbURLEnv = "GAME_DB_URL"

	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load .env if present; a missing file is the normal case outside
	// development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cmd := &cli.Command{
		Name:  "gameserver",
		Usage: "authoritative multiplayer game server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config-file",
				Aliases:  []string{"c"},
				Usage:    "path to the game description file",
				Sources:  cli.EnvVars("CONFIG_FILE"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "www-root",
				Aliases:  []string{"w"},
				Usage:    "directory the game client is served from",
				Sources:  cli.EnvVars("WWW_ROOT"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "address",
				Usage:   "listen address",
				Sources: cli.EnvVars("ADDRESS"),
				Value:   "0.0.0.0:8080",
			},
			&cli.DurationFlag{
				Name:    "tick-period",
				Aliases: []string{"t"},
				Usage:   "simulation step period; when unset, time advances only through the tick endpoint",
				Sources: cli.EnvVars("TICK_PERIOD"),
			},
			&cli.BoolFlag{
				Name:    "randomize-spawn-points",
				Usage:   "spawn dogs at random road points instead of the first road's start",
				Sources: cli.EnvVars("RANDOMIZE_SPAWN_POINTS"),
			},
			&cli.StringFlag{
				Name:    "state-file",
				Usage:   "path of the world snapshot to restore on start and write on shutdown",
				Sources: cli.EnvVars("STATE_FILE"),
			},
			&cli.DurationFlag{
				Name:    "save-state-period",
				Usage:   "how often to snapshot the world; requires --state-file",
				Sources: cli.EnvVars("SAVE_STATE_PERIOD"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, log)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cmd *cli.Command, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbURL := os.Getenv(dbURLEnv)
	if dbURL == "" {
		return fmt.Errorf("%s environment variable is not set", dbURLEnv)
	}

	db, err := storage.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	world, err := config.LoadGame(cmd.String("config-file"))
	if err != nil {
		return fmt.Errorf("failed to load game config: %w", err)
	}

	tickPeriod := cmd.Duration("tick-period")
	savePeriod := cmd.Duration("save-state-period")
	stateFile := cmd.String("state-file")

	world.SetRandomizeSpawn(cmd.Bool("randomize-spawn-points"))
	if tickPeriod > 0 {
		// The server owns the clock; external ticks are rejected.
		world.SetTestMode(false)
	}

	registry := player.NewRegistry()
	svc := service.New(world, registry, db, log)

	if stateFile != "" {
		// Without an internal ticker the save period cannot be honored
		// on wall time; snapshot after every external tick instead.
		saveOnTick := savePeriod > 0 && tickPeriod == 0
		svc.SetSnapshotPath(stateFile, saveOnTick)
		if err := svc.LoadState(); err != nil {
			return err
		}
	}

	hub := websocket.NewHub(log)
	go hub.Run()
	svc.SetPublisher(hub)

	addr := cmd.String("address")
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(svc, hub, cmd.String("www-root"), log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if tickPeriod > 0 {
		go runTicker(ctx, svc, tickPeriod)
	}
	if stateFile != "" && savePeriod > 0 && tickPeriod > 0 {
		go runSnapshotter(ctx, svc, savePeriod, log)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}

	if stateFile != "" {
		if err := svc.SaveState(); err != nil {
			return err
		}
		log.Info("world snapshot written", zap.String("path", stateFile))
	}

	return nil
}

// runTicker drives the simulation on the configured period. The delta
// fed to the world is the measured elapsed time, not the nominal
// period, so a late wakeup does not slow the game down.
func runTicker(ctx context.Context, svc *service.GameService, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			svc.TickInternal(ctx, dt.Milliseconds())
		}
	}
}

// runSnapshotter writes periodic snapshots while the internal ticker
// runs.
func runSnapshotter(ctx context.Context, svc *service.GameService, period time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.SaveState(); err != nil {
				log.Error("periodic snapshot failed", zap.Error(err))
			}
		}
	}
}
