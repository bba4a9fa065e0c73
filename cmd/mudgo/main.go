package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mudgo/server/internal/admin"
	"github.com/mudgo/server/internal/config"
	"github.com/mudgo/server/internal/core/event"
	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/data"
	"github.com/mudgo/server/internal/handler"
	gonet "github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/persist"
	"github.com/mudgo/server/internal/scripting"
	"github.com/mudgo/server/internal/system"
	"github.com/mudgo/server/internal/world"
)

// Exit codes: 0 normal, 1 fatal config/startup error, 2 persistence
// failure on final save, 130 interrupted.
func main() {
	var code int
	root := newRootCmd(&code)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

type flags struct {
	configPath string
	telnetAddr string
	wsAddr     string
	adminAddr  string
	backend    string
	dataDir    string
	debug      bool
	testMode   bool
	noColor    bool
}

func newRootCmd(exitCode *int) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "mudgo",
		Short:         "Multi-user dungeon server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := run(cmd, &f)
			*exitCode = code
			return err
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "config/server.toml", "path to the TOML config file")
	cmd.Flags().StringVar(&f.telnetAddr, "telnet-addr", "", "override telnet listen address")
	cmd.Flags().StringVar(&f.wsAddr, "ws-addr", "", "override websocket listen address")
	cmd.Flags().StringVar(&f.adminAddr, "admin-addr", "", "override admin API listen address")
	cmd.Flags().StringVar(&f.backend, "backend", "", "override store backend (file, sqlite, postgres)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "override save data directory")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "force debug log level")
	cmd.Flags().BoolVar(&f.testMode, "test-mode", false, "start with the game tick paused")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored console logging")
	return cmd
}

func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		// A missing file at the default path just means defaults; an
		// explicitly named config must exist.
		if os.IsNotExist(errors.Unwrap(err)) && !cmd.Flags().Changed("config") {
			cfg = config.Defaults()
			cfg.Server.StartTime = time.Now().Unix()
		} else {
			return nil, err
		}
	}
	if f.telnetAddr != "" {
		cfg.Network.TelnetAddress = f.telnetAddr
	}
	if f.wsAddr != "" {
		cfg.Network.WebSocketAddress = f.wsAddr
	}
	if f.adminAddr != "" {
		cfg.Admin.HTTPAddress = f.adminAddr
	}
	if f.backend != "" {
		cfg.Store.Backend = f.backend
	}
	if f.dataDir != "" {
		cfg.Store.DataDir = f.dataDir
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	cfg.Game.TestMode = f.testMode
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags) (int, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return 1, err
	}

	log, err := newLogger(cfg.Logging, f.noColor)
	if err != nil {
		return 1, fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	fmt.Printf("\n  mudgo — %s\n\n", cfg.Server.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Persistence backend.
	store, err := persist.Open(ctx, cfg.Store, log)
	if err != nil {
		return 1, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err == nil {
		if err := persist.WriteSentinel(cfg.Store.DataDir, cfg.Store.Backend); err != nil {
			log.Warn("write backend sentinel failed", zap.Error(err))
		}
	}

	// Static world content.
	tables, err := data.LoadTables(cfg.Game.DataDir, log)
	if err != nil {
		return 1, fmt.Errorf("load world content: %w", err)
	}

	st := world.NewState()
	if err := installStatic(st, tables); err != nil {
		return 1, fmt.Errorf("install world content: %w", err)
	}

	// Saved world state on top of the static content.
	repo := persist.NewWorldRepo(store, log)
	if err := repo.LoadWorld(ctx, st); err != nil {
		return 1, fmt.Errorf("load saved world: %w", err)
	}

	mud := config.DefaultMudConfig(cfg)
	if err := repo.LoadMudConfig(ctx, &mud); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return 1, fmt.Errorf("load mud config: %w", err)
	}
	if cfg.Game.TestMode {
		mud.TickPaused = true
		log.Warn("test mode: game tick paused")
	}

	// A fresh world gets its boot NPC population; a restored one keeps
	// whatever the last save left standing.
	live := 0
	st.AllNpcs(func(*world.NpcInstance) { live++ })
	if live == 0 && st.PendingRespawns() == 0 {
		spawned := bootSpawns(st, tables, log)
		log.Info("boot spawns placed", zap.Int("npcs", spawned))
	}

	engine, err := scripting.NewEngine(cfg.Game.ScriptsDir, log)
	if err != nil {
		return 1, fmt.Errorf("scripting engine: %w", err)
	}
	defer engine.Close()

	// Network listeners.
	netServer, err := gonet.NewServer(cfg.Network, cfg.RateLimit, log)
	if err != nil {
		return 1, err
	}
	go netServer.AcceptLoop()

	wsSrv := &http.Server{
		Addr:    cfg.Network.WebSocketAddress,
		Handler: netServer.WebSocketHandler(),
	}
	go func() {
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("websocket listener failed", zap.Error(err))
		}
	}()

	// Command registry and shared handler dependencies.
	registry := handler.NewRegistry()
	handler.RegisterAll(registry)

	var tickNum int64
	shutdownCh := make(chan string, 1)

	deps := &handler.Deps{
		Config:    cfg,
		Mud:       &mud,
		Log:       log,
		World:     st,
		Repo:      repo,
		Tables:    tables,
		Scripting: engine,
		Sessions:  gonet.NewSessionStore(),
		Bus:       event.NewBus(),
		Registry:  registry,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Editors:   make(map[uint64]*handler.EditorSession),
		Snakes:    make(map[uint64]*handler.SnakeGame),
		Tick:      func() int64 { return tickNum },
		RequestShutdown: func(reason string) {
			select {
			case shutdownCh <- reason:
			default:
			}
		},
	}

	// Game systems in phase order.
	runner := coresys.NewRunner(log)
	runner.Register(system.NewInputSystem(netServer, deps))
	runner.Register(system.NewEventDispatchSystem(deps.Bus))
	runner.Register(system.NewEffectTickSystem(deps))
	runner.Register(system.NewCombatSystem(deps))
	runner.Register(system.NewRegenSystem(deps))
	runner.Register(system.NewCooldownSystem(deps))
	runner.Register(system.NewRespawnSystem(deps))
	runner.Register(system.NewIdleSystem(deps))
	runner.Register(system.NewOutputSystem(deps))
	persistSys := system.NewPersistenceSystem(deps)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(deps))

	adminSrv := admin.NewServer(cfg, deps, runner, log)
	if err := adminSrv.Start(); err != nil {
		return 1, err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("server ready",
		zap.String("telnet", cfg.Network.TelnetAddress),
		zap.String("websocket", cfg.Network.WebSocketAddress),
		zap.Int("tick_ms", mud.TickIntervalMS),
	)

	interval := func() time.Duration {
		ms := mud.TickIntervalMS
		if ms < 100 {
			ms = int(cfg.Game.TickInterval.Milliseconds())
		}
		return time.Duration(ms) * time.Millisecond
	}

	// The game loop. Full ticks advance game logic on the configured
	// interval; between them input, output, and session reaping run at
	// poll frequency so logins stay responsive.
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()
	nextTick := time.Now().Add(interval())

	interrupted := false
loop:
	for {
		select {
		case <-poll.C:
			adminSrv.Drain()
			if !mud.TickPaused && !time.Now().Before(nextTick) {
				tickNum++
				runner.Tick(interval())
				nextTick = time.Now().Add(interval())
				continue
			}
			if mud.TickPaused {
				nextTick = time.Now().Add(interval())
			}
			runner.TickPhase(coresys.PhaseInput, 0)
			runner.TickPhase(coresys.PhaseOutput, 0)
			runner.TickPhase(coresys.PhaseCleanup, 0)
		case reason := <-shutdownCh:
			log.Warn("shutdown requested", zap.String("reason", reason))
			break loop
		case sig := <-sigCh:
			log.Warn("signal received", zap.String("signal", sig.String()))
			interrupted = true
			break loop
		}
	}

	// Graceful shutdown: say goodbye, sever everyone (which saves each
	// character through the normal logout path), then snapshot the world.
	deps.BroadcastAll("The world is closing. Your character has been saved. Goodbye.")
	runner.TickPhase(coresys.PhaseOutput, 0)
	deps.Sessions.ForEach(func(s *gonet.Session) { s.Close() })
	time.Sleep(100 * time.Millisecond) // let writers drain the farewell
	runner.TickPhase(coresys.PhaseCleanup, 0)

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer saveCancel()
	var saveErr error
	if _, err := repo.SaveDirtyUsers(saveCtx, st); err != nil {
		saveErr = err
	}
	if err := repo.SaveWorldState(saveCtx, st); err != nil && saveErr == nil {
		saveErr = err
	}
	if err := repo.SaveMudConfig(saveCtx, mud); err != nil && saveErr == nil {
		saveErr = err
	}

	netServer.Shutdown()
	wsSrv.Shutdown(context.Background())
	adminSrv.Shutdown(context.Background())

	if saveErr != nil {
		log.Error("final save failed", zap.Error(saveErr))
		return 2, nil
	}
	log.Info("server stopped")
	if interrupted {
		return 130, nil
	}
	return 0, nil
}

// installStatic copies the YAML tables into the world registry. Rooms,
// areas, and templates are static; instances come from the save.
func installStatic(st *world.State, tables *data.Tables) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	tables.Rooms.ForEach(func(r *world.Room) { keep(st.AddRoom(r)) })
	tables.Rooms.Areas(func(a *world.Area) { keep(st.AddArea(a)) })
	tables.Items.ForEach(func(t *world.ItemTemplate) { keep(st.AddItemTemplate(t)) })
	tables.Npcs.ForEach(func(t *world.NpcTemplate) { keep(st.AddNpcTemplate(t)) })
	return firstErr
}

// bootSpawns populates an empty world from the spawn list.
func bootSpawns(st *world.State, tables *data.Tables, log *zap.Logger) int {
	total := 0
	for _, entry := range tables.Npcs.Spawns() {
		count := entry.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if _, err := st.SpawnNpc(entry.TemplateID, entry.RoomID); err != nil {
				log.Warn("boot spawn failed",
					zap.String("npc", entry.TemplateID),
					zap.String("room", entry.RoomID),
					zap.Error(err),
				)
				break
			}
			total++
		}
	}
	return total
}

func newLogger(cfg config.LoggingConfig, noColor bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		if noColor {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		} else {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
