package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/console"
	"github.com/udisondev/rcskills/internal/data"
	"github.com/udisondev/rcskills/internal/db"
	"github.com/udisondev/rcskills/internal/game/action"
	"github.com/udisondev/rcskills/internal/game/leveling"
	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/game/requirement"
)

const ConfigPath = "config/rcskills.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("RCSKILLS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("rcskills server starting", "log_level", cfg.LogLevel, "config", cfgPath)

	// Leveling formula errors are fatal: every exp operation depends on the table.
	levels := leveling.New()
	if err := levels.Load(cfg.Level); err != nil {
		return fmt.Errorf("loading level config: %w", err)
	}
	for level, anomaly := range levels.Anomalies() {
		slog.Warn("level formula anomaly", "level", level, "err", anomaly)
	}
	slog.Info("leveling loaded", "max_level", levels.MaxLevel())

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	pool := database.Pool()
	wallets := db.NewWalletRepository(pool, cfg.Currency)
	templates := db.NewTemplateRepository(pool)
	history := db.NewHistoryRepository(pool)

	registry := requirement.NewRegistry(requirement.Env{Wallet: wallets})
	catalog, err := data.LoadCatalog(cfg.SkillsPath, registry)
	if err != nil {
		return fmt.Errorf("loading skills: %w", err)
	}
	if err := syncTemplates(ctx, templates, catalog); err != nil {
		return err
	}
	slog.Info("skills loaded", "count", catalog.Len(), "path", cfg.SkillsPath)

	hooks := progression.NewHooks()
	engine := progression.New(levels, db.NewPlayerStore(pool, catalog), hooks,
		progression.WithHistory(history))
	progression.NewLevelUpRewards(engine, cfg.LevelUp).Register()

	pricing, err := progression.NewSlotPricing(cfg.Slots)
	if err != nil {
		return fmt.Errorf("loading slot config: %w", err)
	}
	exec := action.NewExecutor(engine, wallets, pricing,
		action.WithAutoActivate(cfg.AutoActivate),
		action.WithBindings(action.LogBindings{Logger: slog.Default()}))

	con := console.New(engine, exec, catalog, templates, wallets, history, os.Stdout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("console ready, type help for commands")
		return con.Run(gctx, os.Stdin)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("rcskills server stopped")
	return nil
}

// syncTemplates stores the configured templates and disables stored ones
// that are gone from the configs. Those stay in the catalog, disabled, so
// player skills referencing them still load.
func syncTemplates(ctx context.Context, repo *db.TemplateRepository, catalog *data.Catalog) error {
	all := catalog.All()
	if err := repo.UpsertAll(ctx, all); err != nil {
		return fmt.Errorf("storing skill templates: %w", err)
	}

	known := make([]uuid.UUID, 0, len(all))
	for _, t := range all {
		known = append(known, t.ID)
	}
	disabled, err := repo.DisableMissing(ctx, known)
	if err != nil {
		return err
	}
	if len(disabled) > 0 {
		slog.Warn("disabled skills missing from configs", "skills", disabled)
	}

	rows, err := repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, ok := catalog.ByID(row.ID); !ok {
			catalog.Add(row.Template())
		}
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
