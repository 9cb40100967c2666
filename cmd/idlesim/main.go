// Command idlesim runs the realm simulation headless, autosaving to SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/config"
	"github.com/talgya/idle-realm/internal/effects"
	"github.com/talgya/idle-realm/internal/engine"
	"github.com/talgya/idle-realm/internal/persistence"
	"github.com/talgya/idle-realm/internal/state"
	"github.com/talgya/idle-realm/internal/weather"
)

// options are the command-line choices that shape startup.
type options struct {
	ImportPath string
	ExportPath string
	Reset      bool

	// TimeSource overrides the wall clock; nil uses real time.
	TimeSource calendar.TimeSource
}

func main() {
	var opts options
	configPath := flag.String("config", "", "tuning YAML file")
	flag.StringVar(&opts.ImportPath, "import", "", "start from a snapshot file instead of the stored save")
	flag.StringVar(&opts.ExportPath, "export", "", "write a snapshot of the final state to this file")
	flag.BoolVar(&opts.Reset, "reset", false, "start a new playthrough, keeping achievements")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, opts); err != nil {
		slog.Error("idlesim failed", "error", err)
		os.Exit(1)
	}
}

// realm is a fully wired simulation ready to run.
type realm struct {
	db    *persistence.DB
	gw    *persistence.Gateway
	clock *calendar.Clock
	sim   *engine.Simulation
	eng   *engine.Engine
}

func (r *realm) Close() error { return r.db.Close() }

// openRealm loads state, builds the simulation and wires the gateway to its
// bus. The load is announced only once the bus has its observers.
func openRealm(ctx context.Context, cfg config.Config, opts options) (*realm, error) {
	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath, "slot", cfg.Slot)

	r := &realm{db: db, gw: persistence.NewGateway(db, cfg.Slot, cfg.KeepSaves)}
	if err := r.wire(ctx, cfg, opts); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *realm) wire(ctx context.Context, cfg config.Config, opts options) error {
	clockOpts := []calendar.Option{calendar.WithDaysPerSecond(cfg.DaysPerSecond)}
	if opts.TimeSource != nil {
		clockOpts = append(clockOpts, calendar.WithTimeSource(opts.TimeSource))
	}
	r.clock = calendar.New(clockOpts...)

	// ── Load ──────────────────────────────────────────────────────────
	var loaded persistence.LoadResult
	var err error
	if opts.ImportPath != "" {
		loaded, err = r.gw.LoadSnapshot(opts.ImportPath)
		if err != nil {
			return fmt.Errorf("import snapshot: %w", err)
		}
	} else {
		loaded, err = r.gw.Load(ctx)
		if err != nil {
			return fmt.Errorf("load save: %w", err)
		}
	}
	st := state.FromBlob(loaded.Blob)

	if err := r.restoreEpoch(ctx, loaded, opts.ImportPath != ""); err != nil {
		return err
	}

	// ── Simulation ────────────────────────────────────────────────────
	table, err := cfg.WeatherEffects()
	if err != nil {
		return err
	}
	pipeline := effects.Default()
	for kind, effs := range table {
		for _, e := range effs {
			if !pipeline.Registered(e.Kind()) {
				slog.Warn("weather effect has no handler and will be skipped",
					"weather", kind, "effect", e.Kind())
			}
		}
	}

	r.sim = engine.NewSimulation(st, r.clock, engine.Options{
		Bus:          bus.New(),
		Effects:      pipeline,
		Weather:      weather.NewGenerator(cfg.WeatherSeed),
		WeatherTable: table,
		DailyYield:   cfg.DailyYield,
		SeasonYield:  cfg.SeasonMultipliers(),
	})
	r.gw.Notify = r.sim.Publish

	bus.On(r.sim.Bus, func(bus.PlaythroughReset) error {
		return r.gw.SaveEpoch(ctx, r.clock.StartTime())
	})

	if err := r.sim.Publish(loaded.Event()); err != nil {
		slog.Warn("load notification failed", "error", err)
	}
	if opts.Reset {
		r.sim.Rebirth()
	}

	r.eng = engine.NewEngine(r.clock)
	r.eng.Interval = cfg.TickInterval
	r.eng.Resume(r.sim.LastProcessedDay())
	r.eng.OnDay = r.sim.TickDay
	r.eng.OnSeason = r.sim.TickSeason
	return nil
}

// restoreEpoch points the clock at the stored playthrough. An imported
// snapshot carries no epoch, so the clock is set to read its last day.
func (r *realm) restoreEpoch(ctx context.Context, loaded persistence.LoadResult, imported bool) error {
	if imported {
		day, _ := state.Number(loaded.Blob["lastProcessedDay"])
		r.clock.ResumeAt(int(day))
		return r.gw.SaveEpoch(ctx, r.clock.StartTime())
	}

	epoch, ok, err := r.gw.LoadEpoch(ctx)
	if err != nil {
		return err
	}
	if ok && !loaded.Fresh {
		r.clock.SetStartTime(epoch)
		return nil
	}
	return r.gw.SaveEpoch(ctx, r.clock.StartTime())
}

func run(cfg config.Config, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := openRealm(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	now := r.clock.CurrentTime()
	slog.Info("realm ready",
		"playthrough_id", r.sim.PlaythroughID(),
		"date", calendar.FormatDate(now.CurrentDate),
		"days_behind", now.TotalDays-r.eng.LastDay(),
	)

	// ── Start ─────────────────────────────────────────────────────────
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.gw.Run(ctx, r.sim, cfg.AutosaveInterval)
	}()

	fmt.Println("Realm is running... (Ctrl+C to stop)")
	r.eng.Run(ctx)
	wg.Wait()

	// Final save on shutdown.
	slog.Info("final save...")
	rec, err := r.gw.Save(context.Background(), r.sim.SaveBlob())
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}

	if opts.ExportPath != "" {
		hdr := persistence.SnapshotHeader{Version: rec.Version, Slot: rec.Slot, SavedAt: rec.SavedAt}
		if err := persistence.WriteSnapshot(opts.ExportPath, hdr, r.sim.SaveBlob()); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		slog.Info("snapshot exported", "path", opts.ExportPath)
	}

	for _, e := range r.sim.RecentEvents(10) {
		slog.Info("recent event", "day", e.Day, "category", e.Category, "description", e.Description)
	}
	fmt.Println("Realm stopped. State saved.")
	return nil
}
