package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/state"
)

// Source supplies the blob to persist. Implementations return a copy that
// the gateway may hold after the call.
type Source interface {
	SaveBlob() state.Blob
}

// Gateway loads and saves one slot. Loading never fails on a bad save: the
// stored bytes go through the schema layer, which defaults what it cannot use.
type Gateway struct {
	DB         *DB
	Slot       string
	Keep       int
	Version    int
	Migrations state.Migrations

	// Notify, when set, receives GameSaved and GameLoaded events.
	Notify func(bus.Event) error

	now func() time.Time
}

// NewGateway creates a gateway for slot using this build's schema version and
// migration chain.
func NewGateway(db *DB, slot string, keep int) *Gateway {
	return &Gateway{
		DB:         db,
		Slot:       slot,
		Keep:       keep,
		Version:    state.CurrentVersion,
		Migrations: state.Upgrades(),
		now:        time.Now,
	}
}

// LoadResult describes what Load found.
type LoadResult struct {
	Blob        state.Blob
	Slot        string
	SaveID      string
	FromVersion int
	Version     int
	Fresh       bool // no save existed
	Corrupt     bool // stored bytes could not be decoded
}

// Event returns the GameLoaded notification for this load, for callers that
// wire their bus after loading.
func (r LoadResult) Event() bus.GameLoaded {
	return bus.GameLoaded{
		Slot:        r.Slot,
		FromVersion: r.FromVersion,
		Version:     r.Version,
		Fresh:       r.Fresh,
	}
}

// Load returns the newest save in the slot, migrated to the current version.
// Only storage errors are returned.
func (g *Gateway) Load(ctx context.Context) (LoadResult, error) {
	rec, ok, err := g.DB.LatestSave(ctx, g.Slot)
	if err != nil {
		return LoadResult{}, err
	}

	res := LoadResult{Slot: g.Slot, Version: g.Version}
	var raw any
	if !ok {
		res.Fresh = true
		res.FromVersion = g.Version
	} else {
		res.SaveID = rec.ID
		raw, err = DecodeBlob(rec.Data)
		if err != nil {
			slog.Warn("save unreadable, starting from defaults",
				"slot", g.Slot, "save_id", rec.ID, "error", err)
			res.Corrupt = true
			raw = nil
		}
		if m, isObj := raw.(map[string]any); isObj {
			res.FromVersion = state.Version(m)
		}
	}

	res.Blob = state.ValidateAndMigrate(raw, g.Version, g.Migrations)
	if err := state.Audit(res.Blob); err != nil {
		slog.Warn("loaded save does not match schema", "slot", g.Slot, "error", err)
	}

	slog.Info("save loaded",
		"slot", g.Slot,
		"save_id", res.SaveID,
		"from_version", res.FromVersion,
		"version", g.Version,
		"fresh", res.Fresh,
	)
	g.notify(res.Event())
	return res, nil
}

// LoadSnapshot reads an exported snapshot file and migrates it like a stored
// save. The result belongs to the gateway's slot.
func (g *Gateway) LoadSnapshot(path string) (LoadResult, error) {
	hdr, raw, err := ReadSnapshot(path)
	if err != nil {
		return LoadResult{}, err
	}
	res := LoadResult{Slot: g.Slot, Version: g.Version, FromVersion: g.Version}
	if m, isObj := raw.(map[string]any); isObj {
		res.FromVersion = state.Version(m)
	}
	res.Blob = state.ValidateAndMigrate(raw, g.Version, g.Migrations)
	if err := state.Audit(res.Blob); err != nil {
		slog.Warn("imported snapshot does not match schema", "path", path, "error", err)
	}

	slog.Info("snapshot imported",
		"path", path,
		"from_slot", hdr.Slot,
		"slot", g.Slot,
		"from_version", res.FromVersion,
		"version", g.Version,
	)
	g.notify(res.Event())
	return res, nil
}

// Save writes b as the newest save in the slot and prunes old ones.
func (g *Gateway) Save(ctx context.Context, b state.Blob) (SaveRecord, error) {
	data, err := EncodeBlob(b)
	if err != nil {
		return SaveRecord{}, err
	}
	rec := SaveRecord{
		ID:      uuid.NewString(),
		Slot:    g.Slot,
		Version: state.Version(b),
		SavedAt: g.timestamp(),
		Data:    data,
	}
	if err := g.DB.PutSave(ctx, rec); err != nil {
		return SaveRecord{}, err
	}
	if g.Keep > 0 {
		if pruned, err := g.DB.PruneSaves(ctx, g.Slot, g.Keep); err != nil {
			slog.Warn("prune saves failed", "slot", g.Slot, "error", err)
		} else if pruned > 0 {
			slog.Debug("old saves pruned", "slot", g.Slot, "count", pruned)
		}
	}

	slog.Debug("game saved", "slot", g.Slot, "save_id", rec.ID, "bytes", len(data))
	g.notify(bus.GameSaved{SaveID: rec.ID, Slot: g.Slot, Version: rec.Version, Bytes: len(data)})
	return rec, nil
}

// Run saves src every interval until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context, src Source, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := g.Save(ctx, src.SaveBlob()); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("autosave failed", "slot", g.Slot, "error", err)
			}
		}
	}
}

func (g *Gateway) timestamp() int64 {
	if g.now == nil {
		return time.Now().UnixMilli()
	}
	return g.now().UnixMilli()
}

func (g *Gateway) epochKey() string { return "start_epoch:" + g.Slot }

// SaveEpoch persists the clock's start epoch for the slot.
func (g *Gateway) SaveEpoch(ctx context.Context, epoch time.Time) error {
	return g.DB.SaveMeta(ctx, g.epochKey(), strconv.FormatInt(epoch.UnixMilli(), 10))
}

// LoadEpoch returns the persisted start epoch. ok is false if none was stored
// or the stored value is unreadable.
func (g *Gateway) LoadEpoch(ctx context.Context) (epoch time.Time, ok bool, err error) {
	v, err := g.DB.GetMeta(ctx, g.epochKey())
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load epoch: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("stored epoch unreadable", "slot", g.Slot, "value", v)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (g *Gateway) notify(e bus.Event) {
	if g.Notify == nil {
		return
	}
	if err := g.Notify(e); err != nil {
		slog.Warn("save notification failed", "event", e.EventType(), "error", err)
	}
}
