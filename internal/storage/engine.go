package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/yndnr/vftledger-go/internal/storage/snapshot"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
)

// Default configuration values.
const (
	DefaultCheckpointInterval = 30 * time.Second
	DefaultSnapshotInterval   = time.Hour
	DefaultKVDir              = "kv"
	DefaultSnapshotDir        = "snapshots"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	KV       KVConfig
	Snapshot snapshot.Config

	// CheckpointInterval is the interval between state saves while running.
	CheckpointInterval time.Duration

	// SnapshotInterval is the interval between automatic snapshot files.
	// Zero disables them.
	SnapshotInterval time.Duration

	Logger  logger.Logger
	Metrics *metric.Registry
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:            dataDir,
		KV:                 DefaultKVConfig(filepath.Join(dataDir, DefaultKVDir)),
		Snapshot:           snapshot.DefaultConfig(filepath.Join(dataDir, DefaultSnapshotDir)),
		CheckpointInterval: DefaultCheckpointInterval,
		SnapshotInterval:   DefaultSnapshotInterval,
	}
}

// StateSource captures the live ledger for a checkpoint or snapshot.
type StateSource func() (LedgerState, error)

// Engine couples the KV-backed ledger store with snapshot files.
type Engine struct {
	cfg       Config
	kv        *BadgerEngine
	store     *LedgerStore
	snapshots *snapshot.Manager
	logger    logger.Logger
	metrics   *metric.Registry
}

// New opens the storage engine. It does not load any state; call Recover.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" && !cfg.KV.InMemory {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	log := cfg.Logger.With("component", "storage")

	kv, err := NewBadgerEngine(cfg.KV, log)
	if err != nil {
		return nil, fmt.Errorf("storage: open kv: %w", err)
	}
	if cfg.Metrics != nil {
		kv.RegisterMetrics(cfg.Metrics.Prometheus())
	}

	snaps, err := snapshot.NewManager(cfg.Snapshot)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("storage: open snapshots: %w", err)
	}

	return &Engine{
		cfg:       cfg,
		kv:        kv,
		store:     NewLedgerStore(kv),
		snapshots: snaps,
		logger:    log,
		metrics:   cfg.Metrics,
	}, nil
}

// Recover loads the last saved state, falling back to the newest valid
// snapshot when the KV store is empty. It returns ErrNoState when neither
// holds a ledger.
func (e *Engine) Recover(ctx context.Context) (LedgerState, error) {
	startTime := time.Now()

	state, info, err := e.store.Load(ctx)
	if err == nil {
		e.logger.Info("ledger state loaded",
			"source", "kv",
			"fingerprint", info.Fingerprint,
			"size_bytes", info.Size,
			"elapsed", time.Since(startTime))
		return state, nil
	}
	if !errors.Is(err, ErrNoState) {
		return LedgerState{}, err
	}

	data, snap, err := e.snapshots.Load()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshots) {
			return LedgerState{}, ErrNoState
		}
		return LedgerState{}, fmt.Errorf("storage: load snapshot: %w", err)
	}
	state, err = DecodeState(data)
	if err != nil {
		return LedgerState{}, err
	}

	e.logger.Info("ledger state loaded",
		"source", "snapshot",
		"snapshot_id", snap.ID,
		"fingerprint", snap.Meta.Fingerprint,
		"elapsed", time.Since(startTime))
	return state, nil
}

// Checkpoint saves state to the KV store.
func (e *Engine) Checkpoint(ctx context.Context, state LedgerState) (SaveInfo, error) {
	info, err := e.store.Save(ctx, state)
	if e.metrics != nil {
		e.metrics.RecordSave(err)
	}
	if err != nil {
		return SaveInfo{}, err
	}
	e.logger.Debug("ledger checkpoint saved", "fingerprint", info.Fingerprint, "size_bytes", info.Size)
	return info, nil
}

// Snapshot writes state to a new snapshot file and applies retention.
func (e *Engine) Snapshot(ctx context.Context, state LedgerState) (*snapshot.Info, error) {
	start := time.Now()

	data, err := EncodeState(state)
	if err != nil {
		return nil, err
	}
	info, err := e.snapshots.Create(data, SummarizeState(state, data))
	if err != nil {
		return nil, fmt.Errorf("storage: create snapshot: %w", err)
	}
	if e.metrics != nil {
		e.metrics.ObserveSnapshot(time.Since(start))
	}

	e.logger.Info("snapshot created",
		"id", info.ID,
		"holders", info.Meta.Holders,
		"allowances", info.Meta.Allowances,
		"size_bytes", info.Size)

	if removed, err := e.snapshots.Prune(); err != nil {
		e.logger.Warn("snapshot cleanup failed", "error", err)
	} else if removed > 0 {
		e.logger.Debug("old snapshots removed", "count", removed)
	}
	return info, nil
}

// RestoreSnapshot loads the snapshot id (the newest when id is empty) and
// makes it the saved state. The returned state should replace the live
// ledger.
func (e *Engine) RestoreSnapshot(ctx context.Context, id string) (LedgerState, *snapshot.Info, error) {
	var (
		data []byte
		info *snapshot.Info
		err  error
	)
	if id == "" {
		data, info, err = e.snapshots.Load()
	} else {
		data, info, err = e.snapshots.LoadID(id)
	}
	if err != nil {
		return LedgerState{}, nil, err
	}

	state, err := DecodeState(data)
	if err != nil {
		return LedgerState{}, nil, err
	}
	if _, err := e.Checkpoint(ctx, state); err != nil {
		return LedgerState{}, nil, err
	}
	e.logger.Info("snapshot restored", "id", info.ID)
	return state, info, nil
}

// Snapshots exposes the snapshot manager for listing.
func (e *Engine) Snapshots() *snapshot.Manager {
	return e.snapshots
}

// KV returns the underlying KV engine.
func (e *Engine) KV() KVEngine {
	return e.kv
}

// Run checkpoints and snapshots the ledger until ctx ends, then writes a
// final checkpoint. It returns the final checkpoint error, if any.
func (e *Engine) Run(ctx context.Context, source StateSource) error {
	checkpointInterval := e.cfg.CheckpointInterval
	if checkpointInterval <= 0 {
		checkpointInterval = DefaultCheckpointInterval
	}
	checkpoints := time.NewTicker(checkpointInterval)
	defer checkpoints.Stop()

	var snapshotC <-chan time.Time
	if e.cfg.SnapshotInterval > 0 {
		t := time.NewTicker(e.cfg.SnapshotInterval)
		defer t.Stop()
		snapshotC = t.C
	}

	for {
		select {
		case <-checkpoints.C:
			if err := e.checkpointFrom(ctx, source); err != nil {
				e.logger.Error("checkpoint failed", "error", err)
			}

		case <-snapshotC:
			state, err := source()
			if err == nil {
				_, err = e.Snapshot(ctx, state)
			}
			if err != nil {
				e.logger.Error("auto snapshot failed", "error", err)
			}

		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			return e.checkpointFrom(final, source)
		}
	}
}

func (e *Engine) checkpointFrom(ctx context.Context, source StateSource) error {
	state, err := source()
	if err != nil {
		return err
	}
	_, err = e.Checkpoint(ctx, state)
	return err
}

// Close shuts down the KV engine.
func (e *Engine) Close() error {
	return e.kv.Close()
}

// SummarizeState builds snapshot metadata for an encoded state.
func SummarizeState(s LedgerState, encoded []byte) snapshot.Meta {
	meta := snapshot.Meta{
		Fingerprint: Fingerprint(encoded),
		TotalSupply: s.Balances.Total.Dec(),
	}
	for _, sh := range s.Balances.Shards {
		meta.Holders += len(sh.Entries)
	}
	for _, sh := range s.Allowances.Shards {
		meta.Allowances += len(sh.Entries)
	}
	return meta
}
