package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/storage/snapshot"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyLedger(&cfg.Ledger); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if err := verifyGrowth(&cfg.Growth); err != nil {
		return err
	}
	if err := verifyAccess(&cfg.Access); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

// VerifyDataDir checks that the data directory exists or can be created.
func VerifyDataDir(cfg *Config) error {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	return nil
}

func verifyLedger(cfg *LedgerSection) error {
	if err := verifyCapacities("ledger.balances_capacities", cfg.BalancesCapacities); err != nil {
		return err
	}
	if err := verifyCapacities("ledger.allowances_capacities", cfg.AllowancesCapacities); err != nil {
		return err
	}
	if _, err := cfg.minimumBalance(); err != nil {
		return fmt.Errorf("ledger.minimum_balance: %w", err)
	}
	if err := cfg.metadata().Validate(); err != nil {
		return fmt.Errorf("ledger.name/symbol/decimals: %w", err)
	}
	return nil
}

func verifyCapacities(key string, caps []int) error {
	if len(caps) == 0 {
		return fmt.Errorf("%s must name at least one shard", key)
	}
	for i, c := range caps {
		if !shardmap.ValidCapacity(c) {
			return fmt.Errorf("%s[%d]: %w: %d", key, i, shardmap.ErrInvalidCapacity, c)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.CheckpointInterval <= 0 {
		return errors.New("storage.checkpoint_interval must be positive")
	}
	if cfg.SnapshotInterval < 0 {
		return errors.New("storage.snapshot_interval must not be negative")
	}
	if cfg.SnapshotKeep < 1 {
		return errors.New("storage.snapshot_keep must be at least 1")
	}
	if cfg.Badger.GCThreshold < 0 || cfg.Badger.GCThreshold > 1 {
		return errors.New("storage.badger.gc_threshold must be within [0, 1]")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.SnapshotPassphrase != "" && len(cfg.SnapshotPassphrase) < snapshot.MinPassphraseLength {
		return snapshot.ErrPassphraseTooWeak
	}
	switch cfg.SnapshotAlgorithm {
	case "", snapshot.AlgorithmAESGCM, snapshot.AlgorithmChaCha20:
		return nil
	default:
		return fmt.Errorf("security.snapshot_algorithm: unknown algorithm %q", cfg.SnapshotAlgorithm)
	}
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}

func verifyGrowth(cfg *GrowthSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Rate <= 0 {
		return errors.New("growth.rate must be positive")
	}
	if cfg.Burst < 1 {
		return errors.New("growth.burst must be at least 1")
	}
	return nil
}

func verifyAccess(cfg *AccessSection) error {
	for name, accounts := range cfg.Roles {
		if _, err := service.ParseRole(name); err != nil {
			return fmt.Errorf("access.roles: %w", err)
		}
		for _, a := range accounts {
			id, err := domain.ParseAccountID(a)
			if err != nil {
				return fmt.Errorf("access.roles.%s: %w", name, err)
			}
			if id.IsZero() {
				return fmt.Errorf("access.roles.%s: %w", name, domain.ErrZeroAccount)
			}
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Backend {
	case "", logger.BackendSlog, logger.BackendZap:
	default:
		return fmt.Errorf("log.backend: unknown backend %q", cfg.Backend)
	}
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch cfg.Format {
	case "", "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
