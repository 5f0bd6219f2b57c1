package config

import (
	"time"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/internal/storage/snapshot"
)

// Default configuration values.
const (
	DefaultDataDir            = "/var/lib/vftledger"
	DefaultCheckpointInterval = 30 * time.Second
	DefaultSnapshotInterval   = time.Hour
	DefaultSnapshotKeep       = snapshot.DefaultKeep

	DefaultMinimumBalance = "0"

	DefaultMetricsAddr = "127.0.0.1:9480"

	DefaultGrowthRate  = 0.5
	DefaultGrowthBurst = 1

	DefaultLogBackend = "slog"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Ledger: LedgerSection{
			BalancesCapacities:   ledger.DefaultBalancesCapacities(),
			AllowancesCapacities: ledger.DefaultAllowancesCapacities(),
			MinimumBalance:       DefaultMinimumBalance,
			ExpiryPeriod:         ledger.DefaultExpiryPeriod,
			Name:                 domain.DefaultName,
			Symbol:               domain.DefaultSymbol,
			Decimals:             domain.DefaultDecimals,
		},
		Storage: StorageSection{
			DataDir:            DefaultDataDir,
			CheckpointInterval: DefaultCheckpointInterval,
			SnapshotInterval:   DefaultSnapshotInterval,
			SnapshotKeep:       DefaultSnapshotKeep,
			Badger: BadgerSection{
				GCInterval:  "10m",
				GCThreshold: 0.5,
				CacheSize:   64 << 20,
				SyncWrites:  true,
			},
		},
		Security: SecuritySection{
			SnapshotAlgorithm: snapshot.AlgorithmAESGCM,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
		},
		Growth: GrowthSection{
			Enabled: true,
			Rate:    DefaultGrowthRate,
			Burst:   DefaultGrowthBurst,
		},
		Access: AccessSection{
			Roles: map[string][]string{},
		},
		Log: LogSection{
			Backend: DefaultLogBackend,
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
		},
	}
}
