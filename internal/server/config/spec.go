package config

import "time"

// Config is the root configuration for vftledger.
type Config struct {
	Ledger   LedgerSection   `koanf:"ledger"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Growth   GrowthSection   `koanf:"growth"`
	Access   AccessSection   `koanf:"access"`
	Log      LogSection      `koanf:"log"`
}

// LedgerSection describes the layout of a fresh ledger. It is only read
// when no state has been persisted yet.
type LedgerSection struct {
	// BalancesCapacities is the per-shard capacity of the balances map.
	// Each entry must be a power of two or (2^k - 1) << m with k >= 3.
	BalancesCapacities []int `koanf:"balances_capacities"`

	// AllowancesCapacities is the per-shard capacity of the allowances map.
	AllowancesCapacities []int `koanf:"allowances_capacities"`

	// MinimumBalance is the decimal minimum balance of an account.
	MinimumBalance string `koanf:"minimum_balance"`

	// ExpiryPeriod is the allowance lifetime in blocks.
	ExpiryPeriod uint32 `koanf:"expiry_period"`

	Name     string `koanf:"name"`
	Symbol   string `koanf:"symbol"`
	Decimals uint8  `koanf:"decimals"`
}

// StorageSection configures persistence.
type StorageSection struct {
	DataDir string `koanf:"data_dir"`

	// InMemory keeps the KV store in RAM. Snapshots are still written
	// under DataDir.
	InMemory bool `koanf:"in_memory"`

	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
	SnapshotInterval   time.Duration `koanf:"snapshot_interval"`
	SnapshotKeep       int           `koanf:"snapshot_keep"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the Badger KV engine.
type BadgerSection struct {
	GCInterval  string  `koanf:"gc_interval"`
	GCThreshold float64 `koanf:"gc_threshold"`
	CacheSize   int64   `koanf:"cache_size"`
	SyncWrites  bool    `koanf:"sync_writes"`
}

// SecuritySection configures snapshot sealing.
type SecuritySection struct {
	// SnapshotPassphrase seals snapshot files when set.
	SnapshotPassphrase string `koanf:"snapshot_passphrase"`

	// SnapshotAlgorithm is aes-gcm or xchacha20-poly1305.
	SnapshotAlgorithm string `koanf:"snapshot_algorithm"`
}

// MetricsSection configures the Prometheus endpoint of serve.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// GrowthSection paces background shard allocation.
type GrowthSection struct {
	Enabled bool    `koanf:"enabled"`
	Rate    float64 `koanf:"rate"`
	Burst   int     `koanf:"burst"`
}

// AccessSection maps roles to accounts. When Enabled is false every
// caller holds every role.
type AccessSection struct {
	Enabled bool `koanf:"enabled"`

	// Roles maps a role name (admin, minter, burner, pauser) to account
	// IDs in base58 or 0x-hex form.
	Roles map[string][]string `koanf:"roles"`
}

// LogSection configures logging.
type LogSection struct {
	Backend string `koanf:"backend"`
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
}
