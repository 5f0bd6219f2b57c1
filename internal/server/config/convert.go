package config

import (
	"path/filepath"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
	"github.com/yndnr/vftledger-go/pkg/num"
)

func (l *LedgerSection) minimumBalance() (domain.Balance, error) {
	s := l.MinimumBalance
	if s == "" {
		s = DefaultMinimumBalance
	}
	wide, err := domain.ParseAmount(s)
	if err != nil {
		return domain.Balance{}, err
	}
	return num.FromUint256[domain.BalanceWidth](wide)
}

func (l *LedgerSection) metadata() domain.Metadata {
	return domain.Metadata{Name: l.Name, Symbol: l.Symbol, Decimals: l.Decimals}
}

// Service returns the layout of a fresh ledger.
func (c *Config) Service() (service.Config, error) {
	minimum, err := c.Ledger.minimumBalance()
	if err != nil {
		return service.Config{}, err
	}
	return service.Config{
		BalancesCapacities:   c.Ledger.BalancesCapacities,
		AllowancesCapacities: c.Ledger.AllowancesCapacities,
		MinimumBalance:       minimum,
		ExpiryPeriod:         c.Ledger.ExpiryPeriod,
		Metadata:             c.Ledger.metadata(),
	}, nil
}

// StorageEngine returns the storage engine settings.
func (c *Config) StorageEngine(log logger.Logger, metrics *metric.Registry) storage.Config {
	sc := storage.DefaultConfig(c.Storage.DataDir)
	sc.KV.InMemory = c.Storage.InMemory
	sc.KV.Badger.GCInterval = c.Storage.Badger.GCInterval
	sc.KV.Badger.GCThreshold = c.Storage.Badger.GCThreshold
	sc.KV.Badger.CacheSize = c.Storage.Badger.CacheSize
	sc.KV.Badger.SyncWrites = c.Storage.Badger.SyncWrites
	sc.Snapshot.Dir = filepath.Join(c.Storage.DataDir, storage.DefaultSnapshotDir)
	sc.Snapshot.Keep = c.Storage.SnapshotKeep
	if c.Security.SnapshotPassphrase != "" {
		sc.Snapshot.Passphrase = []byte(c.Security.SnapshotPassphrase)
		sc.Snapshot.Algorithm = c.Security.SnapshotAlgorithm
	}
	sc.CheckpointInterval = c.Storage.CheckpointInterval
	sc.SnapshotInterval = c.Storage.SnapshotInterval
	sc.Logger = log
	sc.Metrics = metrics
	return sc
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	if c.Log.Backend != "" {
		lc.Backend = c.Log.Backend
	}
	lc.Level = c.Log.Level
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}

// Grower returns the shard growth settings.
func (c *Config) Grower() service.GrowerConfig {
	gc := service.DefaultGrowerConfig()
	gc.Rate = c.Growth.Rate
	gc.Burst = c.Growth.Burst
	return gc
}

// Authorizer returns the role gate. It assumes Verify has passed.
func (c *Config) Authorizer() (service.Authorizer, error) {
	if !c.Access.Enabled {
		return service.AllowAll, nil
	}
	table := service.NewRoleTable()
	for name, accounts := range c.Access.Roles {
		role, err := service.ParseRole(name)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			id, err := domain.ParseAccountID(a)
			if err != nil {
				return nil, err
			}
			table.Grant(role, id)
		}
	}
	return table, nil
}
