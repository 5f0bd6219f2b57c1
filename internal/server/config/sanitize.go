package config

import (
	"maps"
	"slices"

	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Ledger.BalancesCapacities = slices.Clone(cfg.Ledger.BalancesCapacities)
	sanitized.Ledger.AllowancesCapacities = slices.Clone(cfg.Ledger.AllowancesCapacities)
	sanitized.Access.Roles = maps.Clone(cfg.Access.Roles)

	if sanitized.Security.SnapshotPassphrase != "" {
		sanitized.Security.SnapshotPassphrase = logger.RedactString(sanitized.Security.SnapshotPassphrase)
	}

	return &sanitized
}
