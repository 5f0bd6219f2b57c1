package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/storage/snapshot"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
)

type snapshotRow struct {
	ID          string    `json:"id" yaml:"id" table:"id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" table:"created_at"`
	Holders     int       `json:"holders" yaml:"holders" table:"holders"`
	Allowances  int       `json:"allowances" yaml:"allowances" table:"allowances"`
	TotalSupply string    `json:"total_supply" yaml:"total_supply" table:"total_supply"`
	Sealed      bool      `json:"sealed" yaml:"sealed" table:"sealed"`
	Size        int64     `json:"size" yaml:"size" table:"size,wide"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint" table:"fingerprint,wide"`
}

func snapshotRowOf(info *snapshot.Info) snapshotRow {
	return snapshotRow{
		ID:          info.ID,
		CreatedAt:   time.UnixMilli(info.CreatedAt).UTC(),
		Holders:     info.Meta.Holders,
		Allowances:  info.Meta.Allowances,
		TotalSupply: info.Meta.TotalSupply,
		Sealed:      info.Sealed,
		Size:        info.Size,
		Fingerprint: info.Meta.Fingerprint,
	}
}

// SnapshotCommand manages snapshot files.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Manage ledger snapshot files",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Write the saved ledger to a new snapshot file",
				Action: func(c *cli.Context) error {
					e := getEnv(c)
					ctx := e.commandContext(c, "snapshot_create")
					session, err := e.open(ctx, nil)
					if err != nil {
						return err
					}
					defer session.Close()

					state, err := session.svc.State(ctx)
					if err != nil {
						return err
					}
					info, err := session.engine.Snapshot(ctx, state)
					if err != nil {
						return err
					}
					return e.print(snapshotRowOf(info))
				},
			},
			{
				Name:  "list",
				Usage: "List snapshot files, newest first",
				Action: func(c *cli.Context) error {
					e := getEnv(c)
					engine, err := e.openEngine(nil)
					if err != nil {
						return err
					}
					defer engine.Close()

					infos, err := engine.Snapshots().List()
					if err != nil {
						return err
					}
					rows := make([]snapshotRow, len(infos))
					for i, info := range infos {
						rows[i] = snapshotRowOf(info)
					}
					return e.print(rows)
				},
			},
			{
				Name:      "restore",
				Usage:     "Replace the saved ledger with a snapshot (the newest when ID is omitted)",
				ArgsUsage: "[ID]",
				Action: func(c *cli.Context) error {
					e := getEnv(c)
					ctx := e.commandContext(c, "snapshot_restore")
					engine, err := e.openEngine(nil)
					if err != nil {
						return err
					}
					defer engine.Close()

					// Validate the ledger before it replaces the saved state.
					data, info, err := loadSnapshot(engine.Snapshots(), c.Args().First())
					if err != nil {
						return err
					}
					state, err := storage.DecodeState(data)
					if err != nil {
						return err
					}
					opts, err := e.serviceOptions()
					if err != nil {
						return err
					}
					if _, err := service.FromState(state, opts...); err != nil {
						return fmt.Errorf("snapshot %s: %w", info.ID, err)
					}
					if _, _, err := engine.RestoreSnapshot(ctx, info.ID); err != nil {
						return err
					}
					logger.L(ctx).Info("ledger restored from snapshot", "id", info.ID)
					return e.print(snapshotRowOf(info))
				},
			},
		},
	}
}

func loadSnapshot(m *snapshot.Manager, id string) ([]byte, *snapshot.Info, error) {
	if id == "" {
		return m.Load()
	}
	return m.LoadID(id)
}
