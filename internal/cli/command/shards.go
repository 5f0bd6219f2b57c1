package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/cli/output"
	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
)

type shardRow struct {
	Ledger    string `json:"ledger" yaml:"ledger" table:"ledger"`
	Index     int    `json:"index" yaml:"index" table:"index"`
	Allocated bool   `json:"allocated" yaml:"allocated" table:"allocated"`
	Capacity  int    `json:"capacity" yaml:"capacity" table:"capacity"`
	Len       int    `json:"len" yaml:"len" table:"len"`
}

func shardRows(stats metric.LedgerStats) []shardRow {
	var rows []shardRow
	add := func(ledger string, shards []metric.ShardStat) {
		for _, s := range shards {
			rows = append(rows, shardRow{Ledger: ledger, Index: s.Index, Allocated: s.Allocated, Capacity: s.Capacity, Len: s.Len})
		}
	}
	add(service.LedgerBalances, stats.BalanceShards)
	add(service.LedgerAllowances, stats.AllowanceShards)
	return rows
}

func pendingShards(shards []metric.ShardStat) int {
	n := 0
	for _, s := range shards {
		if !s.Allocated {
			n++
		}
	}
	return n
}

func ledgerFlag(value string, all bool) *cli.StringFlag {
	usage := "Ledger: balances or allowances"
	if all {
		usage = "Ledger: balances, allowances or all"
	}
	return &cli.StringFlag{Name: "ledger", Aliases: []string{"l"}, Usage: usage, Value: value}
}

// ShardsCommand manages the shard layout.
func ShardsCommand() *cli.Command {
	return &cli.Command{
		Name:  "shards",
		Usage: "Inspect and grow the shard layout",
		Subcommands: []*cli.Command{
			{
				Name:  "grow",
				Usage: "Allocate declared shards now (admin role)",
				Flags: []cli.Flag{
					ledgerFlag("all", true),
					&cli.IntFlag{Name: "count", Usage: "Allocate at most this many shards per ledger (0 means all)"},
				},
				Action: shardsGrow,
			},
			{
				Name:      "append",
				Usage:     "Declare one more unallocated shard (admin role)",
				ArgsUsage: "CAPACITY",
				Flags:     []cli.Flag{ledgerFlag(service.LedgerBalances, false)},
				Action:    shardsAppend,
			},
			{
				Name:  "stats",
				Usage: "Show every shard with its capacity and usage",
				Action: func(c *cli.Context) error {
					return withLedger(c, "shard_stats", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
						stats, err := svc.Stats()
						if err != nil {
							return nil, err
						}
						return shardRows(stats), nil
					})
				},
			},
		},
	}
}

func shardsGrow(c *cli.Context) error {
	var ledgers []string
	switch l := c.String("ledger"); l {
	case "all":
		ledgers = []string{service.LedgerBalances, service.LedgerAllowances}
	case service.LedgerBalances, service.LedgerAllowances:
		ledgers = []string{l}
	default:
		return fmt.Errorf("unknown ledger %q", l)
	}
	limit := c.Int("count")

	return withLedger(c, "shards_grow", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
		stats, err := svc.Stats()
		if err != nil {
			return nil, err
		}
		for _, name := range ledgers {
			alloc := svc.AllocateNextBalancesShard
			pending := pendingShards(stats.BalanceShards)
			if name == service.LedgerAllowances {
				alloc = svc.AllocateNextAllowancesShard
				pending = pendingShards(stats.AllowanceShards)
			}
			if limit > 0 && limit < pending {
				pending = limit
			}
			if pending == 0 {
				continue
			}

			bar := output.NewProgressBar(stderr(c), name, pending)
			for range pending {
				if _, err := alloc(ctx, e.call); err != nil {
					bar.Finish()
					return nil, err
				}
				bar.Step()
			}
			bar.Finish()
		}

		stats, err = svc.Stats()
		if err != nil {
			return nil, err
		}
		return shardRows(stats), nil
	})
}

func shardsAppend(c *cli.Context) error {
	values, err := args(c, "CAPACITY")
	if err != nil {
		return err
	}
	capacity, err := strconv.Atoi(values[0])
	if err != nil {
		return fmt.Errorf("CAPACITY: %w", err)
	}
	ledger := c.String("ledger")

	return withLedger(c, "shards_append", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
		switch ledger {
		case service.LedgerBalances:
			err = svc.AppendBalancesShard(ctx, e.call, capacity)
		case service.LedgerAllowances:
			err = svc.AppendAllowancesShard(ctx, e.call, capacity)
		default:
			err = fmt.Errorf("unknown ledger %q", ledger)
		}
		return &opResult{Operation: "shards_append", Changed: err == nil, Amount: values[0]}, err
	})
}
