package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/core/service"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
)

// InitCommand creates an empty ledger in the data directory.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create an empty ledger from the ledger configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace an existing ledger",
			},
			&cli.BoolFlag{
				Name:  "paused",
				Usage: "Start the ledger paused",
			},
		},
		Action: runInit,
	}
}

type initResult struct {
	DataDir         string `json:"data_dir" yaml:"data_dir" table:"data_dir"`
	BalanceShards   int    `json:"balance_shards" yaml:"balance_shards" table:"balance_shards"`
	AllowanceShards int    `json:"allowance_shards" yaml:"allowance_shards" table:"allowance_shards"`
	MinimumBalance  string `json:"minimum_balance" yaml:"minimum_balance" table:"minimum_balance"`
	ExpiryPeriod    uint32 `json:"expiry_period" yaml:"expiry_period" table:"expiry_period"`
	Paused          bool   `json:"paused" yaml:"paused" table:"paused"`
	Fingerprint     string `json:"fingerprint" yaml:"fingerprint" table:"fingerprint"`
}

func runInit(c *cli.Context) error {
	e := getEnv(c)
	ctx := e.commandContext(c, "init")

	engine, err := e.openEngine(nil)
	if err != nil {
		return err
	}
	defer engine.Close()

	_, err = engine.Recover(ctx)
	switch {
	case err == nil && !c.Bool("force"):
		return errors.New("data directory already holds a ledger (use --force to replace it)")
	case err != nil && !errors.Is(err, storage.ErrNoState):
		return err
	}

	svcCfg, err := e.cfg.Service()
	if err != nil {
		return err
	}
	svcCfg.Paused = c.Bool("paused")
	opts, err := e.serviceOptions()
	if err != nil {
		return err
	}
	svc, err := service.New(svcCfg, opts...)
	if err != nil {
		return err
	}
	state, err := svc.State(ctx)
	if err != nil {
		return err
	}
	info, err := engine.Checkpoint(ctx, state)
	if err != nil {
		return err
	}
	logger.L(ctx).Info("ledger initialized", "data_dir", e.cfg.Storage.DataDir, "fingerprint", info.Fingerprint)

	return e.print(initResult{
		DataDir:         e.cfg.Storage.DataDir,
		BalanceShards:   len(svcCfg.BalancesCapacities),
		AllowanceShards: len(svcCfg.AllowancesCapacities),
		MinimumBalance:  svcCfg.MinimumBalance.Uint256().Dec(),
		ExpiryPeriod:    svcCfg.ExpiryPeriod,
		Paused:          svcCfg.Paused,
		Fingerprint:     info.Fingerprint,
	})
}

// MintCommand creates value.
func MintCommand() *cli.Command {
	return &cli.Command{
		Name:      "mint",
		Usage:     "Create value in an account (minter role)",
		ArgsUsage: "ACCOUNT AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "ACCOUNT", "AMOUNT")
			if err != nil {
				return err
			}
			to, err := parseAccount(values[0])
			if err != nil {
				return fmt.Errorf("ACCOUNT: %w", err)
			}
			amount, err := parseAmount(values[1])
			if err != nil {
				return err
			}
			return withLedger(c, "mint", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				err := svc.Mint(ctx, e.call, to, amount)
				return &opResult{Operation: "mint", Changed: !amount.IsZero(), Amount: amount.Dec()}, err
			})
		},
	}
}

// BurnCommand destroys value.
func BurnCommand() *cli.Command {
	return &cli.Command{
		Name:      "burn",
		Usage:     "Destroy value held by an account (burner role)",
		ArgsUsage: "ACCOUNT AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "ACCOUNT", "AMOUNT")
			if err != nil {
				return err
			}
			from, err := parseAccount(values[0])
			if err != nil {
				return fmt.Errorf("ACCOUNT: %w", err)
			}
			amount, err := parseAmount(values[1])
			if err != nil {
				return err
			}
			return withLedger(c, "burn", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				err := svc.Burn(ctx, e.call, from, amount)
				return &opResult{Operation: "burn", Changed: true, Amount: amount.Dec()}, err
			})
		},
	}
}

// BurnAllCommand destroys an account's whole balance.
func BurnAllCommand() *cli.Command {
	return &cli.Command{
		Name:      "burn-all",
		Usage:     "Destroy an account's whole balance (burner role)",
		ArgsUsage: "ACCOUNT",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "ACCOUNT")
			if err != nil {
				return err
			}
			return withLedger(c, "burn_all", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				burned, err := svc.BurnAll(ctx, e.call, ids[0])
				if err != nil {
					return nil, err
				}
				return &opResult{Operation: "burn_all", Changed: !burned.IsZero(), Amount: burned.Dec()}, nil
			})
		},
	}
}

// BurnUnusedCommand destroys the swept dust.
func BurnUnusedCommand() *cli.Command {
	return &cli.Command{
		Name:  "burn-unused",
		Usage: "Destroy the value swept from balances below the minimum (burner role)",
		Action: func(c *cli.Context) error {
			if _, err := args(c); err != nil {
				return err
			}
			return withLedger(c, "burn_unused", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				burned, err := svc.BurnUnused(ctx, e.call)
				if err != nil {
					return nil, err
				}
				return &opResult{Operation: "burn_unused", Changed: !burned.IsZero(), Amount: burned.Dec()}, nil
			})
		},
	}
}

// ApproveFromCommand sets an allowance on an owner's behalf.
func ApproveFromCommand() *cli.Command {
	return &cli.Command{
		Name:      "approve-from",
		Usage:     "Set an owner's allowance for a spender (admin role)",
		ArgsUsage: "OWNER SPENDER AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "OWNER", "SPENDER", "AMOUNT")
			if err != nil {
				return err
			}
			ids, err := parseAccounts(values[:2], "OWNER", "SPENDER")
			if err != nil {
				return err
			}
			amount, err := parseAmount(values[2])
			if err != nil {
				return err
			}
			return withLedger(c, "approve_from", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				changed, err := svc.ApproveFrom(ctx, e.call, ids[0], ids[1], amount)
				return &opResult{Operation: "approve_from", Changed: changed, Amount: amount.Dec()}, err
			})
		},
	}
}

// SetExpiryCommand changes the allowance lifetime.
func SetExpiryCommand() *cli.Command {
	return &cli.Command{
		Name:      "set-expiry",
		Usage:     "Set the allowance lifetime in blocks (admin role)",
		ArgsUsage: "PERIOD",
		Action: func(c *cli.Context) error {
			values, err := args(c, "PERIOD")
			if err != nil {
				return err
			}
			period, err := strconv.ParseUint(values[0], 10, 32)
			if err != nil {
				return fmt.Errorf("PERIOD: %w", err)
			}
			return withLedger(c, "set_expiry", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				err := svc.SetExpiryPeriod(ctx, e.call, uint32(period))
				return &opResult{Operation: "set_expiry", Changed: true, Amount: values[0]}, err
			})
		},
	}
}

// SetMinimumCommand changes the minimum balance.
func SetMinimumCommand() *cli.Command {
	return &cli.Command{
		Name:      "set-minimum",
		Usage:     "Set the minimum balance of an account (admin role)",
		ArgsUsage: "AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "AMOUNT")
			if err != nil {
				return err
			}
			amount, err := parseAmount(values[0])
			if err != nil {
				return err
			}
			return withLedger(c, "set_minimum", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				err := svc.SetMinimumBalance(ctx, e.call, amount)
				return &opResult{Operation: "set_minimum", Changed: true, Amount: amount.Dec()}, err
			})
		},
	}
}

// PauseCommand stops all mutations.
func PauseCommand() *cli.Command {
	return &cli.Command{
		Name:  "pause",
		Usage: "Reject every mutation until resumed (pauser role)",
		Action: func(c *cli.Context) error {
			return withLedger(c, "pause", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				changed, err := svc.Pause(ctx, e.call)
				return &opResult{Operation: "pause", Changed: changed}, err
			})
		},
	}
}

// ResumeCommand lifts a pause.
func ResumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Accept mutations again (pauser role)",
		Action: func(c *cli.Context) error {
			return withLedger(c, "resume", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				changed, err := svc.Resume(ctx, e.call)
				return &opResult{Operation: "resume", Changed: changed}, err
			})
		},
	}
}
