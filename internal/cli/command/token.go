package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/core/service"
)

// TransferCommand moves value from the caller.
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Transfer value from the caller to an account (the zero account burns)",
		ArgsUsage: "TO AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "TO", "AMOUNT")
			if err != nil {
				return err
			}
			to, err := parseAccount(values[0])
			if err != nil {
				return fmt.Errorf("TO: %w", err)
			}
			amount, err := parseAmount(values[1])
			if err != nil {
				return err
			}
			return withLedger(c, "transfer", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				moved, err := svc.Transfer(ctx, e.call, to, amount)
				return &opResult{Operation: "transfer", Changed: moved, Amount: amount.Dec()}, err
			})
		},
	}
}

// TransferFromCommand spends the caller's allowance over an owner.
func TransferFromCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer-from",
		Usage:     "Transfer value from an owner on behalf of the caller",
		ArgsUsage: "FROM TO AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "FROM", "TO", "AMOUNT")
			if err != nil {
				return err
			}
			ids, err := parseAccounts(values[:2], "FROM", "TO")
			if err != nil {
				return err
			}
			amount, err := parseAmount(values[2])
			if err != nil {
				return err
			}
			return withLedger(c, "transfer_from", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				moved, err := svc.TransferFrom(ctx, e.call, ids[0], ids[1], amount)
				return &opResult{Operation: "transfer_from", Changed: moved, Amount: amount.Dec()}, err
			})
		},
	}
}

// TransferAllCommand moves the caller's whole balance.
func TransferAllCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer-all",
		Usage:     "Transfer the caller's whole balance",
		ArgsUsage: "TO",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "TO")
			if err != nil {
				return err
			}
			return withLedger(c, "transfer_all", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				moved, err := svc.TransferAll(ctx, e.call, ids[0])
				return &opResult{Operation: "transfer_all", Changed: moved}, err
			})
		},
	}
}

// TransferAllFromCommand moves an owner's whole balance on behalf of the caller.
func TransferAllFromCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer-all-from",
		Usage:     "Transfer an owner's whole balance on behalf of the caller",
		ArgsUsage: "FROM TO",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "FROM", "TO")
			if err != nil {
				return err
			}
			return withLedger(c, "transfer_all_from", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				moved, err := svc.TransferAllFrom(ctx, e.call, ids[0], ids[1])
				return &opResult{Operation: "transfer_all_from", Changed: moved}, err
			})
		},
	}
}

// ApproveCommand sets the caller's allowance for a spender.
func ApproveCommand() *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Set how much a spender may take from the caller (max means infinite)",
		ArgsUsage: "SPENDER AMOUNT",
		Action: func(c *cli.Context) error {
			values, err := args(c, "SPENDER", "AMOUNT")
			if err != nil {
				return err
			}
			spender, err := parseAccount(values[0])
			if err != nil {
				return fmt.Errorf("SPENDER: %w", err)
			}
			amount, err := parseAmount(values[1])
			if err != nil {
				return err
			}
			return withLedger(c, "approve", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				changed, err := svc.Approve(ctx, e.call, spender, amount)
				return &opResult{Operation: "approve", Changed: changed, Amount: amount.Dec()}, err
			})
		},
	}
}

// RemoveExpiredCommand deletes an allowance past its expiry block.
func RemoveExpiredCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove-expired",
		Usage:     "Remove an allowance whose expiry block has passed",
		ArgsUsage: "OWNER SPENDER",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "OWNER", "SPENDER")
			if err != nil {
				return err
			}
			return withLedger(c, "remove_expired", true, func(ctx context.Context, e *env, svc *service.Service) (any, error) {
				removed, err := svc.RemoveExpiredAllowance(ctx, e.call, ids[0], ids[1])
				return &opResult{Operation: "remove_expired", Changed: removed}, err
			})
		},
	}
}
