package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/core/service"
)

type balanceRow struct {
	Account string `json:"account" yaml:"account" table:"account"`
	Balance string `json:"balance" yaml:"balance" table:"balance"`
	Stored  bool   `json:"stored" yaml:"stored" table:"stored,wide"`
}

type allowanceRow struct {
	Owner   string `json:"owner" yaml:"owner" table:"owner"`
	Spender string `json:"spender" yaml:"spender" table:"spender"`
	Amount  string `json:"amount" yaml:"amount" table:"amount"`
	Expiry  uint32 `json:"expiry" yaml:"expiry" table:"expiry"`
}

type supplyResult struct {
	TotalSupply    string `json:"total_supply" yaml:"total_supply" table:"total_supply"`
	Unused         string `json:"unused" yaml:"unused" table:"unused"`
	MinimumBalance string `json:"minimum_balance" yaml:"minimum_balance" table:"minimum_balance"`
	ExpiryPeriod   uint32 `json:"expiry_period" yaml:"expiry_period" table:"expiry_period"`
	Paused         bool   `json:"paused" yaml:"paused" table:"paused"`
}

func allowanceRowOf(info service.AllowanceInfo) allowanceRow {
	return allowanceRow{
		Owner:   info.Owner.String(),
		Spender: info.Spender.String(),
		Amount:  info.Amount.Dec(),
		Expiry:  info.Expiry,
	}
}

// BalanceCommand prints an account's balance.
func BalanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show an account's balance",
		ArgsUsage: "ACCOUNT",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "ACCOUNT")
			if err != nil {
				return err
			}
			return withLedger(c, "balance", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
				balance, ok, err := svc.LookupBalance(ids[0])
				if err != nil {
					return nil, err
				}
				return balanceRow{Account: ids[0].String(), Balance: balance.Dec(), Stored: ok}, nil
			})
		},
	}
}

// AllowanceCommand prints an allowance and its expiry.
func AllowanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "allowance",
		Usage:     "Show how much a spender may take from an owner",
		ArgsUsage: "OWNER SPENDER",
		Action: func(c *cli.Context) error {
			ids, err := accountArgs(c, "OWNER", "SPENDER")
			if err != nil {
				return err
			}
			return withLedger(c, "allowance", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
				info, _, err := svc.AllowanceOf(ids[0], ids[1])
				if err != nil {
					return nil, err
				}
				return allowanceRowOf(info), nil
			})
		},
	}
}

// SupplyCommand prints the ledger totals.
func SupplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "supply",
		Usage: "Show the total supply, unused value and ledger settings",
		Action: func(c *cli.Context) error {
			return withLedger(c, "supply", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
				total, err := svc.TotalSupply()
				if err != nil {
					return nil, err
				}
				unused, err := svc.Unused()
				if err != nil {
					return nil, err
				}
				minimum, err := svc.MinimumBalance()
				if err != nil {
					return nil, err
				}
				period, err := svc.ExpiryPeriod()
				if err != nil {
					return nil, err
				}
				return supplyResult{
					TotalSupply:    total.Dec(),
					Unused:         unused.Dec(),
					MinimumBalance: minimum.Dec(),
					ExpiryPeriod:   period,
					Paused:         svc.IsPaused(),
				}, nil
			})
		},
	}
}

type metadataResult struct {
	Name     string `json:"name" yaml:"name" table:"name"`
	Symbol   string `json:"symbol" yaml:"symbol" table:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals" table:"decimals"`
}

// MetadataCommand prints the token name, symbol and decimals.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Show the token name, symbol and decimals",
		Action: func(c *cli.Context) error {
			if _, err := args(c); err != nil {
				return err
			}
			return withLedger(c, "metadata", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
				return metadataResult{
					Name:     svc.Name(),
					Symbol:   svc.Symbol(),
					Decimals: svc.Decimals(),
				}, nil
			})
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "cursor",
			Usage: "Number of entries to skip",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of entries",
			Value: 100,
		},
	}
}

// ListCommand enumerates ledger entries in account order.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List ledger entries",
		Subcommands: []*cli.Command{
			{
				Name:  "balances",
				Usage: "List balances",
				Flags: pageFlags(),
				Action: func(c *cli.Context) error {
					return withLedger(c, "list_balances", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
						page, err := svc.Balances(c.Int("cursor"), c.Int("limit"))
						if err != nil {
							return nil, err
						}
						rows := make([]balanceRow, len(page))
						for i, b := range page {
							rows[i] = balanceRow{Account: b.Account.String(), Balance: b.Balance.Dec(), Stored: true}
						}
						return rows, nil
					})
				},
			},
			{
				Name:  "allowances",
				Usage: "List allowances (infinite ones show the largest 256-bit value)",
				Flags: pageFlags(),
				Action: func(c *cli.Context) error {
					return withLedger(c, "list_allowances", false, func(_ context.Context, _ *env, svc *service.Service) (any, error) {
						page, err := svc.Allowances(c.Int("cursor"), c.Int("limit"))
						if err != nil {
							return nil, err
						}
						rows := make([]allowanceRow, len(page))
						for i, a := range page {
							rows[i] = allowanceRowOf(a)
						}
						return rows, nil
					})
				},
			},
		},
	}
}
