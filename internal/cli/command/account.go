package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/core/domain"
)

type accountRow struct {
	Name    string `json:"name" yaml:"name" table:"name"`
	Account string `json:"account" yaml:"account" table:"account"`
	Hex     string `json:"hex" yaml:"hex" table:"hex,wide"`
}

// AccountCommand groups account helpers.
func AccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Account helpers",
		Subcommands: []*cli.Command{
			{
				Name:      "derive",
				Usage:     "Derive account IDs from names (BLAKE2b-256)",
				ArgsUsage: "NAME...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("derive expects at least one NAME", 2)
					}
					rows := make([]accountRow, 0, c.NArg())
					for _, name := range c.Args().Slice() {
						id := domain.DeriveAccountID(name)
						rows = append(rows, accountRow{Name: name, Account: id.String(), Hex: id.Hex()})
					}
					return getEnv(c).print(rows)
				},
			},
		},
	}
}
