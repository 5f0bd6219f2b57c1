package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/vftledger-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "vftledger",
		Usage:   "sharded fungible-value ledger",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			InitCommand(),
			MintCommand(),
			BurnCommand(),
			BurnAllCommand(),
			BurnUnusedCommand(),
			ApproveFromCommand(),
			TransferCommand(),
			TransferFromCommand(),
			TransferAllCommand(),
			TransferAllFromCommand(),
			ApproveCommand(),
			RemoveExpiredCommand(),
			BalanceCommand(),
			AllowanceCommand(),
			SupplyCommand(),
			MetadataCommand(),
			ListCommand(),
			ShardsCommand(),
			SetExpiryCommand(),
			SetMinimumCommand(),
			PauseCommand(),
			ResumeCommand(),
			SnapshotCommand(),
			AccountCommand(),
			ServeCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"VFTLEDGER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Ledger data directory (overrides storage.data_dir)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (overrides log.level)",
		},
		&cli.StringFlag{
			Name:    "caller",
			Aliases: []string{"as"},
			Usage:   "Calling account: base58, 0x-hex, or @name to derive it from a name",
			EnvVars: []string{"VFTLEDGER_CALLER"},
		},
		&cli.UintFlag{
			Name:    "block",
			Aliases: []string{"b"},
			Usage:   "Current block number",
			EnvVars: []string{"VFTLEDGER_BLOCK"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
