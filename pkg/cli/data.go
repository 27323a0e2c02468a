package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	dataCmd = &cli.Command{
		Name:    "data",
		Aliases: []string{"d"},
		Usage:   "List local data operations",
		Subcommands: []*cli.Command{
			{
				Name:    "state",
				Usage:   "Summarize stored game logs, aggregates and calibrations per season",
				Aliases: []string{"s"},
				Action:  cmdDataState,
			},
		},
	}
)

func cmdDataState(c *cli.Context) error {
	cfg := getConfig(c)

	state, err := cfg.Store.GetDataState(commandContext(c))
	if err != nil {
		return fmt.Errorf("failed to query data state: %w", err)
	}

	if err := encode(state); err != nil {
		return fmt.Errorf("error encoding state: %w", err)
	}

	return nil
}
