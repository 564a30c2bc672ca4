package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/ltrc/internal/adapters/workbook"
)

func newWorkbookCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "create an empty workbook carrying the configured rating tables",
		ArgsUsage: "<workbook.xlsx>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("%w: workbook path", errMissingArg)
			}
			cfg, _, err := setup(c)
			if err != nil {
				return err
			}
			wb, err := workbook.Create(path, workbook.SettingsFrom(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "created %s\n", wb.Path())
			return wb.Close()
		},
	}
}
