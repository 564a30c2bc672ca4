package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/adapters/workbook"
	"github.com/okian/ltrc/internal/config"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/pkg/logger"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "copy the Players sheet of a workbook into the configured store",
		ArgsUsage: "<source.xlsx>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "new-season",
				Usage: "carry ratings over as previous-season MMR, unrate everyone and clear placements",
			},
		},
		Action: importPlayers,
	}
}

func importPlayers(c *cli.Context) error {
	ctx := c.Context
	src := c.Args().First()
	if src == "" {
		return fmt.Errorf("%w: source workbook", errMissingArg)
	}
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory || cfg.Store.Driver == "" {
		return fmt.Errorf("%w: import needs a persistent store driver", config.ErrInvalidConfig)
	}

	source, err := workbook.Open(src)
	if err != nil {
		return err
	}
	roster := source.Snapshot()
	_ = source.Close()

	if c.Bool("new-season") {
		roster = newSeason(roster)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	importer, ok := store.(repository.Importer)
	if !ok {
		return fmt.Errorf("%w: store %q cannot import", config.ErrInvalidConfig, cfg.Store.Driver)
	}
	load := importer.Import
	if c.Bool("new-season") {
		load = importer.StartSeason
	}
	if err := load(ctx, roster); err != nil {
		return err
	}
	log.Info(ctx, "players imported",
		logger.String("source", src),
		logger.Int("count", len(roster)),
		logger.Bool("new_season", c.Bool("new-season")))
	fmt.Fprintf(c.App.Writer, "imported %d players\n", len(roster))
	return nil
}

// newSeason moves each current rating into PreviousSeason. Competitors that
// never placed keep whatever previous-season rating they had.
func newSeason(roster []model.Competitor) []model.Competitor {
	out := make([]model.Competitor, len(roster))
	for i, c := range roster {
		prev := c.PreviousSeason
		if !c.Current.IsUnrated() {
			prev = c.Current
		}
		out[i] = model.Competitor{Name: c.Name, Current: model.Unrated, PreviousSeason: prev}
	}
	return out
}
