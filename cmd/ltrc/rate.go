package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/okian/ltrc/internal/adapters/workbook"
	service "github.com/okian/ltrc/internal/app"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/pkg/logger"
)

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:      "rate",
		Usage:     "rate the room entered on a workbook's mode sheet",
		ArgsUsage: "<workbook.xlsx>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: model.FFA.Name, Usage: "team mode sheet to read"},
			&cli.BoolFlag{Name: "commit", Usage: "persist new ratings and clear the scores"},
			&cli.BoolFlag{Name: "reduced-track", Usage: "room ran a reduced track count"},
			&cli.BoolFlag{Name: "reduced-loss", Usage: "halve losses (200cc)"},
		},
		Action: rate,
	}
}

func rate(c *cli.Context) error {
	ctx := c.Context
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("%w: workbook path", errMissingArg)
	}
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	mode, err := model.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	wb, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()
	if err := wb.ApplySettings(cfg); err != nil {
		return err
	}

	ev, err := wb.ReadEvent(uuid.NewString(), mode)
	if err != nil {
		return err
	}
	ev.Modifiers = model.Modifiers{
		ReducedTrackCount: c.Bool("reduced-track"),
		ReducedLoss:       c.Bool("reduced-loss"),
	}

	svc := service.New(service.WithConfig(cfg), service.WithStore(wb), service.WithLogger(log))
	var report model.Report
	if c.Bool("commit") {
		report, err = svc.Rate(ctx, ev)
	} else {
		report, err = svc.Preview(ctx, ev)
	}
	if err != nil {
		return err
	}

	if err := wb.WriteReport(mode, report); err != nil {
		return err
	}
	if c.Bool("commit") {
		if err := wb.ClearScores(mode); err != nil {
			return err
		}
	}
	log.Info(ctx, "room rated",
		logger.String("event_id", report.EventID),
		logger.String("mode", report.Mode),
		logger.Bool("committed", c.Bool("commit")))
	return printReport(c.App.Writer, report)
}

func printReport(w io.Writer, report model.Report) error { //nolint:gocritic // hugeParam: read-only
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s room, average %.0f\n", report.Mode, report.RoomAverage)
	fmt.Fprintln(tw, "#\tRacer\tScore\tMMR\tDelta\tNew MMR\tChange\tAccolade")
	for _, o := range report.Outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%+d\t%d\t%s %s\t%d\n",
			o.Standing, o.Name, o.RawScore, o.PreviousMMR, o.Delta, o.NewMMR,
			o.Change.Arrow(), o.Change.Label(), o.Accolade)
	}
	return tw.Flush()
}
