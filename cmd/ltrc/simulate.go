package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/simulate"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "submit generated rooms to a running server and verify the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service"},
			&cli.IntFlag{Name: "rooms", Value: simulate.DefaultRooms, Usage: "rooms to generate"},
			&cli.IntFlag{Name: "racers", Value: simulate.DefaultRacers, Usage: "roster size"},
			&cli.IntFlag{Name: "room-size", Value: simulate.DefaultRoomSize, Usage: "racers per room"},
			&cli.StringFlag{Name: "mode", Value: model.FFA.Name, Usage: "team mode of every room"},
			&cli.IntFlag{Name: "workers", Value: simulate.DefaultWorkers, Usage: "concurrent submitters"},
			&cli.DurationFlag{Name: "timeout", Value: simulate.DefaultTimeout, Usage: "HTTP request timeout"},
			&cli.DurationFlag{Name: "wait", Value: simulate.DefaultWait, Usage: "how long to wait for ratings"},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for names and scores (0 picks one)"},
		},
		Action: func(c *cli.Context) error {
			if _, _, err := setup(c); err != nil {
				return err
			}
			stats, err := simulate.Run(c.Context, simulate.Config{
				BaseURL:  c.String("url"),
				Rooms:    c.Int("rooms"),
				Racers:   c.Int("racers"),
				RoomSize: c.Int("room-size"),
				Mode:     c.String("mode"),
				Workers:  c.Int("workers"),
				Timeout:  c.Duration("timeout"),
				Wait:     c.Duration("wait"),
				Seed:     c.Uint64("seed"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "rated %d/%d rooms (%d failed, %d rejected) in %s\n",
				stats.RoomsRated, stats.RoomsGenerated, stats.RoomsFailed, stats.RoomsRejected, stats.Duration)
			return nil
		},
	}
}
