// Command ltrc rates race results: it serves the rating API, rates rooms
// entered in a workbook and manages the Postgres schema.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/okian/ltrc/internal/config"
	"github.com/okian/ltrc/pkg/logger"
)

var errMissingArg = errors.New("missing argument")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("ltrc: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ltrc",
		Usage: "MMR rating engine for race results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				return os.Setenv(config.EnvPrefix+"CONFIG", path)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			rateCommand(),
			newWorkbookCommand(),
			importCommand(),
			migrateCommand(),
			simulateCommand(),
		},
	}
}

// setup loads configuration and initializes logging.
func setup(c *cli.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(c.App.ErrWriter)); err != nil {
		return nil, nil, err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}
