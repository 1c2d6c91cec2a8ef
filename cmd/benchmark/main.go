package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

const (
	configKey = "config"
	itersKey  = "iters"
)

func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  configKey,
			Usage: "YAML scenario file, defaults are used when it does not exist",
			Value: "scenarios.yaml",
		},
		&cli.UintFlag{
			Name:  itersKey,
			Usage: "Number of sets per scenario, overrides the scenario file when non-zero",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure how sets propagate through watchparty subjects",
		Commands: []*cli.Command{
			{
				Name:   "propagate",
				Usage:  "Time sets through width x height chains of derived subjects",
				Flags:  scenarioFlags(),
				Action: propagate,
			},
			{
				Name:   "fanout",
				Usage:  "Count notifications from one subject to many effects and watchers",
				Flags:  scenarioFlags(),
				Action: fanout,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadScenarios(cmd *cli.Command) (*scenarioConfig, error) {
	cfg, err := loadConfig(cmd.String(configKey))
	if err != nil {
		return nil, err
	}
	if iters := cmd.Uint(itersKey); iters > 0 {
		cfg.Iters = int(iters)
	}
	return cfg, nil
}
