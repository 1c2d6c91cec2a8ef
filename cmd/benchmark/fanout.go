package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/watchparty/internal/logging"
	"github.com/delaneyj/watchparty/metrics"
	"github.com/delaneyj/watchparty/state"
)

type fanoutResult struct {
	cfg           fanoutConfig
	iters         int
	effectCalls   int
	watcherCalls  int
	notifications float64
	duration      time.Duration
}

func fanout(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadScenarios(cmd)
	if err != nil {
		return err
	}

	log.Print("Starting fanout benchmark, please wait...")
	defer log.Print("Finished fanout benchmark")

	results := make([]fanoutResult, 0, len(cfg.Fanouts))
	for _, f := range cfg.Fanouts {
		r, err := runFanout(f, cfg.Iters)
		if err != nil {
			return fmt.Errorf("fanout %q: %w", f.Name, err)
		}
		results = append(results, r)
	}
	renderFanout(os.Stdout, results)
	return nil
}

func runFanout(f fanoutConfig, iters int) (fanoutResult, error) {
	res := fanoutResult{cfg: f, iters: iters}

	collector := metrics.NewCollector("watchparty")
	reg := prometheus.NewRegistry()
	if err := collector.Register(reg); err != nil {
		return res, err
	}

	rs := state.NewReactiveSystem(
		state.WithLogger(logging.NewNop()),
		state.WithHooks(collector),
		state.WithLazyRegistration(),
	)
	src, err := state.Reactive(rs, 0)
	if err != nil {
		return res, err
	}

	for i := 0; i < f.Effects; i++ {
		if err := state.Effect(rs, []state.Source{src}, func() {
			res.effectCalls++
		}); err != nil {
			return res, err
		}
	}
	for i := 0; i < f.Watchers; i++ {
		if _, err := src.Watch(state.NewWatcher(func(int) {
			res.watcherCalls++
		}), false); err != nil {
			return res, err
		}
	}

	start := time.Now()
	for i := 0; i < iters; i++ {
		src.Set(i)
	}
	res.duration = time.Since(start)

	families, err := reg.Gather()
	if err != nil {
		return res, err
	}
	for _, mf := range families {
		if mf.GetName() != "watchparty_notifications_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			res.notifications += m.GetCounter().GetValue()
		}
	}
	return res, nil
}

func renderFanout(out io.Writer, results []fanoutResult) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		"scenario", "effects", "watchers", "sets", "notifications", "time", "notifications/s",
	})
	for _, r := range results {
		rate := 0.0
		if r.duration > 0 {
			rate = r.notifications / r.duration.Seconds()
		}
		table.Append([]string{
			r.cfg.Name,
			humanize.Comma(int64(r.cfg.Effects)),
			humanize.Comma(int64(r.cfg.Watchers)),
			humanize.Comma(int64(r.iters)),
			humanize.Comma(int64(r.notifications)),
			fmt.Sprint(r.duration),
			humanize.Comma(int64(rate)),
		})
	}
	table.Render()
}
