package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/watchparty/internal/logging"
	"github.com/delaneyj/watchparty/state"
)

type propagateResult struct {
	name        string
	effectCalls int
	calc        *tachymeter.Metrics
}

func propagate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadScenarios(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	log.Printf("propagate benchmark started")
	defer func() {
		log.Printf("propagate benchmark finished in %v", time.Since(start))
	}()

	results, err := runPropagate(cfg)
	if err != nil {
		return err
	}
	renderPropagate(os.Stdout, results)
	return nil
}

// runPropagate builds, for every width and height, width chains of height
// derived subjects hanging off one source, each chain ending in an effect.
func runPropagate(cfg *scenarioConfig) ([]propagateResult, error) {
	var results []propagateResult
	for _, w := range cfg.Widths {
		for _, h := range cfg.Heights {
			tach := tachymeter.New(&tachymeter.Config{Size: cfg.Iters})

			rs := state.NewReactiveSystem(
				state.WithLogger(logging.NewNop()),
				state.WithLazyRegistration(),
			)
			src, err := state.Reactive(rs, 1)
			if err != nil {
				return nil, err
			}

			effectCalls := 0
			for i := 0; i < w; i++ {
				var last state.Source = src
				lastValue := src.Get
				for j := 0; j < h; j++ {
					prevValue := lastValue
					d, err := state.Derived(rs, []state.Source{last}, func() int {
						return prevValue() + 1
					})
					if err != nil {
						return nil, err
					}
					last, lastValue = d, d.Get
				}

				if err := state.Effect(rs, []state.Source{last}, func() {
					effectCalls++
				}); err != nil {
					return nil, err
				}
			}

			for i := 0; i < cfg.Iters; i++ {
				start := time.Now()
				src.Set(src.Get() + 1)
				tach.AddTime(time.Since(start))
			}

			results = append(results, propagateResult{
				name:        fmt.Sprintf("propagate: %d * %d", w, h),
				effectCalls: effectCalls,
				calc:        tach.Calc(),
			})
		}
	}
	return results, nil
}

func renderPropagate(out io.Writer, results []propagateResult) {
	tbl := table.NewWriter()
	tbl.SetTitle("watchparty propagation")
	tbl.SetOutputMirror(out)
	tbl.AppendHeader(table.Row{"benchmark", "effects", "avg", "min", "p75", "p99", "max"})
	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.name,
			r.effectCalls,
			r.calc.Time.Avg,
			r.calc.Time.Min,
			r.calc.Time.P75,
			r.calc.Time.P99,
			r.calc.Time.Max,
		})
	}
	tbl.Render()
}
