package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/cellparty/cells"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	maxWidthKey   = "max-width"
	maxDepthKey   = "max-depth"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure cellparty propagation latency",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  maxWidthKey,
				Usage: "Widest fan-out of parallel chains to build",
				Value: 1_000,
			},
			&cli.IntFlag{
				Name:  maxDepthKey,
				Usage: "Deepest chain of formula cells to build",
				Value: 1_000,
			},
			&cli.IntFlag{
				Name:  iterationsKey,
				Usage: "Writes per graph shape",
				Value: 100,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	maxWidth := int(cmd.Int(maxWidthKey))
	maxDepth := int(cmd.Int(maxDepthKey))
	iters := int(cmd.Int(iterationsKey))

	log.Printf("warming up")
	benchmarkPropagate(sizesUpTo(10), sizesUpTo(10), iters, false)

	benchmarkPropagate(sizesUpTo(maxWidth), sizesUpTo(maxDepth), iters, true)
	benchmarkTransactions(sizesUpTo(maxWidth), iters, true)
	return nil
}

// 1, 10, 100, ... up to and including limit's decade
func sizesUpTo(limit int) []int {
	var sizes []int
	for s := 1; s <= limit; s *= 10 {
		sizes = append(sizes, s)
	}
	return sizes
}

func benchmarkPropagate(ww, hh []int, iters int, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("cellparty propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := cells.NewRuntime()
			src := cells.Input(rt, 1)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					next, err := cells.Formula(rt, func() (any, error) {
						return prev.Value().(int) + 1, nil
					})
					if err != nil {
						log.Fatal(err)
					}
					last = next
				}

				if _, err := last.Subscribe(func(_, _ any) {}); err != nil {
					log.Fatal(err)
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := src.SetValue(src.Value().(int) + 1); err != nil {
					log.Fatal(err)
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// one transaction carrying w input writes into a shared sum cell
func benchmarkTransactions(ww []int, iters int, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("cellparty transactions")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		rt := cells.NewRuntime()
		inputs := make([]*cells.Cell, w)
		for i := range inputs {
			inputs[i] = cells.Input(rt, i)
		}
		if _, err := cells.Formula(rt, func() (any, error) {
			sum := 0
			for _, in := range inputs {
				sum += in.Value().(int)
			}
			return sum, nil
		}); err != nil {
			log.Fatal(err)
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			err := rt.RunTransaction(func() error {
				for _, in := range inputs {
					if err := in.SetValue(in.Value().(int) + 1); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Fatal(err)
			}
			tach.AddTime(time.Since(start))
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("transaction: %d writes", w),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	if shouldRender {
		tbl.Render()
	}
}
