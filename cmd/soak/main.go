package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/cellparty/cells"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Layered random graphs hammered with rotating source writes. Every config is
// built and run twice from the same seed; the sums and the per-leaf
// notification checksums must agree or propagation is order-sensitive.
func main() {
	log.Print("Starting cellparty soak, please wait...")
	defer log.Print("Finished cellparty soak")

	configs := []soakConfig{
		{
			name:           "simple component",
			width:          10,
			totalLayers:    5,
			nSources:       2,
			staticFraction: 1,
			iterations:     10_000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    10,
			nSources:       6,
			staticFraction: 0.75,
			iterations:     2_000,
		},
		{
			name:           "wide dense",
			width:          100,
			totalLayers:    5,
			nSources:       10,
			staticFraction: 1,
			iterations:     1_000,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    100,
			nSources:       3,
			staticFraction: 1,
			iterations:     500,
		},
		{
			name:           "very dynamic",
			width:          50,
			totalLayers:    10,
			nSources:       4,
			staticFraction: 0.5,
			iterations:     1_000,
		},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"test", "size", "nSources", "static%",
		"writes", "evals", "time", "updates/ms",
		"checksum", "deterministic",
	})

	for _, cfg := range configs {
		log.Printf("Running '%s' config", cfg.name)
		first := runSoak(cfg)
		second := runSoak(cfg)

		deterministic := "yes"
		if first.sum != second.sum || first.checksum != second.checksum {
			deterministic = "NO"
		}

		updateRate := float64(first.evals) / (float64(first.duration) / float64(time.Millisecond))
		tbl.Append([]string{
			cfg.name,
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(int64(cfg.iterations)),
			humanize.Comma(first.evals),
			fmt.Sprint(first.duration),
			humanize.Comma(int64(updateRate)),
			fmt.Sprintf("%016x", first.checksum),
			deterministic,
		})
	}
	tbl.Render()
}

type soakConfig struct {
	name           string
	width          int // cells per layer
	totalLayers    int
	nSources       int     // sources read by each non-source cell, must be >= 2
	staticFraction float64 // fraction of cells with a fixed source set
	iterations     int     // writes to perform
}

type soakResult struct {
	sum      int
	evals    int64
	duration time.Duration
	checksum uint64
}

func runSoak(cfg soakConfig) soakResult {
	rt := cells.NewRuntime()
	var evals int64

	sources := make([]*cells.Cell, cfg.width)
	for i := range sources {
		sources[i] = cells.Input(rt, i)
	}

	random := rand.New(rand.NewSource(0))
	prevRow := sources
	for l := 0; l < cfg.totalLayers-1; l++ {
		prevRow = makeRow(rt, prevRow, cfg, &evals, random)
	}
	leaves := prevRow

	// Per-leaf digests keep the checksum independent of cross-cell
	// notification order within a settle.
	digests := make([]*xxhash.Digest, len(leaves))
	for i, leaf := range leaves {
		i := i
		digests[i] = xxhash.New()
		if _, err := leaf.Subscribe(func(_, newValue any) {
			fmt.Fprintf(digests[i], "%d:%v;", i, newValue)
		}); err != nil {
			log.Fatal(err)
		}
	}

	start := time.Now()
	for i := 0; i < cfg.iterations; i++ {
		dex := i % len(sources)
		if err := sources[dex].SetValue(i + dex); err != nil {
			log.Fatal(err)
		}
	}
	duration := time.Since(start)

	sum := 0
	for _, leaf := range leaves {
		sum += leaf.Value().(int)
	}

	combined := xxhash.New()
	for _, d := range digests {
		fmt.Fprintf(combined, "%016x", d.Sum64())
	}

	return soakResult{
		sum:      sum,
		evals:    evals,
		duration: duration,
		checksum: combined.Sum64(),
	}
}

func makeRow(rt *cells.Runtime, sources []*cells.Cell, cfg soakConfig, evals *int64, random *rand.Rand) []*cells.Cell {
	row := make([]*cells.Cell, len(sources))
	for myDex := range sources {
		mySources := make([]*cells.Cell, 0, cfg.nSources)
		for s := 0; s < cfg.nSources; s++ {
			mySources = append(mySources, sources[(myDex+s)%len(sources)])
		}

		var fn cells.FormulaFunc
		if random.Float64() < cfg.staticFraction {
			fn = func() (any, error) {
				*evals++
				sum := 0
				for _, src := range mySources {
					sum += src.Value().(int)
				}
				return sum, nil
			}
		} else {
			// Dynamic cell: drops one of its tail sources depending on the
			// first source's value, shifting its dependency set run to run.
			first := mySources[0]
			tail := mySources[1:]
			fn = func() (any, error) {
				*evals++
				sum := first.Value().(int)
				shouldDrop := sum&0x1 > 0
				dropDex := sum % len(tail)
				for i, src := range tail {
					if shouldDrop && i == dropDex {
						continue
					}
					sum += src.Value().(int)
				}
				return sum, nil
			}
		}

		c, err := cells.Formula(rt, fn)
		if err != nil {
			log.Fatal(err)
		}
		row[myDex] = c
	}
	return row
}
