package engine

import (
	"context"
	"encoding/binary"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// predicate keeps rows whose attribute id matches (or, negated, does not
// match) id. id is -1 when the filter value is not in the dictionary.
type predicate struct {
	attr   int
	id     int32
	negate bool
}

func (p predicate) keep(ids []int32, row int) bool {
	return (ids[row] == p.id) != p.negate
}

// group is one distinct tuple of attribute ids with its measure sums.
type group struct {
	ids  []int32
	sums []float64
	rows int
}

// groupBy scans the store in parallel and SUMs measures per distinct tuple of
// attrs ids over the rows passing every predicate.
func (cs *ColumnStore) groupBy(ctx context.Context, attrs, measures []int, preds []predicate) (map[string]*group, error) {
	// 1. Setup Workers
	numWorkers := runtime.NumCPU()
	chunkSize := cs.Rows/numWorkers + 1
	partials := make([]map[string]*group, numWorkers)

	// 2. Parallel Loop
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		start := min(i*chunkSize, cs.Rows)
		end := min(start+chunkSize, cs.Rows)
		w := i
		g.Go(func() error {
			p := make(map[string]*group)
			partials[w] = p

			// Capture slice headers to avoid bounds checks in loop
			dimCols := make([][]int32, len(attrs))
			for k, a := range attrs {
				dimCols[k] = cs.DimIDs[a]
			}
			measureCols := make([][]float64, len(measures))
			for k, m := range measures {
				measureCols[k] = cs.Measures[m]
			}
			key := make([]byte, 4*len(attrs))

		rows:
			for j := start; j < end; j++ {
				if (j-start)&0xffff == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				for _, pr := range preds {
					if !pr.keep(cs.DimIDs[pr.attr], j) {
						continue rows
					}
				}

				// Fixed width id tuple as map key; no string building per row.
				for k, col := range dimCols {
					binary.LittleEndian.PutUint32(key[4*k:], uint32(col[j]))
				}
				agg, ok := p[string(key)]
				if !ok {
					agg = &group{ids: make([]int32, len(attrs)), sums: make([]float64, len(measures))}
					for k, col := range dimCols {
						agg.ids[k] = col[j]
					}
					p[string(key)] = agg
				}
				for k, col := range measureCols {
					agg.sums[k] += col[j]
				}
				agg.rows++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 3. Merge Phase (Reducer)
	final := make(map[string]*group)
	for _, p := range partials {
		for k, agg := range p {
			f, ok := final[k]
			if !ok {
				final[k] = agg
				continue
			}
			for m := range f.sums {
				f.sums[m] += agg.sums[m]
			}
			f.rows += agg.rows
		}
	}
	return final, nil
}
