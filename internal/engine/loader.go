package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pivotd/internal/metrics"
)

// --- 1. ZERO-ALLOC HELPERS ---

func unsafeToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// parseMeasure parses a decimal cell such as "123.45" or "-1e3".
func parseMeasure(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(unsafeToString(b), 64)
	return v, err == nil
}

// alignChunk moves [start, end) forward so both ends sit just past a newline.
func alignChunk(content []byte, start, end int) (int, int) {
	if start > 0 {
		if i := bytes.IndexByte(content[start-1:], '\n'); i != -1 {
			start += i
		} else {
			start = len(content)
		}
	}
	if end < len(content) {
		if i := bytes.IndexByte(content[end-1:], '\n'); i != -1 {
			end += i
		} else {
			end = len(content)
		}
	}
	if start > end {
		start = end
	}
	return start, end
}

// --- 2. MAIN LOADER ---

// LoadColumnar reads the CSV at path into a ColumnStore laid out by schema.
func LoadColumnar(ctx context.Context, log *zap.Logger, path string, schema *Schema) (*ColumnStore, error) {
	start := time.Now()
	log.Info("loading dataset", zap.String("path", path))

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	cs, err := ParseColumnar(ctx, content, schema, runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	metrics.DatasetRows.Set(float64(cs.Rows))
	metrics.DatasetSkippedRows.Set(float64(cs.SkippedRows))
	metrics.DatasetLoadDuration.Set(time.Since(start).Seconds())
	log.Info("dataset loaded",
		zap.Int("rows", cs.Rows),
		zap.Int("skipped", cs.SkippedRows),
		zap.Duration("took", time.Since(start)))
	return cs, nil
}

// ParseColumnar parses CSV content (header line first) with numWorkers
// parallel chunk parsers. Quoted fields are not supported; surrounding spaces
// are trimmed from every cell. Lines whose field count does not match the
// header or whose measures do not parse are skipped.
func ParseColumnar(ctx context.Context, content []byte, schema *Schema, numWorkers int) (*ColumnStore, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	cs := newColumnStore(schema)
	sep := schema.delimiter()

	// A. Header
	header := content
	if idx := bytes.IndexByte(content, '\n'); idx != -1 {
		header, content = content[:idx], content[idx+1:]
	} else {
		content = nil
	}
	header = bytes.TrimSuffix(header, []byte{'\r'})
	names := bytes.Split(header, []byte{sep})
	columns := make(map[string]int, len(names))
	for i, name := range names {
		columns[string(bytes.TrimSpace(name))] = i
	}
	numColumns := len(names)

	dimAt := make([]int, 0, len(cs.Attributes))
	for _, a := range cs.Attributes {
		col, ok := columns[schema.column(a)]
		if !ok {
			return nil, fmt.Errorf("attribute %s: column %q not in header", a, schema.column(a))
		}
		dimAt = append(dimAt, col)
	}
	measureAt := make([]int, 0, len(cs.MeasureNames))
	for _, m := range cs.MeasureNames {
		col, ok := columns[schema.Measures[m]]
		if !ok {
			return nil, fmt.Errorf("measure %s: column %q not in header", m, schema.Measures[m])
		}
		measureAt = append(measureAt, col)
	}
	bindings := make([]binding, numColumns)
	for d, col := range dimAt {
		bindings[col].dims = append(bindings[col].dims, d)
	}
	for m, col := range measureAt {
		bindings[col].measures = append(bindings[col].measures, m)
	}

	// B. Parallel parsing into per-worker columns and dictionaries
	chunkSize := len(content)/numWorkers + 1
	workers := make([]*localColumns, numWorkers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		s, e := alignChunk(content, min(i*chunkSize, len(content)), min((i+1)*chunkSize, len(content)))
		lc := newLocalColumns(len(dimAt), len(measureAt))
		workers[i] = lc
		g.Go(func() error {
			return lc.parse(ctx, content[s:e], sep, bindings)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// C. Merge Dictionaries (Parallel, one goroutine per attribute)
	offsets := make([]int, numWorkers)
	for i, w := range workers {
		offsets[i] = cs.Rows
		cs.Rows += w.rows
		cs.SkippedRows += w.skipped
	}
	for d := range cs.DimIDs {
		cs.DimIDs[d] = make([]int32, cs.Rows)
	}
	for m := range cs.Measures {
		cs.Measures[m] = make([]float64, cs.Rows)
		for w, lc := range workers {
			copy(cs.Measures[m][offsets[w]:], lc.measures[m])
		}
	}

	var dictWg sync.WaitGroup
	for d := range cs.DimIDs {
		dictWg.Add(1)
		go func(d int) {
			defer dictWg.Done()
			cs.Dicts[d] = mergeDict(workers, d, offsets, cs.DimIDs[d])
		}(d)
	}
	dictWg.Wait()

	return cs, nil
}

// binding lists the store slots fed by one CSV column.
type binding struct {
	dims     []int
	measures []int
}

type localColumns struct {
	rows    int
	skipped int

	dictMaps []map[string]int32
	dictList [][]string
	ids      [][]int32
	measures [][]float64
}

func newLocalColumns(numDims, numMeasures int) *localColumns {
	lc := &localColumns{
		dictMaps: make([]map[string]int32, numDims),
		dictList: make([][]string, numDims),
		ids:      make([][]int32, numDims),
		measures: make([][]float64, numMeasures),
	}
	for d := range lc.dictMaps {
		lc.dictMaps[d] = make(map[string]int32)
	}
	return lc
}

// parse is the hot loop: one pass over the chunk, fields cut in place.
func (lc *localColumns) parse(ctx context.Context, chunk []byte, sep byte, bindings []binding) error {
	sepBytes := []byte{sep}
	dimVals := make([][]byte, len(lc.ids))
	measureVals := make([]float64, len(lc.measures))

	pos := 0
	for line := 0; pos < len(chunk); line++ {
		if line&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		next := len(chunk)
		if i := bytes.IndexByte(chunk[pos:], '\n'); i != -1 {
			next = pos + i
		}
		row := bytes.TrimSuffix(chunk[pos:next], []byte{'\r'})
		pos = next + 1
		if len(row) == 0 {
			continue
		}

		ok := true
		col := 0
		for rest, more := row, true; more; col++ {
			var field []byte
			field, rest, more = bytes.Cut(rest, sepBytes)
			if col >= len(bindings) {
				ok = false
				break
			}
			b := bindings[col]
			for _, d := range b.dims {
				dimVals[d] = bytes.TrimSpace(field)
			}
			if len(b.measures) > 0 {
				v, parsed := parseMeasure(bytes.TrimSpace(field))
				if !parsed {
					ok = false
					break
				}
				for _, m := range b.measures {
					measureVals[m] = v
				}
			}
		}
		if !ok || col != len(bindings) {
			lc.skipped++
			continue
		}

		for d, field := range dimVals {
			id, found := lc.dictMaps[d][unsafeToString(field)]
			if !found {
				id = int32(len(lc.dictList[d]))
				str := string(field) // Allocate string for dict
				lc.dictList[d] = append(lc.dictList[d], str)
				lc.dictMaps[d][str] = id
			}
			lc.ids[d] = append(lc.ids[d], id)
		}
		for m, v := range measureVals {
			lc.measures[m] = append(lc.measures[m], v)
		}
		lc.rows++
	}
	return nil
}

// mergeDict folds the worker-local dictionaries of attribute d into one
// global dictionary and rewrites the worker ids into dest.
func mergeDict(workers []*localColumns, d int, offsets []int, dest []int32) []string {
	gMap := make(map[string]int32)
	global := make([]string, 0, 64)
	for w, lc := range workers {
		remap := make([]int32, len(lc.dictList[d]))
		for lid, s := range lc.dictList[d] {
			gid, exists := gMap[s]
			if !exists {
				gid = int32(len(global))
				global = append(global, s)
				gMap[s] = gid
			}
			remap[lid] = gid
		}
		out := dest[offsets[w] : offsets[w]+len(lc.ids[d])]
		for k, id := range lc.ids[d] {
			out[k] = remap[id]
		}
	}
	return global
}
