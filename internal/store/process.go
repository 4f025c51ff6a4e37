package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/detect"
	"github.com/ghosttxt/ghosttext/internal/extract"
	"github.com/ghosttxt/ghosttext/internal/record"
)

// Processor rebuilds a store from a directory of raw export files.
type Processor struct {
	engine *extract.Engine
	store  *Store
	log    zerolog.Logger
}

// NewProcessor returns a processor writing into store.
func NewProcessor(engine *extract.Engine, store *Store, log zerolog.Logger) *Processor {
	return &Processor{engine: engine, store: store, log: log}
}

// Result summarizes one processing run.
type Result struct {
	// Years that were written, ascending.
	Years []int
	// Processed lists the input file names that yielded at least one record.
	Processed []string
	// Unprocessed lists the input file names that yielded none.
	Unprocessed []string
}

// Run clears the store, extracts every file directly under inputDir, and
// rewrites the year partitions. Files are visited in name order so the run
// is deterministic. Extraction failures never abort the run; a file that
// yields no records is reported as unprocessed.
func (p *Processor) Run(inputDir string) (Result, error) {
	if err := p.store.Clear(); err != nil {
		return Result{}, fmt.Errorf("clearing store: %w", err)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return Result{}, fmt.Errorf("reading input directory %s: %w", inputDir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var result Result
	byYear := map[int][]record.Record{}
	for _, name := range names {
		path := filepath.Join(inputDir, name)
		kind := detect.Source(path)
		p.log.Debug().Str("file", name).Str("kind", string(kind)).Msg("processing input file")

		records := p.engine.File(path, kind)
		if len(records) == 0 {
			result.Unprocessed = append(result.Unprocessed, name)
			continue
		}
		result.Processed = append(result.Processed, name)

		for _, rec := range records {
			year, ok := rec.Year()
			if !ok {
				year, ok = fileYear(path)
			}
			if !ok {
				p.log.Warn().Str("file", name).Str("timestamp", rec.Timestamp).Msg("record has no usable year, dropping")
				continue
			}
			byYear[year] = append(byYear[year], rec)
		}
	}

	// A run that partitioned nothing leaves no store behind; every input
	// counts as unprocessed in that case.
	if len(byYear) == 0 {
		p.log.Warn().Str("dir", inputDir).Msg("no records extracted from any file")
		return Result{Unprocessed: names}, nil
	}

	for year, records := range byYear {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp < records[j].Timestamp
		})
		deduped := dedupAdjacent(records)
		if err := p.store.SaveYear(year, deduped); err != nil {
			p.log.Error().Int("year", year).Err(err).Msg("could not save year store")
			continue
		}
		p.log.Info().Int("year", year).Int("records", len(deduped)).Msg("saved year store")
		result.Years = append(result.Years, year)
	}
	sort.Ints(result.Years)
	return result, nil
}

// dedupAdjacent drops records that are field-wise equal to their immediate
// predecessor. Only adjacent duplicates collapse; equal records separated
// by a different one are kept.
func dedupAdjacent(records []record.Record) []record.Record {
	if len(records) == 0 {
		return records
	}
	out := records[:1]
	for _, rec := range records[1:] {
		if !rec.Equal(out[len(out)-1]) {
			out = append(out, rec)
		}
	}
	return out
}

// fileYear falls back to the file's modification year for records whose
// own timestamp carries none.
func fileYear(path string) (int, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	year := info.ModTime().Year()
	if year <= 0 {
		return 0, false
	}
	return year, true
}
