// Package store persists canonical records as one JSON file per calendar
// year and rebuilds that layout from a raw export directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/record"
)

// ErrYearNotFound is returned by LoadYear when no store exists for the
// requested year.
var ErrYearNotFound = errors.New("no records stored for year")

var yearFileRE = regexp.MustCompile(`^(\d{4})\.json$`)

// Store reads and writes year-partitioned record files under one directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// New returns a store rooted at dir. The directory is created on first
// write, not here.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Dir returns the directory the store persists into.
func (s *Store) Dir() string {
	return s.dir
}

// AvailableYears lists the years that have a store file, ascending. A
// missing store directory is an empty result, not an error.
func (s *Store) AvailableYears() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading store directory %s: %w", s.dir, err)
	}

	var years []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := yearFileRE.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

// LoadYear reads the records stored for year. A missing file maps to
// ErrYearNotFound so callers can distinguish "no data" from I/O failure.
func (s *Store) LoadYear(year int) ([]record.Record, error) {
	path := s.yearPath(year)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %d", ErrYearNotFound, year)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

// SaveYear writes the records for year, replacing any existing file. The
// output is indented and keeps message text unescaped for inspection by
// hand.
func (s *Store) SaveYear(year int, records []record.Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", s.dir, err)
	}

	path := s.yearPath(year)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// Clear removes every year store file. Other files in the directory are
// left alone.
func (s *Store) Clear() error {
	years, err := s.AvailableYears()
	if err != nil {
		return err
	}
	for _, year := range years {
		path := s.yearPath(year)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		s.log.Debug().Str("file", path).Msg("removed year store")
	}
	return nil
}

func (s *Store) yearPath(year int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", year))
}
