package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ghosttxt/ghosttext/internal/extract"
	"github.com/ghosttxt/ghosttext/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), zerolog.Nop())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	records := []record.Record{
		{Timestamp: "2023-05-12 21:04:00", Sender: "Alice", Text: "hello <world> & more", Source: "chat.txt"},
		{Timestamp: "2023-05-12 21:05:00", Sender: "Bob", Text: "hi", Source: "chat.txt"},
	}
	if err := s.SaveYear(2023, records); err != nil {
		t.Fatalf("SaveYear: %v", err)
	}

	loaded, err := s.LoadYear(2023)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if len(loaded) != 2 || !loaded[0].Equal(records[0]) || !loaded[1].Equal(records[1]) {
		t.Errorf("loaded = %+v", loaded)
	}

	// The file on disk keeps angle brackets and ampersands readable.
	data, err := os.ReadFile(filepath.Join(s.Dir(), "2023.json"))
	if err != nil {
		t.Fatalf("reading store file: %v", err)
	}
	if !strings.Contains(string(data), "hello <world> & more") {
		t.Errorf("store file escapes HTML: %s", data)
	}
}

func TestStore_LoadYearMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadYear(1999); !errors.Is(err, ErrYearNotFound) {
		t.Errorf("err = %v, want ErrYearNotFound", err)
	}
}

func TestStore_AvailableYears(t *testing.T) {
	s := newTestStore(t)

	years, err := s.AvailableYears()
	if err != nil || years != nil {
		t.Fatalf("empty store: years = %v, err = %v", years, err)
	}

	for _, year := range []int{2024, 2021, 2023} {
		if err := s.SaveYear(year, []record.Record{{Timestamp: "x", Sender: "a", Text: "b", Source: "c"}}); err != nil {
			t.Fatalf("SaveYear(%d): %v", year, err)
		}
	}
	// Non-store files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing extra file: %v", err)
	}

	years, err = s.AvailableYears()
	if err != nil {
		t.Fatalf("AvailableYears: %v", err)
	}
	if len(years) != 3 || years[0] != 2021 || years[1] != 2023 || years[2] != 2024 {
		t.Errorf("years = %v, want [2021 2023 2024]", years)
	}
}

func TestStore_MissingDirectoryIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"), zerolog.Nop())
	years, err := s.AvailableYears()
	if err != nil || years != nil {
		t.Errorf("years = %v, err = %v, want empty and no error", years, err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("Clear on missing directory: %v", err)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveYear(2023, nil); err != nil {
		t.Fatalf("SaveYear: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("writing extra file: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	years, err := s.AvailableYears()
	if err != nil || len(years) != 0 {
		t.Errorf("after Clear: years = %v, err = %v", years, err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "keep.txt")); err != nil {
		t.Errorf("Clear removed an unrelated file: %v", err)
	}
}

func TestProcessor_Run(t *testing.T) {
	input := t.TempDir()
	chat := "12/5/23, 9:04 PM - Alice: hello\n" +
		"12/5/23, 9:04 PM - Alice: hello\n" + // adjacent duplicate
		"3/1/24, 8:00 AM - Bob: new year"
	if err := os.WriteFile(filepath.Join(input, "WhatsApp Chat with Alice.txt"), []byte(chat), 0o644); err != nil {
		t.Fatalf("writing chat file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(input, "unrelated.bin"), []byte{0x00}, 0o644); err != nil {
		t.Fatalf("writing binary file: %v", err)
	}

	s := newTestStore(t)
	p := NewProcessor(extract.NewEngine(zerolog.Nop()), s, zerolog.Nop())

	result, err := p.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Years) != 2 || result.Years[0] != 2023 || result.Years[1] != 2024 {
		t.Errorf("Years = %v, want [2023 2024]", result.Years)
	}
	if len(result.Processed) != 1 || result.Processed[0] != "WhatsApp Chat with Alice.txt" {
		t.Errorf("Processed = %v", result.Processed)
	}
	if len(result.Unprocessed) != 1 || result.Unprocessed[0] != "unrelated.bin" {
		t.Errorf("Unprocessed = %v", result.Unprocessed)
	}

	recs2023, err := s.LoadYear(2023)
	if err != nil {
		t.Fatalf("LoadYear(2023): %v", err)
	}
	if len(recs2023) != 1 {
		t.Errorf("2023 records = %+v, want the duplicate collapsed", recs2023)
	}
	recs2024, err := s.LoadYear(2024)
	if err != nil {
		t.Fatalf("LoadYear(2024): %v", err)
	}
	if len(recs2024) != 1 || recs2024[0].Sender != "Bob" {
		t.Errorf("2024 records = %+v", recs2024)
	}
}

func TestProcessor_RunReplacesPreviousStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveYear(1999, []record.Record{{Timestamp: "1999-01-01 00:00:00", Sender: "a", Text: "b", Source: "c"}}); err != nil {
		t.Fatalf("SaveYear: %v", err)
	}

	input := t.TempDir()
	chat := "12/5/23, 9:04 PM - Alice: hello"
	if err := os.WriteFile(filepath.Join(input, "WhatsApp Chat with Alice.txt"), []byte(chat), 0o644); err != nil {
		t.Fatalf("writing chat file: %v", err)
	}

	p := NewProcessor(extract.NewEngine(zerolog.Nop()), s, zerolog.Nop())
	if _, err := p.Run(input); err != nil {
		t.Fatalf("Run: %v", err)
	}

	years, err := s.AvailableYears()
	if err != nil {
		t.Fatalf("AvailableYears: %v", err)
	}
	if len(years) != 1 || years[0] != 2023 {
		t.Errorf("years = %v, want only 2023", years)
	}
}

func TestProcessor_RunNothingExtracted(t *testing.T) {
	input := t.TempDir()
	for _, name := range []string{"b.bin", "a.bin"} {
		if err := os.WriteFile(filepath.Join(input, name), []byte{0x00}, 0o644); err != nil {
			t.Fatalf("writing file: %v", err)
		}
	}

	s := newTestStore(t)
	p := NewProcessor(extract.NewEngine(zerolog.Nop()), s, zerolog.Nop())
	result, err := p.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Years) != 0 || len(result.Processed) != 0 {
		t.Errorf("result = %+v, want nothing written", result)
	}
	if len(result.Unprocessed) != 2 || result.Unprocessed[0] != "a.bin" {
		t.Errorf("Unprocessed = %v, want both inputs in name order", result.Unprocessed)
	}
}

func TestDedupAdjacent(t *testing.T) {
	a := record.Record{Timestamp: "t", Sender: "s", Text: "x", Source: "f"}
	b := record.Record{Timestamp: "t", Sender: "s", Text: "y", Source: "f"}

	got := dedupAdjacent([]record.Record{a, a, b, a})
	if len(got) != 3 || !got[0].Equal(a) || !got[1].Equal(b) || !got[2].Equal(a) {
		t.Errorf("dedupAdjacent = %+v", got)
	}
}
