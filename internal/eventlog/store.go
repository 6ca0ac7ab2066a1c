package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// stream is one batch's event log with its identity set, maintained
// incrementally so per-emit appends stay O(1).
type stream struct {
	events []Event
	ids    map[string]bool
}

// Store provides thread-safe, day-ordered storage for batch event streams,
// partitioned by batch number.
type Store struct {
	mu   sync.RWMutex
	logs map[string]*stream
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{logs: make(map[string]*stream)}
}

// Append adds events to a batch's stream, deduplicating by identity and
// keeping deterministic (day, seq) order. The emitter delivers events already
// in order, so the hot single-event path never re-sorts; only an out-of-order
// bulk append (a Load of a hand-edited file) pays for one sort. Appending the
// same events twice is a no-op, which keeps bulk assimilation idempotent.
func (s *Store) Append(batchNumber string, events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.logs[batchNumber]
	if st == nil {
		st = &stream{ids: make(map[string]bool)}
		s.logs[batchNumber] = st
	}

	added := 0
	inOrder := true
	for _, e := range events {
		id := e.identity()
		if st.ids[id] {
			continue
		}
		if n := len(st.events); n > 0 {
			last := st.events[n-1]
			if e.Day < last.Day || (e.Day == last.Day && e.Seq < last.Seq) {
				inOrder = false
			}
		}
		st.events = append(st.events, e)
		st.ids[id] = true
		added++
	}
	if added == 0 || inOrder {
		return
	}

	sort.Slice(st.events, func(i, j int) bool {
		if st.events[i].Day != st.events[j].Day {
			return st.events[i].Day < st.events[j].Day
		}
		return st.events[i].Seq < st.events[j].Seq
	})
}

// batchEvents returns the live slice for a batch, or nil.
func (s *Store) batchEvents(batchNumber string) []Event {
	if st := s.logs[batchNumber]; st != nil {
		return st.events
	}
	return nil
}

// Events returns a copy of a batch's full stream in (day, seq) order.
func (s *Store) Events(batchNumber string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.batchEvents(batchNumber)
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// EventsOfType filters a batch's stream by event type.
func (s *Store) EventsOfType(batchNumber string, t Type) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.batchEvents(batchNumber) {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// EventsForDay returns the events of one lifecycle day.
func (s *Store) EventsForDay(batchNumber string, day int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.batchEvents(batchNumber) {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of events stored for a batch.
func (s *Store) Count(batchNumber string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batchEvents(batchNumber))
}

// Batches returns the batch numbers with stored events, sorted.
func (s *Store) Batches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.logs))
	for b := range s.logs {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Save persists a batch's stream to a JSONL file, atomically replacing any
// previous file.
func (s *Store) Save(dir, batchNumber string) error {
	s.mu.RLock()
	events := s.batchEvents(batchNumber)
	s.mu.RUnlock()

	if len(events) == 0 {
		return nil
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", batchNumber))
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp event file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, e := range events {
		if err := encoder.Encode(e); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush events: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close event file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename event file: %w", err)
	}

	log.Info().Str("batch", batchNumber).Int("count", len(events)).Msg("Event stream saved")
	return nil
}

// Load reads a batch's stream from its JSONL file. A missing file is not an
// error; invalid lines are skipped with a warning.
func (s *Store) Load(dir, batchNumber string) error {
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", batchNumber))
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open event file: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Str("batch", batchNumber).Msg("Skipping invalid JSON line in event file")
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading event file: %w", err)
	}

	log.Info().Str("batch", batchNumber).Int("count", len(events)).Msg("Loaded events from file")
	s.Append(batchNumber, events)
	return nil
}
