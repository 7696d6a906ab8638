package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// Each line of the history file carries the mode it was entered in.
const (
	evalPrefix = "E:"
	ctrlPrefix = "C:"
)

// HistoryEntry is one submitted input and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// encode returns the file line for e. The input is quoted so that
// multi-line programs occupy one line.
func (e HistoryEntry) encode() string {
	prefix := evalPrefix
	if e.Mode == modeCtrl {
		prefix = ctrlPrefix
	}

	return prefix + strconv.Quote(e.Line) + "\n"
}

func decodeEntry(line string) HistoryEntry {
	entry := HistoryEntry{Mode: modeEval}

	if s, ok := strings.CutPrefix(line, ctrlPrefix); ok {
		entry.Mode, line = modeCtrl, s
	} else {
		line, _ = strings.CutPrefix(line, evalPrefix)
	}

	entry.Line = line
	if s, err := strconv.Unquote(line); err == nil {
		entry.Line = s
	}

	return entry
}

// History is the REPL input history, persisted one entry per line. An entry
// submitted again moves to the end instead of being duplicated.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns an empty History stored at path. An empty path keeps
// the history in memory only.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those read from the history file. A
// missing file is not an error.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil

	if h.path == "" {
		return nil
	}

	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, decodeEntry(line))
		}
	}

	return scanner.Err()
}

// Add appends line to the history in the given mode.
func (h *History) Add(line string, mode inputMode) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{Line: line, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	rewrite := false

	for i, e := range h.entries {
		if e == entry {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			rewrite = true

			break
		}
	}

	h.entries = append(h.entries, entry)

	if rewrite {
		return h.rewriteFile()
	}

	return h.appendFile(entry)
}

// GetEntry returns the entry at index i, where 0 is the oldest.
func (h *History) GetEntry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]HistoryEntry(nil), h.entries...)
}

// Must be called with h.mu held.
func (h *History) appendFile(entry HistoryEntry) error {
	if h.path == "" {
		return nil
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(entry.encode())

	return err
}

// Must be called with h.mu held.
func (h *History) rewriteFile() error {
	if h.path == "" {
		return nil
	}

	var b strings.Builder

	for _, e := range h.entries {
		b.WriteString(e.encode())
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}
