package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_AddAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}

	inputs := []struct {
		line string
		mode inputMode
	}{
		{"let x = 1;", modeEval},
		{"list", modeCtrl},
		{"fn f() {\n  // body\n  x\n}", modeEval},
		{"  ", modeEval},
		{"list", modeCtrl},
	}

	for _, in := range inputs {
		if err := h.Add(in.line, in.mode); err != nil {
			t.Fatalf("Add(%q): %v", in.line, err)
		}
	}

	// A repeat of an earlier entry moves it to the end.
	want := []HistoryEntry{
		{Line: "let x = 1;", Mode: modeEval},
		{Line: "fn f() {\n  // body\n  x\n}", Mode: modeEval},
		{Line: "list", Mode: modeCtrl},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %+v, want %+v", got, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if got := reloaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("reloaded Entries() = %+v, want %+v", got, want)
	}
}

func TestHistory_SkipsImmediateRepeat(t *testing.T) {
	h := NewHistory("")

	for range 3 {
		if err := h.Add("1 + 1", modeEval); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}

	// The same text in another mode is a different entry.
	if err := h.Add("1 + 1", modeCtrl); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
}

func TestHistory_GetEntry(t *testing.T) {
	h := NewHistory("")
	_ = h.Add("a", modeEval)
	_ = h.Add("help", modeCtrl)

	tests := []struct {
		index   int
		want    HistoryEntry
		wantErr error
	}{
		{0, HistoryEntry{Line: "a", Mode: modeEval}, nil},
		{1, HistoryEntry{Line: "help", Mode: modeCtrl}, nil},
		{2, HistoryEntry{}, ErrOutOfBounds},
		{-1, HistoryEntry{}, ErrOutOfBounds},
	}

	for _, tt := range tests {
		got, err := h.GetEntry(tt.index)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("GetEntry(%d) error = %v, want %v", tt.index, err, tt.wantErr)
		}

		if got != tt.want {
			t.Errorf("GetEntry(%d) = %+v, want %+v", tt.index, got, tt.want)
		}
	}
}

func TestHistory_LoadLegacyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	content := "E:\"1 + 2\"\nC:help\nplain text\n\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load(): %v", err)
	}

	want := []HistoryEntry{
		{Line: "1 + 2", Mode: modeEval},
		{Line: "help", Mode: modeCtrl},
		{Line: "plain text", Mode: modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %+v, want %+v", got, want)
	}
}
