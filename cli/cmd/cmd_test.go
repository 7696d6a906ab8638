package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

// withStdin replaces os.Stdin with a pipe carrying content until the test
// ends.
func withStdin(t *testing.T, content string) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	old := os.Stdin
	os.Stdin = r

	t.Cleanup(func() {
		os.Stdin = old
		r.Close()
	})

	go func() {
		defer w.Close()

		_, _ = io.WriteString(w, content)
	}()
}

func readSources(t *testing.T, sources []string) (string, bool) {
	t.Helper()

	src := sourceFilesFrom(WithSourceFiles(t.Context(), sources))
	if src == nil {
		return "", false
	}

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("reading sources: %v", err)
	}

	return string(data), true
}

func TestWithSourceFiles_Empty(t *testing.T) {
	for _, sources := range [][]string{nil, {}} {
		if _, ok := readSources(t, sources); ok {
			t.Errorf("WithSourceFiles(%#v) stored a reader", sources)
		}
	}
}

func TestWithSourceFiles_Files(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.nova": "let a = 1;\n",
		"b.nova": "let b = 2;\n",
	})

	a := filepath.Join(dir, "a.nova")
	b := filepath.Join(dir, "b.nova")

	if err := os.Symlink(a, filepath.Join(dir, "link.nova")); err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(mustGetwd(t), a)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		sources []string
		want    string
	}{
		{"single", []string{a}, "let a = 1;\n"},
		{"in_order", []string{b, a}, "let b = 2;\nlet a = 1;\n"},
		{"duplicate_path", []string{a, a, b}, "let a = 1;\nlet b = 2;\n"},
		{"relative_duplicate", []string{a, rel}, "let a = 1;\n"},
		{"symlink_duplicate", []string{filepath.Join(dir, "link.nova"), a}, "let a = 1;\n"},
		{"missing_skipped", []string{filepath.Join(dir, "missing.nova"), b}, "let b = 2;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := readSources(t, tt.sources)
			if !ok {
				t.Fatal("no reader stored")
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSourceFiles_AllMissing(t *testing.T) {
	if _, ok := readSources(t, []string{filepath.Join(t.TempDir(), "missing.nova")}); ok {
		t.Error("expected no reader when no file could be opened")
	}
}

func TestWithSourceFiles_StdinLast(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.nova": "file;"})

	withStdin(t, "stdin;")

	got, ok := readSources(t, []string{"-", filepath.Join(dir, "a.nova"), "-"})
	if !ok {
		t.Fatal("no reader stored")
	}

	if got != "file;stdin;" {
		t.Errorf("got %q, want %q", got, "file;stdin;")
	}
}

func TestSourceFiles_Stdin(t *testing.T) {
	withStdin(t, "")

	src := sourceFilesFrom(WithSourceFiles(t.Context(), []string{"-"}))
	if src == nil {
		t.Fatal("no reader stored")
	}

	if src.IsZero() {
		t.Error("IsZero() = true with stdin source")
	}

	if src.Stdin() != os.Stdin {
		t.Error("Stdin() did not return os.Stdin")
	}
}

func mustGetwd(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	return wd
}
