package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nova/lang"
)

type resolverCLI struct {
	LogLevel string  `default:"warn"`
	MaxSteps int     `default:"0"`
	Ratio    float64 `default:"1"`
	Pretty   bool    `negatable:""`
	Name     string
}

func parseWithConfig(
	t *testing.T,
	loader kong.ConfigurationLoader,
	content string,
	args ...string,
) resolverCLI {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli resolverCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Configuration(loader, path),
	)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}

	return cli
}

const novaConfig = `
let log_level = "debug";
let max_steps = 1_000 * 2;
fn pick(tty) { if tty { "text" } else { "json" } }
let name = pick(false);
let ratio = 0.25;
let pretty = true;
`

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		want    resolverCLI
	}{
		{
			name:    "computed_values",
			content: novaConfig,
			want: resolverCLI{
				LogLevel: "debug",
				MaxSteps: 2000,
				Ratio:    0.25,
				Pretty:   true,
				Name:     "json",
			},
		},
		{
			name:    "flags_override",
			content: novaConfig,
			args:    []string{"--max-steps=5", "--no-pretty"},
			want: resolverCLI{
				LogLevel: "debug",
				MaxSteps: 5,
				Ratio:    0.25,
				Pretty:   false,
				Name:     "json",
			},
		},
		{
			name:    "invalid_ignored",
			content: "let log_level = ;",
			want:    resolverCLI{LogLevel: "warn", Ratio: 1},
		},
		{
			name:    "runtime_error_ignored",
			content: `let log_level = "info"; let x = 1 / 0;`,
			want:    resolverCLI{LogLevel: "warn", Ratio: 1},
		},
		{
			name:    "runaway_ignored",
			content: "let mut i = 0; while true { i = i + 1; }",
			want:    resolverCLI{LogLevel: "warn", Ratio: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseWithConfig(t, resolve(t.Context()), tt.content, tt.args...)
			if got != tt.want {
				t.Errorf("parsed = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveTOML(t *testing.T) {
	content := `
name = "toml"
ratio = 0.5
pretty = true

[log]
level = "info"

[max]
steps = 42
`

	got := parseWithConfig(t, resolveTOML, content)

	want := resolverCLI{
		LogLevel: "info",
		MaxSteps: 42,
		Ratio:    0.5,
		Pretty:   true,
		Name:     "toml",
	}

	if got != want {
		t.Errorf("parsed = %+v, want %+v", got, want)
	}
}

func TestScopeToConfig(t *testing.T) {
	sess := lang.NewSession()

	if _, err := sess.Run(t.Context(), `
let n = -7;
let f = 1.5;
let s = "x";
let b = false;
fn g() { 1 }
`); err != nil {
		t.Fatal(err)
	}

	cfg := scopeToConfig(sess.Globals())

	want := config{"n": "-7", "f": "1.5", "s": "x", "b": false}

	if len(cfg) != len(want) {
		t.Fatalf("scopeToConfig() = %v, want %v", cfg, want)
	}

	for k, v := range want {
		if cfg[k] != v {
			t.Errorf("scopeToConfig()[%q] = %v, want %v", k, cfg[k], v)
		}
	}
}
