package cli

import (
	"testing"

	"github.com/ardnew/nova/log"
)

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantLevel  log.Level
		wantFormat log.Format
		wantPretty bool
		wantCaller bool
	}{
		{
			name:       "none",
			args:       []string{"run", "prog.nova"},
			wantLevel:  log.LevelWarn,
			wantFormat: log.FormatText,
			wantPretty: true,
		},
		{
			name:       "assigned",
			args:       []string{"--log-level=debug", "--log-format=json", "run"},
			wantLevel:  log.LevelDebug,
			wantFormat: log.FormatJSON,
			wantPretty: true,
		},
		{
			name:       "separate_values",
			args:       []string{"run", "--log-level", "error", "--log-caller"},
			wantLevel:  log.LevelError,
			wantFormat: log.FormatText,
			wantPretty: true,
			wantCaller: true,
		},
		{
			name:       "negated",
			args:       []string{"--no-log-pretty", "--log-caller=false"},
			wantLevel:  log.LevelWarn,
			wantFormat: log.FormatText,
		},
		{
			name:       "after_terminator",
			args:       []string{"eval", "--", "--log-level=debug"},
			wantLevel:  log.LevelWarn,
			wantFormat: log.FormatText,
			wantPretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := log.Default()
			t.Cleanup(func() { log.SetDefault(saved) })

			log.Config(log.WithLevel(log.LevelWarn), log.WithFormat(log.FormatText))

			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if got := log.Default().Level(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}

			if got := log.Default().Format(); got != tt.wantFormat {
				t.Errorf("format = %v, want %v", got, tt.wantFormat)
			}

			if f.Pretty != tt.wantPretty {
				t.Errorf("Pretty = %v, want %v", f.Pretty, tt.wantPretty)
			}

			if f.Caller != tt.wantCaller {
				t.Errorf("Caller = %v, want %v", f.Caller, tt.wantCaller)
			}
		})
	}
}
