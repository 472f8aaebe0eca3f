package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/simp-lee/logger"
)

func boolPtr(b bool) *bool { return &b }

func TestSetupLogger_NilConfig(t *testing.T) {
	if _, err := SetupLogger(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestSetupLogger_LevelMapping(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			log, err := SetupLogger(&LogConfig{Level: tt.level, Format: "text"})
			if err != nil {
				t.Fatalf("SetupLogger error: %v", err)
			}
			defer log.Close()

			if !log.Enabled(context.TODO(), tt.wantLevel) {
				t.Errorf("expected level %v to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > slog.LevelDebug && log.Enabled(context.TODO(), tt.wantLevel-1) {
				t.Errorf("expected level %v to be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestSetupLogger_InstallsDefault(t *testing.T) {
	log, err := SetupLogger(&LogConfig{Level: "warn", Format: "json"})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()

	if slog.Default().Handler() != log.Handler() {
		t.Error("SetupLogger did not replace slog.Default()")
	}
}

func TestSetupLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendorpay.log")
	log, err := SetupLogger(&LogConfig{Level: "info", Format: "json", FilePath: path, Color: boolPtr(false)})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer log.Close()
}

func TestBuildLoggerOpts_Count(t *testing.T) {
	const base = 4        // level, context middleware, console format, console color
	const file = base + 2 // file path, file format

	tests := []struct {
		name string
		cfg  *LogConfig
		want int
	}{
		{"console text", &LogConfig{Level: "info", Format: "text"}, base},
		{"console json without color", &LogConfig{Level: "info", Format: "json", Color: boolPtr(false)}, base},
		{"unknown format", &LogConfig{Level: "info", Format: "whatever"}, base},
		{"file without rotation", &LogConfig{Format: "json", FilePath: "/tmp/v.log"}, file},
		{"file with size limit", &LogConfig{Format: "json", FilePath: "/tmp/v.log", MaxSizeMB: 10}, file + 1},
		{"compress false still counts", &LogConfig{Format: "json", FilePath: "/tmp/v.log", CompressRotated: boolPtr(false)}, file + 1},
		{
			"every rotation field",
			&LogConfig{Format: "json", FilePath: "/tmp/v.log", MaxSizeMB: 50, RetentionDays: 30, MaxBackups: 5, CompressRotated: boolPtr(true)},
			file + 4,
		},
		{"rotation ignored without file", &LogConfig{Format: "text", MaxSizeMB: 50, MaxBackups: 5}, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(BuildLoggerOpts(tt.cfg)); got != tt.want {
				t.Errorf("option count = %d, want %d", got, tt.want)
			}
		})
	}

	if BuildLoggerOpts(nil) != nil {
		t.Error("nil config should produce nil options")
	}
}

func TestBuildLoggerOpts_ProducesValidLogger(t *testing.T) {
	cfgs := []*LogConfig{
		{Level: "debug", Format: "text"},
		{Level: "warn", Format: "json"},
		{
			Level: "info", Format: "json", FilePath: filepath.Join(t.TempDir(), "rotate.log"),
			MaxSizeMB: 10, RetentionDays: 7, MaxBackups: 3, CompressRotated: boolPtr(true),
		},
	}

	for _, cfg := range cfgs {
		log, err := logger.New(BuildLoggerOpts(cfg)...)
		if err != nil {
			t.Fatalf("logger.New(%+v) failed: %v", cfg, err)
		}
		log.Close()
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]logger.OutputFormat{
		"text":  logger.FormatText,
		"JSON":  logger.FormatJSON,
		"other": logger.FormatCustom,
	}
	for in, want := range tests {
		if got := parseFormat(in); got != want {
			t.Errorf("parseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}
