package config

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	in := &Config{DefaultSession: "work", BatchSize: 25}
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.DefaultSession != "work" || out.BatchSize != 25 {
		t.Errorf("loaded %+v", out)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing config")
	}
}

func TestEffectiveBatchSize(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want int
	}{
		{"nil config", nil, DefaultBatchSize},
		{"zero", &Config{}, DefaultBatchSize},
		{"negative", &Config{BatchSize: -5}, DefaultBatchSize},
		{"override", &Config{BatchSize: 20}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.EffectiveBatchSize(); got != tt.want {
				t.Errorf("EffectiveBatchSize() = %d, want %d", got, tt.want)
			}
		})
	}
}
