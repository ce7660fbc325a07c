package appconfig

import (
	"testing"

	yaml "sigs.k8s.io/yaml"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Viewer.Theme != "dracula" {
		t.Errorf("theme = %q, want dracula", cfg.Viewer.Theme)
	}
	if cfg.Logs.Scrollback <= 0 || cfg.Logs.TailLines <= 0 {
		t.Errorf("log defaults not positive: %+v", cfg.Logs)
	}
}

func TestUnmarshalFillsMissingFields(t *testing.T) {
	data := []byte("viewer:\n  theme: monokai\n")
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Viewer.Theme != "monokai" {
		t.Errorf("theme = %q, want monokai", cfg.Viewer.Theme)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Logs.Scrollback != Default().Logs.Scrollback {
		t.Errorf("scrollback = %d, want default %d", cfg.Logs.Scrollback, Default().Logs.Scrollback)
	}
}

func TestRoundTrip(t *testing.T) {
	in := &Config{Viewer: ViewerConfig{Theme: "Nord"}, Logs: LogsConfig{Scrollback: 100, TailLines: 10}}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}
}
