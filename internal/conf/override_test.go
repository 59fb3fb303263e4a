package conf

import "testing"

func TestParseOverride_TypedValues(t *testing.T) {
	tests := []struct {
		arg     string
		path    string
		wantTag string
	}{
		{"optim.lr=3e-4", "optim.lr", "!!float"},
		{"replay_buffer.size=500000", "replay_buffer.size", "!!int"},
		{"loss.max_q_backup=true", "loss.max_q_backup", "!!bool"},
		{"env.name=Hopper-v4", "env.name", "!!str"},
		{"logger.backend=", "logger.backend", "!!str"},
	}

	for _, tt := range tests {
		o, err := ParseOverride(tt.arg)
		if err != nil {
			t.Errorf("ParseOverride(%q): %v", tt.arg, err)
			continue
		}
		if o.Path != tt.path {
			t.Errorf("ParseOverride(%q).Path = %q, want %q", tt.arg, o.Path, tt.path)
		}
		if o.Value.Tag != tt.wantTag {
			t.Errorf("ParseOverride(%q).Value.Tag = %q, want %q", tt.arg, o.Value.Tag, tt.wantTag)
		}
	}
}

func TestParseOverride_Malformed(t *testing.T) {
	for _, arg := range []string{"no-equals", "=value", "a..b=1"} {
		if _, err := ParseOverride(arg); err == nil {
			t.Errorf("ParseOverride(%q): expected error", arg)
		}
	}
}

func TestApply_LaterWins(t *testing.T) {
	d := parseDoc(t, "optim:\n  lr: 3.0e-4\n")
	overrides, err := ParseOverrides([]string{"optim.lr=1e-3", "optim.lr=1e-5"})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Apply(overrides); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := d.Lookup("optim.lr").Value; got != "1e-5" {
		t.Errorf("optim.lr = %q, want 1e-5", got)
	}
}

func TestApply_BeforeResolution(t *testing.T) {
	// An override may redirect an interpolation target.
	d := parseDoc(t, `
env:
  name: HalfCheetah-v4
replay_buffer:
  dataset: ${env.name}
`)
	o, err := ParseOverride("env.name=Walker2d-v4")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Apply([]Override{o}); err != nil {
		t.Fatal(err)
	}
	resolved, err := d.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if got := resolved.Lookup("replay_buffer.dataset").Value; got != "Walker2d-v4" {
		t.Errorf("dataset = %q, want Walker2d-v4", got)
	}
}
