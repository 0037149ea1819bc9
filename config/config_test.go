package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"psocpwm/lvd"
	"psocpwm/tcpwm"
)

const sample = `
[lvd]
threshold = "2.9V"
enable = true

[[counter]]
index = 0
mode = "pwm"
prescaler = 4
alignment = "center"
compare0 = 500
period0 = 999
kill_mode = "stop_on_kill"
interrupts = "tc"
[counter.routing]
count = "input1"
start = "trig3"
[counter.edges]
start = "rising"

[[counter]]
index = 3
mode = "deadtime"
dead_time = 12
invert_out_n = true
compare0 = 100
period0 = 200
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	want := &Config{
		LVD: &LVD{Threshold: lvd.Threshold2V9, Enable: true},
		Counters: []Counter{
			{Index: 0, PWM: tcpwm.PWMConfig{
				Mode:      tcpwm.Standard{Prescaler: tcpwm.DivBy4},
				Alignment: tcpwm.CenterAlign,
				KillMode:  tcpwm.StopOnKill,
				Compare0:  500,
				Period0:   999,
				Routing: &tcpwm.InputRouting{
					Count: tcpwm.Input1,
					Start: tcpwm.Trig(3),
				},
				InputModes: tcpwm.InputModes{
					Count: tcpwm.Level, Swap: tcpwm.Level, Reload: tcpwm.Level,
					Start: tcpwm.RisingEdge, Kill: tcpwm.Level,
				},
				Interrupts: tcpwm.IntrTC,
			}},
			{Index: 3, PWM: tcpwm.PWMConfig{
				Mode:       tcpwm.DeadTime{Clocks: 12},
				InvertOutN: true,
				Compare0:   100,
				Period0:    200,
				InputModes: tcpwm.InputModes{
					Count: tcpwm.Level, Swap: tcpwm.Level, Reload: tcpwm.Level,
					Start: tcpwm.Level, Kill: tcpwm.Level,
				},
			}},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse (-want +got):\n%s", diff)
	}
	if !cfg.Counters[1].PWM.CreatorRouted() {
		t.Error("counter without routing table should be creator routed")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "[[counter]]\nindex = 1\nfrequency = 5\n", "counter.frequency"},
		{"mode", "[[counter]]\nmode = \"servo\"\n", `mode: unknown value "servo"`},
		{"alignment", "[[counter]]\nalignment = \"up\"\n", "alignment"},
		{"prescaler", "[[counter]]\nprescaler = 3\n", "prescaler 3"},
		{"dead time", "[[counter]]\nmode = \"deadtime\"\ndead_time = 300\n", "dead_time 300"},
		{"trigger", "[[counter]]\n[counter.routing]\nstart = \"trig14\"\n", "routing.start"},
		{"edge", "[[counter]]\n[counter.edges]\nkill = \"up\"\n", "edges.kill"},
		{"duplicate", "[[counter]]\nindex = 2\n[[counter]]\nindex = 2\n", "configured twice"},
		{"index", "[[counter]]\nindex = 256\n", "counter index 256"},
		{"threshold", "[lvd]\nthreshold = \"5V\"\n", "lvd.threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("got %v, want ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse([]byte("[[counter]\n")); err == nil {
		t.Error("malformed TOML accepted")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pwm.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Counters) != 2 || cfg.LVD == nil {
		t.Errorf("loaded %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestParseTriggerInput(t *testing.T) {
	for s, want := range map[string]tcpwm.TriggerInput{
		"input0": tcpwm.Input0,
		"input1": tcpwm.Input1,
		"trig0":  tcpwm.Trig(0),
		"trig13": tcpwm.Trig(13),
	} {
		got, err := ParseTriggerInput(s)
		if err != nil || got != want {
			t.Errorf("ParseTriggerInput(%q) = %v, %v", s, got, err)
		}
		if got.String() != s {
			t.Errorf("%q formats back as %q", s, got)
		}
	}
	for _, s := range []string{"", "trig", "trig-1", "trig14", "input2"} {
		if _, err := ParseTriggerInput(s); err == nil {
			t.Errorf("ParseTriggerInput(%q) accepted", s)
		}
	}
}
