// Package config reads TOML descriptions of TCPWM counters and LVD settings
// and turns them into validated driver configurations.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/Sirupsen/logrus.v0"

	"psocpwm/lvd"
	"psocpwm/tcpwm"
)

var ErrConfig = errors.New("config: invalid")

// File is the TOML document.
type File struct {
	LVD      *LVDSection      `toml:"lvd"`
	Counters []CounterSection `toml:"counter"`
}

type LVDSection struct {
	Threshold string `toml:"threshold"`
	Enable    bool   `toml:"enable"`
}

type CounterSection struct {
	Index     int    `toml:"index"`
	Mode      string `toml:"mode"`
	Prescaler int    `toml:"prescaler"`
	DeadTime  int    `toml:"dead_time"`
	Alignment string `toml:"alignment"`
	RunMode   string `toml:"run_mode"`
	KillMode  string `toml:"kill_mode"`

	CompareSwap bool `toml:"compare_swap"`
	PeriodSwap  bool `toml:"period_swap"`
	InvertOut   bool `toml:"invert_out"`
	InvertOutN  bool `toml:"invert_out_n"`

	Compare0 uint32 `toml:"compare0"`
	Compare1 uint32 `toml:"compare1"`
	Period0  uint32 `toml:"period0"`
	Period1  uint32 `toml:"period1"`

	Interrupts string `toml:"interrupts"`

	// Omitting the routing table leaves the inputs to whoever routed them
	Routing *InputsSection `toml:"routing"`
	Edges   InputsSection  `toml:"edges"`
}

// InputsSection names a value per counter input, for both the routing and
// the edges tables.
type InputsSection struct {
	Count  string `toml:"count"`
	Swap   string `toml:"swap"`
	Reload string `toml:"reload"`
	Start  string `toml:"start"`
	Kill   string `toml:"kill"`
}

// Config is the validated form of a File.
type Config struct {
	LVD      *LVD
	Counters []Counter
}

type LVD struct {
	Threshold lvd.Threshold
	Enable    bool
}

type Counter struct {
	Index uint8
	PWM   tcpwm.PWMConfig
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := undecoded(md); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return f.Build()
}

// Parse reads and validates a TOML document.
func Parse(data []byte) (*Config, error) {
	var f File
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := undecoded(md); err != nil {
		return nil, err
	}
	return f.Build()
}

func undecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("%w: unknown keys %s", ErrConfig, strings.Join(names, ", "))
}

// Build converts f, applying defaults and checking every counter.
func (f *File) Build() (*Config, error) {
	cfg := &Config{}
	if f.LVD != nil {
		th := f.LVD.Threshold
		if th == "" {
			th = "2.9V"
		}
		t, err := lvd.ParseThreshold(th)
		if err != nil {
			return nil, fmt.Errorf("%w: lvd.threshold: %v", ErrConfig, err)
		}
		cfg.LVD = &LVD{Threshold: t, Enable: f.LVD.Enable}
	}

	seen := make(map[int]bool)
	for i := range f.Counters {
		s := &f.Counters[i]
		if s.Index < 0 || s.Index > 255 {
			return nil, fmt.Errorf("%w: counter index %d", ErrConfig, s.Index)
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("%w: counter %d configured twice", ErrConfig, s.Index)
		}
		seen[s.Index] = true

		pwm, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("counter %d: %w", s.Index, err)
		}
		if err := pwm.Validate(); err != nil {
			return nil, fmt.Errorf("counter %d: %w", s.Index, err)
		}
		cfg.Counters = append(cfg.Counters, Counter{Index: uint8(s.Index), PWM: *pwm})
	}
	return cfg, nil
}

func (s *CounterSection) build() (*tcpwm.PWMConfig, error) {
	log := logrus.WithField("cnt", s.Index)
	cfg := &tcpwm.PWMConfig{
		CompareSwap: s.CompareSwap,
		PeriodSwap:  s.PeriodSwap,
		InvertOut:   s.InvertOut,
		InvertOutN:  s.InvertOutN,
		Compare0:    s.Compare0,
		Compare1:    s.Compare1,
		Period0:     s.Period0,
		Period1:     s.Period1,
	}

	switch mode := orDefault(s.Mode, "pwm"); mode {
	case "pwm", "pseudorandom":
		p, err := ParsePrescaler(s.Prescaler)
		if err != nil {
			return nil, err
		}
		if s.DeadTime != 0 {
			log.Warnf("dead_time ignored in %s mode", mode)
		}
		if mode == "pwm" {
			cfg.Mode = tcpwm.Standard{Prescaler: p}
		} else {
			cfg.Mode = tcpwm.PseudoRandom{Prescaler: p}
		}
	case "deadtime":
		if s.DeadTime < 0 || s.DeadTime > 255 {
			return nil, fmt.Errorf("%w: dead_time %d out of range 0..255", ErrConfig, s.DeadTime)
		}
		if s.Prescaler > 1 {
			log.Warn("prescaler ignored in deadtime mode")
		}
		cfg.Mode = tcpwm.DeadTime{Clocks: uint8(s.DeadTime)}
	default:
		return nil, unknown("mode", mode)
	}

	var err error
	if cfg.Alignment, err = lookup("alignment", orDefault(s.Alignment, "left"), alignments); err != nil {
		return nil, err
	}
	if cfg.RunMode, err = lookup("run_mode", orDefault(s.RunMode, "continuous"), runModes); err != nil {
		return nil, err
	}
	if cfg.KillMode, err = lookup("kill_mode", orDefault(s.KillMode, "async_kill"), killModes); err != nil {
		return nil, err
	}
	if cfg.Interrupts, err = lookup("interrupts", orDefault(s.Interrupts, "none"), interrupts); err != nil {
		return nil, err
	}

	if r := s.Routing; r != nil {
		routing := tcpwm.InputRouting{}
		for _, in := range []struct {
			name string
			val  string
			def  string
			dst  *tcpwm.TriggerInput
		}{
			{"count", r.Count, "input1", &routing.Count},
			{"swap", r.Swap, "input0", &routing.Swap},
			{"reload", r.Reload, "input0", &routing.Reload},
			{"start", r.Start, "input0", &routing.Start},
			{"kill", r.Kill, "input0", &routing.Kill},
		} {
			if *in.dst, err = ParseTriggerInput(orDefault(in.val, in.def)); err != nil {
				return nil, fmt.Errorf("routing.%s: %w", in.name, err)
			}
		}
		cfg.Routing = &routing
	}

	e := s.Edges
	for _, in := range []struct {
		name string
		val  string
		dst  *tcpwm.InputMode
	}{
		{"count", e.Count, &cfg.InputModes.Count},
		{"swap", e.Swap, &cfg.InputModes.Swap},
		{"reload", e.Reload, &cfg.InputModes.Reload},
		{"start", e.Start, &cfg.InputModes.Start},
		{"kill", e.Kill, &cfg.InputModes.Kill},
	} {
		if *in.dst, err = lookup("edges."+in.name, orDefault(in.val, "level"), inputModes); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

var (
	alignments = map[string]tcpwm.Alignment{
		"left": tcpwm.LeftAlign, "right": tcpwm.RightAlign,
		"center": tcpwm.CenterAlign, "asymmetric": tcpwm.AsymmetricAlign,
	}
	runModes = map[string]tcpwm.RunMode{
		"continuous": tcpwm.Continuous, "oneshot": tcpwm.OneShot,
	}
	killModes = map[string]tcpwm.KillMode{
		"async_kill": tcpwm.AsyncKill, "sync_kill": tcpwm.SyncKill, "stop_on_kill": tcpwm.StopOnKill,
	}
	interrupts = map[string]tcpwm.InterruptSource{
		"none": tcpwm.IntrNone, "tc": tcpwm.IntrTC, "cc": tcpwm.IntrCC, "cc_or_tc": tcpwm.IntrCCOrTC,
	}
	inputModes = map[string]tcpwm.InputMode{
		"rising": tcpwm.RisingEdge, "falling": tcpwm.FallingEdge, "both": tcpwm.BothEdges, "level": tcpwm.Level,
	}
)

func lookup[V any](field, name string, values map[string]V) (V, error) {
	v, ok := values[name]
	if !ok {
		return v, unknown(field, name)
	}
	return v, nil
}

func unknown(field, name string) error {
	return fmt.Errorf("%w: %s: unknown value %q", ErrConfig, field, name)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ParsePrescaler converts a clock divider (1, 2, 4 .. 128) to its field
// value. Zero means undivided.
func ParsePrescaler(div int) (tcpwm.Prescaler, error) {
	if div == 0 {
		div = 1
	}
	for p := tcpwm.DivBy1; p <= tcpwm.DivBy128; p++ {
		if 1<<p == div {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: prescaler %d is not a power of two up to 128", ErrConfig, div)
}

// ParseTriggerInput accepts input0, input1 and trig0..trig13.
func ParseTriggerInput(s string) (tcpwm.TriggerInput, error) {
	switch s {
	case "input0":
		return tcpwm.Input0, nil
	case "input1":
		return tcpwm.Input1, nil
	}
	if n, ok := strings.CutPrefix(s, "trig"); ok {
		if v, err := strconv.ParseUint(n, 10, 8); err == nil && v <= 13 {
			return tcpwm.Trig(uint8(v)), nil
		}
	}
	return 0, unknown("trigger input", s)
}
