package tcpwm

import (
	"errors"
	"fmt"
)

// PWMMode selects the counter function. The dead-time length and the clock
// prescaler share the CTRL.GENERIC field, so each mode carries exactly the
// value that field holds in that mode.
type PWMMode interface {
	counterMode() uint32
	generic() uint32
}

// Standard is the plain PWM function (CNT_MODE_PWM).
type Standard struct {
	Prescaler Prescaler
}

// DeadTime is PWM with complementary outputs separated by Clocks counter
// clock cycles (CNT_MODE_PWM_DT). The prescaler is not available.
type DeadTime struct {
	Clocks uint8
}

// PseudoRandom drives the output from the counter's LFSR (CNT_MODE_PWM_PR).
type PseudoRandom struct {
	Prescaler Prescaler
}

func (Standard) counterMode() uint32     { return CNT_MODE_PWM }
func (m Standard) generic() uint32       { return uint32(m.Prescaler) }
func (DeadTime) counterMode() uint32     { return CNT_MODE_PWM_DT }
func (m DeadTime) generic() uint32       { return uint32(m.Clocks) }
func (PseudoRandom) counterMode() uint32 { return CNT_MODE_PWM_PR }
func (m PseudoRandom) generic() uint32   { return uint32(m.Prescaler) }

func (m Standard) String() string     { return "pwm/" + m.Prescaler.String() }
func (m DeadTime) String() string     { return fmt.Sprintf("deadtime/%d", m.Clocks) }
func (m PseudoRandom) String() string { return "pseudorandom/" + m.Prescaler.String() }

// Prescaler divides the counter clock by 1 << value.
type Prescaler uint8

const (
	DivBy1 Prescaler = iota
	DivBy2
	DivBy4
	DivBy8
	DivBy16
	DivBy32
	DivBy64
	DivBy128
)

func (p Prescaler) String() string { return fmt.Sprintf("div%d", 1<<p) }

// Alignment is written to CTRL.UP_DOWN_MODE.
type Alignment uint8

const (
	LeftAlign Alignment = iota
	RightAlign
	CenterAlign
	AsymmetricAlign
)

var alignmentNames = [...]string{"left", "right", "center", "asymmetric"}

func (a Alignment) String() string {
	if int(a) < len(alignmentNames) {
		return alignmentNames[a]
	}
	return fmt.Sprintf("alignment(%d)", uint8(a))
}

type RunMode uint8

const (
	Continuous RunMode = iota
	OneShot
)

// KillMode is placed at CTRL bit 2 (PWM_SYNC_KILL, PWM_STOP_ON_KILL).
type KillMode uint8

const (
	AsyncKill KillMode = iota
	SyncKill
	StopOnKill
)

var killModeNames = [...]string{"async_kill", "sync_kill", "stop_on_kill"}

func (k KillMode) String() string {
	if int(k) < len(killModeNames) {
		return killModeNames[k]
	}
	return fmt.Sprintf("killmode(%d)", uint8(k))
}

// TriggerInput selects a counter input line in TR_CTRL0.
type TriggerInput uint8

const (
	Input0 TriggerInput = 0 // Tied to logic 0
	Input1 TriggerInput = 1 // Tied to logic 1
)

// Trig returns trigger multiplexer line n (0..13).
func Trig(n uint8) TriggerInput { return TriggerInput(n + 2) }

func (in TriggerInput) String() string {
	switch in {
	case Input0:
		return "input0"
	case Input1:
		return "input1"
	}
	return fmt.Sprintf("trig%d", uint8(in)-2)
}

// InputMode selects edge detection for an input line in TR_CTRL1.
type InputMode uint8

const (
	RisingEdge InputMode = iota
	FallingEdge
	BothEdges
	Level // No edge detection, the input is used as is
)

var inputModeNames = [...]string{"rising", "falling", "both", "level"}

func (m InputMode) String() string {
	if int(m) < len(inputModeNames) {
		return inputModeNames[m]
	}
	return fmt.Sprintf("inputmode(%d)", uint8(m))
}

// InterruptSource is the CNT_INTR_MASK value.
type InterruptSource uint8

const (
	IntrNone   InterruptSource = 0
	IntrTC     InterruptSource = CNT_INTR_TC
	IntrCC     InterruptSource = CNT_INTR_CC_MATCH
	IntrCCOrTC InterruptSource = CNT_INTR_TC | CNT_INTR_CC_MATCH
)

// InputRouting is the TR_CTRL0 source selection. Swap maps to the capture
// line and Kill to the stop line.
type InputRouting struct {
	Count  TriggerInput
	Swap   TriggerInput
	Reload TriggerInput
	Start  TriggerInput
	Kill   TriggerInput
}

// InputModes is the TR_CTRL1 edge selection.
type InputModes struct {
	Count  InputMode
	Swap   InputMode
	Reload InputMode
	Start  InputMode
	Kill   InputMode
}

// PWMConfig describes one counter in PWM operation.
type PWMConfig struct {
	Mode      PWMMode
	Alignment Alignment
	RunMode   RunMode

	CompareSwap bool // Swap CC/CC_BUFF on every compare event
	PeriodSwap  bool // Swap PERIOD/PERIOD_BUFF on every terminal count
	InvertOut   bool
	InvertOutN  bool
	KillMode    KillMode

	Compare0 uint32
	Compare1 uint32
	Period0  uint32
	Period1  uint32

	// Routing nil means the inputs were routed elsewhere (creator-routed
	// designs): TR_CTRL0 is neither written by PWMInit nor reset by PWMDeInit.
	Routing    *InputRouting
	InputModes InputModes
	Interrupts InterruptSource
}

// CreatorRouted reports whether TR_CTRL0 is owned by someone else.
func (c *PWMConfig) CreatorRouted() bool {
	return c == nil || c.Routing == nil
}

var (
	ErrBadParam      = errors.New("tcpwm: bad parameter")
	ErrInvalidConfig = errors.New("tcpwm: invalid configuration")
)

// Validate range-checks every field against its register width. PWMInit does
// not call it; hardware accepts any bit pattern.
func (c *PWMConfig) Validate() error {
	if c == nil {
		return ErrBadParam
	}
	invalid := func(field string, v any) error {
		return fmt.Errorf("%w: %s=%v", ErrInvalidConfig, field, v)
	}

	switch m := c.Mode.(type) {
	case Standard:
		if m.Prescaler > DivBy128 {
			return invalid("prescaler", uint8(m.Prescaler))
		}
	case PseudoRandom:
		if m.Prescaler > DivBy128 {
			return invalid("prescaler", uint8(m.Prescaler))
		}
	case DeadTime:
	case nil:
		return invalid("mode", "none")
	default:
		return invalid("mode", m)
	}

	if c.Alignment > AsymmetricAlign {
		return invalid("alignment", uint8(c.Alignment))
	}
	if c.RunMode > OneShot {
		return invalid("run_mode", uint8(c.RunMode))
	}
	if c.KillMode > StopOnKill {
		return invalid("kill_mode", uint8(c.KillMode))
	}
	if c.Interrupts > IntrCCOrTC {
		return invalid("interrupts", uint8(c.Interrupts))
	}
	if r := c.Routing; r != nil {
		for _, in := range []struct {
			name string
			sel  TriggerInput
		}{{"count", r.Count}, {"swap", r.Swap}, {"reload", r.Reload}, {"start", r.Start}, {"kill", r.Kill}} {
			if in.sel > Trig(13) {
				return invalid(in.name+"_input", uint8(in.sel))
			}
		}
	}
	m := c.InputModes
	for _, in := range []struct {
		name string
		mode InputMode
	}{{"count", m.Count}, {"swap", m.Swap}, {"reload", m.Reload}, {"start", m.Start}, {"kill", m.Kill}} {
		if in.mode > Level {
			return invalid(in.name+"_input_mode", uint8(in.mode))
		}
	}
	return nil
}
