// Package tcpwm configures the PSoC 6 timer/counter/PWM block.
//
// A Block is one TCPWM instance: a set of independent counters sharing the
// block-level enable and trigger command registers. Counters are addressed
// by index; the index is not range-checked, callers own that contract.
package tcpwm

import "psocpwm/regs"

// Instance describes a TCPWM instance of the device.
type Instance struct {
	Name     string
	Base     uintptr
	Counters int
	Width    uint8 // Counter width in bits
}

// PSoC 6 TCPWM instances
var (
	TCPWM0 = Instance{Name: "TCPWM0", Base: 0x40380000, Counters: 8, Width: 32}
	TCPWM1 = Instance{Name: "TCPWM1", Base: 0x40390000, Counters: 24, Width: 16}
)

// Block is an owned view of one TCPWM instance's registers. Init and DeInit
// of a counter assume nobody else reconfigures it concurrently.
type Block struct {
	bus  regs.Bus
	inst Instance
}

// NewBlock returns the register view of inst on bus.
func NewBlock(bus regs.Bus, inst Instance) *Block {
	return &Block{bus: bus, inst: inst}
}

// Instance returns the instance description the block was created with.
func (b *Block) Instance() Instance { return b.inst }

// Counters returns the number of counters in the block.
func (b *Block) Counters() int { return b.inst.Counters }

func (b *Block) reg(off uintptr) regs.Reg {
	return regs.At(b.bus, b.inst.Base+off)
}

func (b *Block) cnt(n uint32, off uintptr) regs.Reg {
	return regs.At(b.bus, b.inst.Base+TCPWM_CNT_BASE+uintptr(n)*TCPWM_CNT_STRIDE+off)
}

// PWMInit programs counter n for PWM operation as described by cfg.
//
// It returns ErrBadParam, without touching any register, when the block or
// cfg is missing. TR_CTRL0 is left alone for creator-routed configurations.
func (b *Block) PWMInit(n uint32, cfg *PWMConfig) error {
	if b == nil || b.bus == nil || cfg == nil {
		return ErrBadParam
	}

	res := Resolve(cfg)
	b.cnt(n, CNT_CTRL).Set(res.Ctrl)
	b.cnt(n, CNT_COUNTER).Set(res.Counter)
	b.cnt(n, CNT_TR_CTRL2).Set(res.TrCtrl2)

	b.cnt(n, CNT_CC).Set(cfg.Compare0)
	b.cnt(n, CNT_CC_BUFF).Set(cfg.Compare1)
	b.cnt(n, CNT_PERIOD).Set(cfg.Period0)
	b.cnt(n, CNT_PERIOD_BUFF).Set(cfg.Period1)

	if !cfg.CreatorRouted() {
		b.cnt(n, CNT_TR_CTRL0).Set(cfg.Routing.TrCtrl0())
	}
	b.cnt(n, CNT_TR_CTRL1).Set(cfg.InputModes.TrCtrl1())

	b.cnt(n, CNT_INTR_MASK).Set(uint32(cfg.Interrupts))
	return nil
}

// PWMDeInit returns counter n to its reset state. TR_CTRL0 is only reset
// when cfg routed the inputs itself; a nil cfg counts as creator-routed.
func (b *Block) PWMDeInit(n uint32, cfg *PWMConfig) {
	if b == nil || b.bus == nil {
		return
	}
	b.cnt(n, CNT_CTRL).Set(CNT_CTRL_DEFAULT)
	b.cnt(n, CNT_COUNTER).Set(CNT_COUNTER_DEFAULT)
	b.cnt(n, CNT_CC).Set(CNT_CC_DEFAULT)
	b.cnt(n, CNT_CC_BUFF).Set(CNT_CC_BUFF_DEFAULT)
	b.cnt(n, CNT_PERIOD).Set(CNT_PERIOD_DEFAULT)
	b.cnt(n, CNT_PERIOD_BUFF).Set(CNT_PERIOD_BUFF_DEFAULT)
	b.cnt(n, CNT_TR_CTRL1).Set(CNT_TR_CTRL1_DEFAULT)
	b.cnt(n, CNT_TR_CTRL2).Set(CNT_TR_CTRL2_DEFAULT)
	b.cnt(n, CNT_INTR).Set(CNT_INTR_DEFAULT)
	b.cnt(n, CNT_INTR_SET).Set(CNT_INTR_SET_DEFAULT)
	b.cnt(n, CNT_INTR_MASK).Set(CNT_INTR_MASK_DEFAULT)

	if !cfg.CreatorRouted() {
		b.cnt(n, CNT_TR_CTRL0).Set(CNT_TR_CTRL0_DEFAULT)
	}
}

// Status is the wire form of a driver result.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusBadParam
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBadParam:
		return "bad_param"
	}
	return "unknown"
}

// StatusOf maps an error to a Status. The hardware driver only knows two
// outcomes, so every error is a bad parameter.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	return StatusBadParam
}

// ErrorOf is the inverse of StatusOf.
func ErrorOf(s Status) error {
	if s == StatusSuccess {
		return nil
	}
	return ErrBadParam
}
