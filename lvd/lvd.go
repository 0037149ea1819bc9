// Package lvd drives the high-voltage low-voltage-detect comparator (HVLVD1)
// of the PSoC 6 SRSS block and provides its deep-sleep callback.
package lvd

import (
	"fmt"

	"psocpwm/regs"
	"psocpwm/syspm"
)

// SRSS base address on PSoC 6
const SRSS_BASE = 0x40260000

// Register offsets, relative to SRSS_BASE
const (
	PWR_LVD_CTL    = 0x014 // LVD configuration
	PWR_LVD_STATUS = 0x01C // Comparator output (read only)
	SRSS_INTR_CFG  = 0x0A8 // Interrupt edge selection
	SRSS_INTR      = 0x200 // Interrupt request (write 1 to clear)
	SRSS_INTR_SET  = 0x204 // Interrupt set request
	SRSS_INTR_MASK = 0x208 // Interrupt mask
)

var (
	PWR_LVD_CTL_HVLVD1_TRIPSEL = regs.Field{Pos: 0, Width: 4} // Trip voltage
	PWR_LVD_CTL_HVLVD1_SRCSEL  = regs.Field{Pos: 4, Width: 3} // Monitored supply, 0 = VDDD
	PWR_LVD_CTL_HVLVD1_EN      = regs.Bit(7)
	PWR_LVD_STATUS_HVLVD1_OK   = regs.Bit(0)                  // Supply above threshold
	SRSS_INTR_HVLVD1           = regs.Bit(1)
	SRSS_INTR_CFG_HVLVD1_EDGE  = regs.Field{Pos: 0, Width: 2} // Edge that raises HVLVD1
)

// Threshold is the trip voltage selection (PWR_LVD_CTL.HVLVD1_TRIPSEL).
type Threshold uint8

const (
	Threshold1V2 Threshold = iota
	Threshold1V4
	Threshold1V6
	Threshold1V8
	Threshold2V0
	Threshold2V1
	Threshold2V2
	Threshold2V3
	Threshold2V4
	Threshold2V5
	Threshold2V6
	Threshold2V7
	Threshold2V8
	Threshold2V9
	Threshold3V0
	Threshold3V1
)

var thresholdMillivolts = [...]uint16{
	1200, 1400, 1600, 1800, 2000, 2100, 2200, 2300,
	2400, 2500, 2600, 2700, 2800, 2900, 3000, 3100,
}

// Millivolts returns the trip voltage, or 0 for an invalid selection.
func (t Threshold) Millivolts() uint16 {
	if int(t) < len(thresholdMillivolts) {
		return thresholdMillivolts[t]
	}
	return 0
}

func (t Threshold) String() string {
	mv := t.Millivolts()
	if mv == 0 {
		return fmt.Sprintf("threshold(%d)", uint8(t))
	}
	return fmt.Sprintf("%d.%dV", mv/1000, mv%1000/100)
}

// ParseThreshold accepts the String form, e.g. "2.9V".
func ParseThreshold(s string) (Threshold, error) {
	for i := range thresholdMillivolts {
		if t := Threshold(i); t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("lvd: unknown threshold %q", s)
}

// Edge selects which comparator transitions raise the interrupt.
type Edge uint8

const (
	EdgeDisable Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// LVD is the register view of the detector.
type LVD struct {
	bus  regs.Bus
	base uintptr
}

// New returns the detector at SRSS base on bus.
func New(bus regs.Bus, base uintptr) *LVD {
	return &LVD{bus: bus, base: base}
}

func (l *LVD) reg(off uintptr) regs.Reg { return regs.At(l.bus, l.base+off) }

// Enable turns the comparator on. Its output needs about 20us to settle, so
// the interrupt should be cleared afterwards before it is unmasked.
func (l *LVD) Enable() { l.reg(PWR_LVD_CTL).SetBits(PWR_LVD_CTL_HVLVD1_EN.Mask()) }

func (l *LVD) Disable() { l.reg(PWR_LVD_CTL).ClearBits(PWR_LVD_CTL_HVLVD1_EN.Mask()) }

func (l *LVD) Enabled() bool { return l.reg(PWR_LVD_CTL).HasBits(PWR_LVD_CTL_HVLVD1_EN.Mask()) }

// SetThreshold selects the trip voltage. Change it only while disabled, the
// comparator may glitch otherwise.
func (l *LVD) SetThreshold(t Threshold) {
	l.reg(PWR_LVD_CTL).SetField(PWR_LVD_CTL_HVLVD1_TRIPSEL, uint32(t))
}

func (l *LVD) Threshold() Threshold {
	return Threshold(l.reg(PWR_LVD_CTL).GetField(PWR_LVD_CTL_HVLVD1_TRIPSEL))
}

// Ok reports whether the supply is above the threshold.
func (l *LVD) Ok() bool {
	return l.reg(PWR_LVD_STATUS).GetField(PWR_LVD_STATUS_HVLVD1_OK) != 0
}

func (l *LVD) SetInterruptConfig(e Edge) {
	l.reg(SRSS_INTR_CFG).SetField(SRSS_INTR_CFG_HVLVD1_EDGE, uint32(e))
}

// ClearInterrupt acknowledges a pending LVD interrupt.
func (l *LVD) ClearInterrupt() {
	l.reg(SRSS_INTR).Set(SRSS_INTR_HVLVD1.Mask())
	_ = l.reg(SRSS_INTR).Get()
}

func (l *LVD) SetInterrupt() { l.reg(SRSS_INTR_SET).Set(SRSS_INTR_HVLVD1.Mask()) }

func (l *LVD) SetInterruptMask(enable bool) {
	if enable {
		l.reg(SRSS_INTR_MASK).SetBits(SRSS_INTR_HVLVD1.Mask())
	} else {
		l.reg(SRSS_INTR_MASK).ClearBits(SRSS_INTR_HVLVD1.Mask())
	}
}

// InterruptStatus reports a pending LVD interrupt, masked or not.
func (l *LVD) InterruptStatus() bool {
	return l.reg(SRSS_INTR).HasBits(SRSS_INTR_HVLVD1.Mask())
}

// Resolve maps a transition phase to the callback outcome and whether the
// detector has to be re-enabled. The comparator is powered down in deep
// sleep and must be turned on again once the system is back.
func Resolve(p syspm.Phase) (st syspm.Status, resume bool) {
	switch p {
	case syspm.CheckReady, syspm.CheckFail, syspm.BeforeTransition:
		return syspm.Success, false
	case syspm.AfterTransition:
		return syspm.Success, true
	}
	return syspm.Fail, false
}

// DeepSleepCallback returns a callback running resume on every
// AfterTransition and doing nothing for the other phases.
func DeepSleepCallback(resume func()) syspm.Callback {
	return func(p syspm.Phase) syspm.Status {
		st, run := Resolve(p)
		if run && resume != nil {
			resume()
		}
		return st
	}
}

// DeepSleepCallback is the deep-sleep callback re-enabling l.
func (l *LVD) DeepSleepCallback() syspm.Callback {
	return DeepSleepCallback(l.Enable)
}
