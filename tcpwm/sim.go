package tcpwm

import (
	"fmt"

	"psocpwm/regs"
)

// NewSimBlock returns a Block backed by an in-memory register file that
// behaves like the peripheral for everything software can observe without a
// running clock: enable set/clear registers, trigger commands, write-one-to-
// clear interrupts and the masked interrupt views. Counters do not count.
func NewSimBlock(inst Instance) (*Block, *regs.Memory) {
	mem := regs.NewMemory()
	base := inst.Base

	ctrl := mem.Map(base+TCPWM_CTRL, inst.Name+".CTRL", 0)
	set := mem.Map(base+TCPWM_CTRL_SET, inst.Name+".CTRL_SET", 0)
	set.ReadCb = func(uint32) uint32 { return ctrl.Value }
	set.WriteCb = func(_, val uint32) uint32 {
		ctrl.Value |= val
		return 0
	}
	clr := mem.Map(base+TCPWM_CTRL_CLR, inst.Name+".CTRL_CLR", 0)
	clr.ReadCb = func(uint32) uint32 { return ctrl.Value }
	clr.WriteCb = func(_, val uint32) uint32 {
		ctrl.Value &^= val
		return 0
	}

	type simCounter struct {
		ctrl, status, counter, cc, ccBuff *regs.Register
		period, periodBuff                *regs.Register
		intr, mask                        *regs.Register
	}
	counters := make([]simCounter, inst.Counters)

	for n := range counters {
		cbase := base + TCPWM_CNT_BASE + uintptr(n)*TCPWM_CNT_STRIDE
		byOff := make(map[uintptr]*regs.Register, len(counterRegs))
		for _, r := range counterRegs {
			reset := r.Reset
			if r.Offset == CNT_INTR {
				// Nothing is pending out of reset; the documented default
				// is the value that clears both sources.
				reset = 0
			}
			byOff[r.Offset] = mem.Map(cbase+r.Offset, fmt.Sprintf("%s.CNT%d.%s", inst.Name, n, r.Name), reset)
		}
		c := simCounter{
			ctrl:       byOff[CNT_CTRL],
			status:     byOff[CNT_STATUS],
			counter:    byOff[CNT_COUNTER],
			cc:         byOff[CNT_CC],
			ccBuff:     byOff[CNT_CC_BUFF],
			period:     byOff[CNT_PERIOD],
			periodBuff: byOff[CNT_PERIOD_BUFF],
			intr:       byOff[CNT_INTR],
			mask:       byOff[CNT_INTR_MASK],
		}
		counters[n] = c

		c.status.WriteCb = func(old, _ uint32) uint32 { return old }
		c.intr.WriteCb = func(old, val uint32) uint32 { return old &^ val }
		byOff[CNT_INTR_SET].WriteCb = func(_, val uint32) uint32 {
			c.intr.Value |= val & (CNT_INTR_TC | CNT_INTR_CC_MATCH)
			return 0
		}
		masked := byOff[CNT_INTR_MASKED]
		masked.ReadCb = func(uint32) uint32 { return c.intr.Value & c.mask.Value }
		masked.WriteCb = func(old, _ uint32) uint32 { return old }
	}

	forEach := func(mask uint32, fn func(c simCounter)) {
		for n := range counters {
			if mask&CounterMask(uint32(n)) != 0 && ctrl.Value&CounterMask(uint32(n)) != 0 {
				fn(counters[n])
			}
		}
	}
	command := func(off uintptr, fn func(c simCounter)) {
		r := mem.Map(base+off, fmt.Sprintf("%s.%s", inst.Name, commandRegName(off)), 0)
		r.WriteCb = func(_, val uint32) uint32 {
			forEach(val, fn)
			return 0
		}
	}
	command(TCPWM_CMD_START, func(c simCounter) {
		c.status.Value |= CNT_STATUS_RUNNING.Mask()
	})
	command(TCPWM_CMD_STOP, func(c simCounter) {
		c.status.Value &^= CNT_STATUS_RUNNING.Mask()
	})
	command(TCPWM_CMD_RELOAD, func(c simCounter) {
		c.status.Value |= CNT_STATUS_RUNNING.Mask()
		if CNT_CTRL_UP_DOWN_MODE.Get(c.ctrl.Value) == uint32(RightAlign) {
			c.counter.Value = c.period.Value
		} else {
			c.counter.Value = CNT_UP_INIT_VAL
		}
	})
	command(TCPWM_CMD_CAPTURE, func(c simCounter) {
		if CNT_CTRL_AUTO_RELOAD_CC.Get(c.ctrl.Value) != 0 {
			c.cc.Value, c.ccBuff.Value = c.ccBuff.Value, c.cc.Value
		}
		if CNT_CTRL_AUTO_RELOAD_PERIOD.Get(c.ctrl.Value) != 0 {
			c.period.Value, c.periodBuff.Value = c.periodBuff.Value, c.period.Value
		}
	})

	cause := mem.Map(base+TCPWM_INTR_CAUSE, inst.Name+".INTR_CAUSE", 0)
	cause.ReadCb = func(uint32) uint32 {
		var v uint32
		for n, c := range counters {
			if c.intr.Value&c.mask.Value != 0 {
				v |= CounterMask(uint32(n))
			}
		}
		return v
	}
	cause.WriteCb = func(old, _ uint32) uint32 { return old }

	return NewBlock(mem, inst), mem
}

func commandRegName(off uintptr) string {
	switch off {
	case TCPWM_CMD_CAPTURE:
		return "CMD_CAPTURE"
	case TCPWM_CMD_RELOAD:
		return "CMD_RELOAD"
	case TCPWM_CMD_STOP:
		return "CMD_STOP"
	case TCPWM_CMD_START:
		return "CMD_START"
	}
	return fmt.Sprintf("%02x", off)
}
