package tcpwm

// Runtime control of configured counters. Block-level operations take a
// mask with one bit per counter; CounterMask builds it.

// Trigger commands (block CMD_* registers)
type Command uint8

const (
	CmdStart Command = iota
	CmdReload
	CmdStopOrKill
	CmdCaptureOrSwap
)

var commandNames = [...]string{"start", "reload", "stop", "swap"}

func (c Command) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return "command?"
}

// CounterMask returns the block-level bit for counter n.
func CounterMask(n uint32) uint32 { return 1 << n }

// Enable starts clocking counter n. The counter still waits for a start
// trigger unless its start input is level-driven.
func (b *Block) Enable(n uint32) { b.EnableMask(CounterMask(n)) }

func (b *Block) Disable(n uint32) { b.DisableMask(CounterMask(n)) }

func (b *Block) EnableMask(mask uint32)  { b.reg(TCPWM_CTRL_SET).Set(mask) }
func (b *Block) DisableMask(mask uint32) { b.reg(TCPWM_CTRL_CLR).Set(mask) }

// Enabled reports whether counter n is enabled in the block CTRL register.
func (b *Block) Enabled(n uint32) bool {
	return b.reg(TCPWM_CTRL).HasBits(CounterMask(n))
}

// Trigger issues a software trigger to every counter in mask.
func (b *Block) Trigger(cmd Command, mask uint32) {
	switch cmd {
	case CmdStart:
		b.reg(TCPWM_CMD_START).Set(mask)
	case CmdReload:
		b.reg(TCPWM_CMD_RELOAD).Set(mask)
	case CmdStopOrKill:
		b.reg(TCPWM_CMD_STOP).Set(mask)
	case CmdCaptureOrSwap:
		b.reg(TCPWM_CMD_CAPTURE).Set(mask)
	}
}

func (b *Block) TriggerStart(mask uint32)         { b.Trigger(CmdStart, mask) }
func (b *Block) TriggerReload(mask uint32)        { b.Trigger(CmdReload, mask) }
func (b *Block) TriggerStopOrKill(mask uint32)    { b.Trigger(CmdStopOrKill, mask) }
func (b *Block) TriggerCaptureOrSwap(mask uint32) { b.Trigger(CmdCaptureOrSwap, mask) }

// Status returns the raw CNT_STATUS word.
func (b *Block) Status(n uint32) uint32 { return b.cnt(n, CNT_STATUS).Get() }

// Running reports the STATUS.RUNNING bit.
func (b *Block) Running(n uint32) bool {
	return b.cnt(n, CNT_STATUS).GetField(CNT_STATUS_RUNNING) != 0
}

func (b *Block) SetCompare0(n, v uint32) { b.cnt(n, CNT_CC).Set(v) }
func (b *Block) Compare0(n uint32) uint32 { return b.cnt(n, CNT_CC).Get() }
func (b *Block) SetCompare1(n, v uint32) { b.cnt(n, CNT_CC_BUFF).Set(v) }
func (b *Block) Compare1(n uint32) uint32 { return b.cnt(n, CNT_CC_BUFF).Get() }
func (b *Block) SetPeriod0(n, v uint32)  { b.cnt(n, CNT_PERIOD).Set(v) }
func (b *Block) Period0(n uint32) uint32  { return b.cnt(n, CNT_PERIOD).Get() }
func (b *Block) SetPeriod1(n, v uint32)  { b.cnt(n, CNT_PERIOD_BUFF).Set(v) }
func (b *Block) Period1(n uint32) uint32  { return b.cnt(n, CNT_PERIOD_BUFF).Get() }
func (b *Block) SetCounter(n, v uint32)  { b.cnt(n, CNT_COUNTER).Set(v) }
func (b *Block) Counter(n uint32) uint32  { return b.cnt(n, CNT_COUNTER).Get() }

// EnableCompareSwap toggles CTRL.AUTO_RELOAD_CC.
func (b *Block) EnableCompareSwap(n uint32, enable bool) {
	b.cnt(n, CNT_CTRL).SetField(CNT_CTRL_AUTO_RELOAD_CC, boolBit(enable))
}

// EnablePeriodSwap toggles CTRL.AUTO_RELOAD_PERIOD.
func (b *Block) EnablePeriodSwap(n uint32, enable bool) {
	b.cnt(n, CNT_CTRL).SetField(CNT_CTRL_AUTO_RELOAD_PERIOD, boolBit(enable))
}

func (b *Block) InterruptStatus(n uint32) uint32 { return b.cnt(n, CNT_INTR).Get() }

// ClearInterrupt acknowledges the sources in mask. The read back makes sure
// the write reached the peripheral before returning.
func (b *Block) ClearInterrupt(n, mask uint32) {
	b.cnt(n, CNT_INTR).Set(mask)
	_ = b.cnt(n, CNT_INTR).Get()
}

// SetInterrupt raises the sources in mask by software.
func (b *Block) SetInterrupt(n, mask uint32) { b.cnt(n, CNT_INTR_SET).Set(mask) }

func (b *Block) SetInterruptMask(n, mask uint32) { b.cnt(n, CNT_INTR_MASK).Set(mask) }
func (b *Block) InterruptMask(n uint32) uint32    { return b.cnt(n, CNT_INTR_MASK).Get() }

func (b *Block) InterruptStatusMasked(n uint32) uint32 {
	return b.cnt(n, CNT_INTR_MASKED).Get()
}

// InterruptCause returns the block-level pending bit per counter.
func (b *Block) InterruptCause() uint32 { return b.reg(TCPWM_INTR_CAUSE).Get() }

// CounterState is a read-back of every counter register.
type CounterState struct {
	Ctrl       uint32
	Status     uint32
	Counter    uint32
	CC         uint32
	CCBuff     uint32
	Period     uint32
	PeriodBuff uint32
	TrCtrl0    uint32
	TrCtrl1    uint32
	TrCtrl2    uint32
	Intr       uint32
	IntrMask   uint32
}

// Snapshot reads back counter n.
func (b *Block) Snapshot(n uint32) CounterState {
	return CounterState{
		Ctrl:       b.cnt(n, CNT_CTRL).Get(),
		Status:     b.cnt(n, CNT_STATUS).Get(),
		Counter:    b.cnt(n, CNT_COUNTER).Get(),
		CC:         b.cnt(n, CNT_CC).Get(),
		CCBuff:     b.cnt(n, CNT_CC_BUFF).Get(),
		Period:     b.cnt(n, CNT_PERIOD).Get(),
		PeriodBuff: b.cnt(n, CNT_PERIOD_BUFF).Get(),
		TrCtrl0:    b.cnt(n, CNT_TR_CTRL0).Get(),
		TrCtrl1:    b.cnt(n, CNT_TR_CTRL1).Get(),
		TrCtrl2:    b.cnt(n, CNT_TR_CTRL2).Get(),
		Intr:       b.cnt(n, CNT_INTR).Get(),
		IntrMask:   b.cnt(n, CNT_INTR_MASK).Get(),
	}
}

// ResetState is what Snapshot returns for a counter fresh out of reset.
func ResetState() CounterState {
	return CounterState{
		Ctrl:       CNT_CTRL_DEFAULT,
		Counter:    CNT_COUNTER_DEFAULT,
		CC:         CNT_CC_DEFAULT,
		CCBuff:     CNT_CC_BUFF_DEFAULT,
		Period:     CNT_PERIOD_DEFAULT,
		PeriodBuff: CNT_PERIOD_BUFF_DEFAULT,
		TrCtrl0:    CNT_TR_CTRL0_DEFAULT,
		TrCtrl1:    CNT_TR_CTRL1_DEFAULT,
		TrCtrl2:    CNT_TR_CTRL2_DEFAULT,
		Intr:       CNT_INTR_DEFAULT,
		IntrMask:   CNT_INTR_MASK_DEFAULT,
	}
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
