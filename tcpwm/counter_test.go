package tcpwm

import "testing"

func TestEnableDisable(t *testing.T) {
	b, _ := NewSimBlock(TCPWM0)

	b.Enable(1)
	b.EnableMask(CounterMask(4) | CounterMask(5))
	for _, n := range []uint32{1, 4, 5} {
		if !b.Enabled(n) {
			t.Errorf("counter %d not enabled", n)
		}
	}
	if b.Enabled(0) {
		t.Error("counter 0 enabled without being asked")
	}

	b.Disable(4)
	if b.Enabled(4) || !b.Enabled(5) {
		t.Errorf("after Disable(4): ctrl=%#x", b.reg(TCPWM_CTRL).Get())
	}
}

func TestTriggerCommands(t *testing.T) {
	b, _ := NewSimBlock(TCPWM0)
	cfg := &PWMConfig{
		Mode:        Standard{},
		Alignment:   RightAlign,
		CompareSwap: true,
		PeriodSwap:  true,
		Compare0:    10,
		Compare1:    20,
		Period0:     100,
		Period1:     200,
	}
	if err := b.PWMInit(2, cfg); err != nil {
		t.Fatal(err)
	}

	// Commands only reach enabled counters
	b.TriggerStart(CounterMask(2))
	if b.Running(2) {
		t.Fatal("disabled counter started")
	}

	b.Enable(2)
	b.TriggerStart(CounterMask(2))
	if !b.Running(2) {
		t.Fatal("counter not running after start")
	}

	b.TriggerCaptureOrSwap(CounterMask(2))
	if b.Compare0(2) != 20 || b.Compare1(2) != 10 {
		t.Errorf("compare after swap = %d/%d, want 20/10", b.Compare0(2), b.Compare1(2))
	}
	if b.Period0(2) != 200 || b.Period1(2) != 100 {
		t.Errorf("period after swap = %d/%d, want 200/100", b.Period0(2), b.Period1(2))
	}

	b.TriggerStopOrKill(CounterMask(2))
	if b.Running(2) {
		t.Error("counter running after stop")
	}

	b.SetCounter(2, 42)
	b.TriggerReload(CounterMask(2))
	if !b.Running(2) || b.Counter(2) != 200 {
		t.Errorf("after reload: running=%v counter=%d", b.Running(2), b.Counter(2))
	}
}

func TestSwapDisabled(t *testing.T) {
	b, _ := NewSimBlock(TCPWM1)
	cfg := &PWMConfig{Mode: Standard{}, Compare0: 1, Compare1: 2, Period0: 3, Period1: 4}
	if err := b.PWMInit(17, cfg); err != nil {
		t.Fatal(err)
	}
	b.Enable(17)
	b.Trigger(CmdCaptureOrSwap, CounterMask(17))
	if b.Compare0(17) != 1 || b.Period0(17) != 3 {
		t.Errorf("buffers swapped without auto reload: cc=%d period=%d", b.Compare0(17), b.Period0(17))
	}

	b.EnableCompareSwap(17, true)
	b.Trigger(CmdCaptureOrSwap, CounterMask(17))
	if b.Compare0(17) != 2 || b.Period0(17) != 3 {
		t.Errorf("cc=%d period=%d, want 2/3", b.Compare0(17), b.Period0(17))
	}
}

func TestInterrupts(t *testing.T) {
	b, _ := NewSimBlock(TCPWM0)

	if got := b.InterruptStatus(3); got != 0 {
		t.Fatalf("pending out of reset: %#x", got)
	}

	b.SetInterruptMask(3, CNT_INTR_CC_MATCH)
	b.SetInterrupt(3, CNT_INTR_TC|CNT_INTR_CC_MATCH)

	if got := b.InterruptStatus(3); got != CNT_INTR_TC|CNT_INTR_CC_MATCH {
		t.Errorf("INTR = %#x", got)
	}
	if got := b.InterruptStatusMasked(3); got != CNT_INTR_CC_MATCH {
		t.Errorf("INTR_MASKED = %#x", got)
	}
	if got := b.InterruptCause(); got != CounterMask(3) {
		t.Errorf("INTR_CAUSE = %#x", got)
	}

	b.ClearInterrupt(3, CNT_INTR_CC_MATCH)
	if got := b.InterruptStatus(3); got != CNT_INTR_TC {
		t.Errorf("INTR after clear = %#x, want TC only", got)
	}
	if got := b.InterruptCause(); got != 0 {
		t.Errorf("INTR_CAUSE after clear = %#x", got)
	}
}

func TestStatusIsReadOnly(t *testing.T) {
	b, mem := NewSimBlock(TCPWM0)
	b.Enable(0)
	b.TriggerStart(CounterMask(0))

	mem.Store(b.cnt(0, CNT_STATUS).Addr(), 0)
	if !b.Running(0) {
		t.Error("write to STATUS cleared RUNNING")
	}
}

func TestDeInitClearsPending(t *testing.T) {
	b, _ := NewSimBlock(TCPWM0)
	cfg := &PWMConfig{Mode: Standard{}, Interrupts: IntrCCOrTC}
	if err := b.PWMInit(6, cfg); err != nil {
		t.Fatal(err)
	}
	b.SetInterrupt(6, CNT_INTR_TC)

	b.PWMDeInit(6, cfg)

	s := b.Snapshot(6)
	if s.Intr != 0 || s.IntrMask != CNT_INTR_MASK_DEFAULT {
		t.Errorf("after DeInit intr=%#x mask=%#x", s.Intr, s.IntrMask)
	}
	t.Logf("counter 6 after DeInit: %+v", s)
}

func TestCommandString(t *testing.T) {
	for cmd, want := range map[Command]string{
		CmdStart:         "start",
		CmdReload:        "reload",
		CmdStopOrKill:    "stop",
		CmdCaptureOrSwap: "swap",
		Command(9):       "command?",
	} {
		if got := cmd.String(); got != want {
			t.Errorf("Command(%d) = %q, want %q", cmd, got, want)
		}
	}
}
