package lvd

import (
	"testing"

	"psocpwm/syspm"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		phase  syspm.Phase
		st     syspm.Status
		resume bool
	}{
		{syspm.CheckReady, syspm.Success, false},
		{syspm.CheckFail, syspm.Success, false},
		{syspm.BeforeTransition, syspm.Success, false},
		{syspm.AfterTransition, syspm.Success, true},
		{syspm.Phase(4), syspm.Fail, false},
		{syspm.Phase(0xFF), syspm.Fail, false},
	}

	for _, tc := range testCases {
		st, resume := Resolve(tc.phase)
		if st != tc.st || resume != tc.resume {
			t.Errorf("%v: got (%v, %v), want (%v, %v)", tc.phase, st, resume, tc.st, tc.resume)
		}
	}
}

func TestDeepSleepCallbackResumesOnce(t *testing.T) {
	for p := 0; p < 8; p++ {
		calls := 0
		cb := DeepSleepCallback(func() { calls++ })
		st := cb(syspm.Phase(p))

		wantCalls := 0
		if syspm.Phase(p) == syspm.AfterTransition {
			wantCalls = 1
		}
		if calls != wantCalls {
			t.Errorf("phase %d: resume called %d times, want %d", p, calls, wantCalls)
		}
		wantSt := syspm.Success
		if p > int(syspm.AfterTransition) {
			wantSt = syspm.Fail
		}
		if st != wantSt {
			t.Errorf("phase %d: status %v, want %v", p, st, wantSt)
		}
	}

	if st := DeepSleepCallback(nil)(syspm.AfterTransition); st != syspm.Success {
		t.Errorf("nil resume: %v", st)
	}
}

func TestLVDRegisters(t *testing.T) {
	l, mem, _ := NewSim()

	l.SetThreshold(Threshold2V9)
	if l.Threshold() != Threshold2V9 {
		t.Errorf("threshold = %v", l.Threshold())
	}
	if l.Enabled() || l.Ok() {
		t.Error("detector active before Enable")
	}

	l.Enable()
	if !l.Enabled() || !l.Ok() {
		t.Errorf("enabled=%v ok=%v after Enable", l.Enabled(), l.Ok())
	}
	if got := mem.Peek(SRSS_BASE + PWR_LVD_CTL); got != 0x8D {
		t.Errorf("PWR_LVD_CTL = %#x, want 0x8d", got)
	}

	l.Disable()
	if l.Enabled() || l.Threshold() != Threshold2V9 {
		t.Errorf("Disable changed the threshold or left the detector on")
	}
}

func TestLVDInterrupt(t *testing.T) {
	l, _, setSupplyOk := NewSim()
	l.SetThreshold(Threshold3V0)
	l.SetInterruptConfig(EdgeFalling)
	l.Enable()
	l.ClearInterrupt()
	l.SetInterruptMask(true)

	setSupplyOk(true)
	if l.InterruptStatus() {
		t.Fatal("interrupt without a supply change")
	}

	setSupplyOk(false)
	if !l.InterruptStatus() || l.Ok() {
		t.Fatalf("after brownout: pending=%v ok=%v", l.InterruptStatus(), l.Ok())
	}
	l.ClearInterrupt()
	if l.InterruptStatus() {
		t.Error("interrupt still pending after clear")
	}

	// Rising edge is not selected
	setSupplyOk(true)
	if l.InterruptStatus() {
		t.Error("rising edge raised the interrupt")
	}
}

func TestDeepSleepReenables(t *testing.T) {
	l, _, _ := NewSim()
	l.Enable()

	var chain syspm.Chain
	chain.Register(l.DeepSleepCallback())

	// The comparator loses its enable across deep sleep
	st := chain.Transition(l.Disable)
	if st != syspm.Success {
		t.Fatalf("Transition = %v", st)
	}
	if !l.Enabled() {
		t.Error("detector not re-enabled after deep sleep")
	}
}

func TestThresholdNames(t *testing.T) {
	for _, s := range []string{"1.2V", "2.1V", "2.9V", "3.1V"} {
		th, err := ParseThreshold(s)
		if err != nil {
			t.Fatal(err)
		}
		if th.String() != s {
			t.Errorf("%s round trips to %s", s, th)
		}
	}
	if _, err := ParseThreshold("5V"); err == nil {
		t.Error("ParseThreshold(5V) should fail")
	}
	t.Logf("threshold 0x0D = %v (%d mV)", Threshold(0x0D), Threshold(0x0D).Millivolts())
}
