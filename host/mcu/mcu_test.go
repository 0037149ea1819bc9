package mcu_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"psocpwm/core"
	"psocpwm/host/mcu"
	"psocpwm/host/sim"
	"psocpwm/lvd"
	"psocpwm/syspm"
	"psocpwm/tcpwm"
)

func connect(t *testing.T) (*mcu.MCU, *sim.Loopback) {
	t.Helper()
	port := sim.New(tcpwm.TCPWM1)
	m := mcu.ConnectPort(port)
	m.Timeout = 2 * time.Second
	t.Cleanup(func() { m.Close() })

	if err := m.RetrieveDictionary(); err != nil {
		t.Fatal(err)
	}
	return m, port
}

func TestRetrieveDictionary(t *testing.T) {
	m, _ := connect(t)

	dict := m.GetDictionary()
	t.Logf("dictionary %s: %d commands, %d responses", dict.Version, len(dict.Commands), len(dict.Responses))
	if dict.Commands["identify offset=%u count=%c"] != 1 {
		t.Errorf("identify not at id 1: %v", dict.Commands)
	}
	for name, want := range map[string]string{"MCU": "psoc6-sim", "TCPWM_COUNTERS": "24", "TCPWM_COUNTER_WIDTH": "16"} {
		if got, _ := m.Constant(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if v, ok := m.Enumeration("tcpwm_cmd", "reload"); !ok || v != uint32(tcpwm.CmdReload) {
		t.Errorf("tcpwm_cmd reload = %d, %v", v, ok)
	}
}

func TestApplyAndQuery(t *testing.T) {
	m, port := connect(t)
	cfg := &tcpwm.PWMConfig{
		Mode:      tcpwm.PseudoRandom{Prescaler: tcpwm.DivBy2},
		Alignment: tcpwm.LeftAlign,
		Compare0:  0x1234,
		Period0:   0xFFFF,
		Routing:   &tcpwm.InputRouting{Count: tcpwm.Input1, Start: tcpwm.Trig(7)},
	}
	if err := m.ApplyPWM(17, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := m.CounterState(17)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(port.Block.Snapshot(17), got); diff != "" {
		t.Errorf("CounterState (-sim +wire):\n%s", diff)
	}

	if err := m.EnableCounter(17, true); err != nil {
		t.Fatal(err)
	}
	if err := m.Trigger(17, tcpwm.CmdStart); err != nil {
		t.Fatal(err)
	}
	if err := m.SetRegister(17, core.TCPWMRegCompare1, 99); err != nil {
		t.Fatal(err)
	}
	if !port.Block.Running(17) || port.Block.Compare1(17) != 99 {
		t.Errorf("counter 17: running %v, cc_buff %d", port.Block.Running(17), port.Block.Compare1(17))
	}

	if err := m.DeinitPWM(17); err != nil {
		t.Fatal(err)
	}
	if got := port.Block.Snapshot(17).Ctrl; got != tcpwm.CNT_CTRL_DEFAULT {
		t.Errorf("CTRL after deinit = %#x", got)
	}
}

func TestRejected(t *testing.T) {
	m, _ := connect(t)

	bad := &tcpwm.PWMConfig{Mode: tcpwm.Standard{}, Alignment: tcpwm.Alignment(7)}
	if err := m.ApplyPWM(0, bad); !errors.Is(err, tcpwm.ErrBadParam) {
		t.Errorf("invalid alignment: %v", err)
	}
	if err := m.ApplyPWM(24, &tcpwm.PWMConfig{Mode: tcpwm.Standard{}}); !errors.Is(err, tcpwm.ErrBadParam) {
		t.Errorf("counter out of range: %v", err)
	}
	if _, err := m.CounterState(30); !errors.Is(err, tcpwm.ErrBadParam) {
		t.Errorf("query out of range: %v", err)
	}
	if err := m.Send("no_such_command"); !errors.Is(err, mcu.ErrUnknown) {
		t.Errorf("unknown command: %v", err)
	}
	if err := m.Send("tcpwm_enable", 1); err == nil {
		t.Error("missing argument accepted")
	}

	// The session is still in sync afterwards
	if _, err := m.GetConfig(); err != nil {
		t.Error(err)
	}
}

func TestLVDAndDeepSleep(t *testing.T) {
	m, port := connect(t)

	st, err := m.ConfigLVD(lvd.Threshold2V7, true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(mcu.LVDStatus{Threshold: lvd.Threshold2V7, Enabled: true, Ok: true}, st); diff != "" {
		t.Errorf("ConfigLVD (-want +got):\n%s", diff)
	}

	status, callbacks, err := m.DeepSleep()
	if err != nil || status != syspm.Success || callbacks != 1 {
		t.Fatalf("DeepSleep = %v, %d, %v", status, callbacks, err)
	}
	if port.Sleeps() != 1 {
		t.Errorf("slept %d times", port.Sleeps())
	}
	if st, err := m.LVDStatus(); err != nil || !st.Enabled {
		t.Errorf("after wakeup: %+v, %v", st, err)
	}

	port.SetSupplyOk(false)
	if st, err := m.LVDStatus(); err != nil || st.Ok {
		t.Errorf("supply low: %+v, %v", st, err)
	}
}

func TestEmergencyStop(t *testing.T) {
	m, port := connect(t)
	if err := m.ApplyPWM(3, &tcpwm.PWMConfig{Mode: tcpwm.Standard{}, Period0: 100}); err != nil {
		t.Fatal(err)
	}
	if err := m.EnableCounter(3, true); err != nil {
		t.Fatal(err)
	}

	if err := m.Send("emergency_stop"); err != nil {
		t.Fatal(err)
	}
	cfg, err := m.GetConfig()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.IsShutdown || port.Block.Enabled(3) {
		t.Errorf("after stop: %+v, enabled %v", cfg, port.Block.Enabled(3))
	}

	if err := m.Send("config_reset"); err != nil {
		t.Fatal(err)
	}
	if cfg, _ := m.GetConfig(); cfg.IsShutdown {
		t.Error("still shut down after config_reset")
	}
}

func TestUptime(t *testing.T) {
	m, _ := connect(t)
	first, err := m.Uptime()
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := m.Uptime()
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Errorf("uptime went from %d to %d", first, second)
	}
}
