package mcu

import (
	"fmt"

	"psocpwm/core"
	"psocpwm/lvd"
	"psocpwm/syspm"
	"psocpwm/tcpwm"
)

// tcpwmStatus waits for the tcpwm_status answer of a counter command.
func (m *MCU) tcpwmStatus(cmd string, cnt uint8, args ...uint32) error {
	p, err := m.Query(cmd, "tcpwm_status", args...)
	if err != nil {
		return err
	}
	if err := tcpwm.ErrorOf(tcpwm.Status(p.Get("status"))); err != nil {
		return fmt.Errorf("%s counter %d: %w", cmd, cnt, err)
	}
	return nil
}

// ApplyPWM configures counter cnt. The firmware validates cfg and answers
// tcpwm.ErrBadParam for anything it rejects.
func (m *MCU) ApplyPWM(cnt uint8, cfg *tcpwm.PWMConfig) error {
	m.log.WithField("cnt", cnt).Infof("apply %v %v", cfg.Mode, cfg.Alignment)
	return m.tcpwmStatus("config_tcpwm_pwm", cnt, core.PWMConfigArgs(cnt, cfg)...)
}

// DeinitPWM returns counter cnt to its reset state.
func (m *MCU) DeinitPWM(cnt uint8) error {
	return m.tcpwmStatus("deinit_tcpwm_pwm", cnt, uint32(cnt))
}

func (m *MCU) EnableCounter(cnt uint8, enable bool) error {
	var v uint32
	if enable {
		v = 1
	}
	return m.tcpwmStatus("tcpwm_enable", cnt, uint32(cnt), v)
}

func (m *MCU) Trigger(cnt uint8, cmd tcpwm.Command) error {
	return m.tcpwmStatus("tcpwm_trigger", cnt, uint32(cnt), uint32(cmd))
}

// SetRegister writes one of the core.TCPWMReg* registers of counter cnt.
func (m *MCU) SetRegister(cnt uint8, reg int, value uint32) error {
	return m.tcpwmStatus("tcpwm_set", cnt, uint32(cnt), uint32(reg), value)
}

// CounterState reads back every register of counter cnt.
func (m *MCU) CounterState(cnt uint8) (tcpwm.CounterState, error) {
	var s tcpwm.CounterState
	m.transport.Drain()
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()

	if err := m.Send("tcpwm_query", uint32(cnt)); err != nil {
		return s, err
	}
	p, err := m.Await("tcpwm_state", "tcpwm_status")
	if err != nil {
		return s, err
	}
	if p.Name == "tcpwm_status" {
		return s, fmt.Errorf("tcpwm_query counter %d: %w", cnt, tcpwm.ErrorOf(tcpwm.Status(p.Get("status"))))
	}
	trig, err := m.Await("tcpwm_trigger_state")
	if err != nil {
		return s, err
	}

	s = tcpwm.CounterState{
		Ctrl:       p.Get("ctrl"),
		Status:     p.Get("status"),
		Counter:    p.Get("counter"),
		CC:         p.Get("cc"),
		CCBuff:     p.Get("cc_buff"),
		Period:     p.Get("period"),
		PeriodBuff: p.Get("period_buff"),
		TrCtrl0:    trig.Get("tr_ctrl0"),
		TrCtrl1:    trig.Get("tr_ctrl1"),
		TrCtrl2:    trig.Get("tr_ctrl2"),
		Intr:       trig.Get("intr"),
		IntrMask:   trig.Get("intr_mask"),
	}
	return s, nil
}

// LVDStatus is the lvd_status response.
type LVDStatus struct {
	Threshold lvd.Threshold
	Enabled   bool
	Ok        bool
	Interrupt bool
}

func lvdStatus(p *Params) (LVDStatus, error) {
	st := LVDStatus{
		Threshold: lvd.Threshold(p.Get("threshold")),
		Enabled:   p.Get("enabled") != 0,
		Ok:        p.Get("ok") != 0,
		Interrupt: p.Get("intr") != 0,
	}
	return st, tcpwm.ErrorOf(tcpwm.Status(p.Get("status")))
}

// ConfigLVD sets the detector threshold and enables it if asked to.
func (m *MCU) ConfigLVD(t lvd.Threshold, enable bool) (LVDStatus, error) {
	var en uint32
	if enable {
		en = 1
	}
	p, err := m.Query("config_lvd", "lvd_status", uint32(t), en)
	if err != nil {
		return LVDStatus{}, err
	}
	return lvdStatus(p)
}

func (m *MCU) LVDStatus() (LVDStatus, error) {
	p, err := m.Query("lvd_query", "lvd_status")
	if err != nil {
		return LVDStatus{}, err
	}
	return lvdStatus(p)
}

// DeepSleep runs the firmware's deep-sleep callback chain and returns the
// outcome with the number of callbacks that took part.
func (m *MCU) DeepSleep() (syspm.Status, int, error) {
	p, err := m.Query("syspm_transition", "syspm_result")
	if err != nil {
		return syspm.Fail, 0, err
	}
	return syspm.Status(p.Get("status")), int(p.Get("callbacks")), nil
}

// FirmwareConfig is the get_config response.
type FirmwareConfig struct {
	IsConfig   bool
	CRC        uint32
	IsShutdown bool
}

func (m *MCU) GetConfig() (FirmwareConfig, error) {
	p, err := m.Query("get_config", "config")
	if err != nil {
		return FirmwareConfig{}, err
	}
	return FirmwareConfig{
		IsConfig:   p.Get("is_config") != 0,
		CRC:        p.Get("crc"),
		IsShutdown: p.Get("is_shutdown") != 0,
	}, nil
}

// Uptime returns the firmware clock in ticks of CLOCK_FREQ.
func (m *MCU) Uptime() (uint64, error) {
	p, err := m.Query("get_uptime", "uptime")
	if err != nil {
		return 0, err
	}
	return uint64(p.Get("high"))<<32 | uint64(p.Get("clock")), nil
}
