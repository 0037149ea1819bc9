package core

import (
	"sync"

	"psocpwm/protocol"
	"psocpwm/tcpwm"
)

// tcpwm_set register selectors
const (
	TCPWMRegCompare0 = iota
	TCPWMRegCompare1
	TCPWMRegPeriod0
	TCPWMRegPeriod1
	TCPWMRegCounter
	TCPWMRegIntrMask
	TCPWMRegIntrClear
	TCPWMRegIntrSet
)

var tcpwmRegNames = []string{
	"compare0", "compare1", "period0", "period1", "counter", "intr_mask", "intr_clear", "intr_set",
}

// Global TCPWM block - set by the target main
var tcpwmBlock *tcpwm.Block

// Configurations applied per counter, needed to deinit with the same
// routing ownership they were applied with.
var (
	counterConfigs = make(map[uint8]*tcpwm.PWMConfig)
	tcpwmHooksOnce sync.Once
)

// SetTCPWMBlock sets the TCPWM instance driven by the tcpwm commands.
func SetTCPWMBlock(b *tcpwm.Block) {
	tcpwmBlock = b
	counterConfigs = make(map[uint8]*tcpwm.PWMConfig)
}

// MustTCPWM returns the TCPWM block or panics if not set.
func MustTCPWM() *tcpwm.Block {
	if tcpwmBlock == nil {
		panic("TCPWM block not initialized - call core.SetTCPWMBlock() first")
	}
	return tcpwmBlock
}

// InitTCPWMCommands registers the TCPWM commands. The block must be set.
func InitTCPWMCommands() {
	b := MustTCPWM()
	inst := b.Instance()
	RegisterConstant("TCPWM_COUNTERS", inst.Counters)
	RegisterConstant("TCPWM_COUNTER_WIDTH", uint8(inst.Width))
	RegisterEnumeration("tcpwm_mode", []string{"pwm", "deadtime", "pseudorandom"})
	RegisterEnumeration("tcpwm_cmd", []string{"start", "reload", "stop", "swap"})
	RegisterEnumeration("tcpwm_reg", tcpwmRegNames)
	RegisterEnumeration("status", []string{"success", "bad_param"})

	RegisterCommand("config_tcpwm_pwm", TCPWMConfigFormat, handleConfigTCPWM)
	RegisterCommand("deinit_tcpwm_pwm", "cnt=%c", handleDeinitTCPWM)
	RegisterCommand("tcpwm_enable", "cnt=%c enable=%c", handleTCPWMEnable)
	RegisterCommand("tcpwm_trigger", "cnt=%c cmd=%c", handleTCPWMTrigger)
	RegisterCommand("tcpwm_set", "cnt=%c reg=%c value=%u", handleTCPWMSet)
	RegisterCommand("tcpwm_query", "cnt=%c", handleTCPWMQuery)

	RegisterResponse("tcpwm_status", "cnt=%c status=%c")
	RegisterResponse("tcpwm_state", "cnt=%c ctrl=%u status=%u counter=%u cc=%u cc_buff=%u period=%u period_buff=%u")
	RegisterResponse("tcpwm_trigger_state", "cnt=%c tr_ctrl0=%u tr_ctrl1=%u tr_ctrl2=%u intr=%u intr_mask=%u")

	tcpwmHooksOnce.Do(func() {
		RegisterShutdownHook(stopAllCounters)
	})
}

// stopAllCounters disables every counter and returns the configured ones to
// their reset state.
func stopAllCounters() {
	b := tcpwmBlock
	if b == nil {
		return
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)
	b.DisableMask(1<<uint(b.Counters()) - 1)
	for cnt, cfg := range counterConfigs {
		b.PWMDeInit(uint32(cnt), cfg)
		delete(counterConfigs, cnt)
	}
}

// decodeArgs reads n VLQ arguments.
func decodeArgs(data *[]byte, n int) ([]uint32, error) {
	args := make([]uint32, n)
	for i := range args {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// counterIndex checks cnt against the block. The driver itself trusts the
// index, so this is the only range check.
func counterIndex(cnt uint32) (uint32, bool) {
	return cnt, tcpwmBlock != nil && cnt < uint32(tcpwmBlock.Counters())
}

func sendTCPWMStatus(cnt uint32, status tcpwm.Status) {
	SendResponse("tcpwm_status", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, cnt)
		protocol.EncodeVLQUint(out, uint32(status))
	})
}

func handleConfigTCPWM(data *[]byte) error {
	args, err := decodeArgs(data, tcpwmConfigArgs)
	if err != nil {
		return err
	}
	_, cfg, _ := PWMConfigFromArgs(args)
	cnt, ok := counterIndex(args[0])
	if !ok {
		DebugPrintln("[tcpwm] config: counter " + utoa(cnt) + " out of range")
		sendTCPWMStatus(cnt, tcpwm.StatusBadParam)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		DebugPrintln("[tcpwm] config " + utoa(cnt) + ": " + err.Error())
		sendTCPWMStatus(cnt, tcpwm.StatusOf(err))
		return nil
	}

	b := MustTCPWM()
	state := disableInterrupts()
	b.Disable(cnt)
	err = b.PWMInit(cnt, cfg)
	if err == nil {
		counterConfigs[uint8(cnt)] = cfg
	}
	restoreInterrupts(state)
	if err == nil {
		DebugPrintln("[tcpwm] counter " + utoa(cnt) + " configured, ctrl=" + hex32(b.Snapshot(cnt).Ctrl))
	}
	sendTCPWMStatus(cnt, tcpwm.StatusOf(err))
	return nil
}

func handleDeinitTCPWM(data *[]byte) error {
	raw, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	cnt, ok := counterIndex(raw)
	if !ok {
		sendTCPWMStatus(raw, tcpwm.StatusBadParam)
		return nil
	}

	b := MustTCPWM()
	state := disableInterrupts()
	b.Disable(cnt)
	// A counter never configured here is treated as creator-routed
	b.PWMDeInit(cnt, counterConfigs[uint8(cnt)])
	delete(counterConfigs, uint8(cnt))
	restoreInterrupts(state)
	sendTCPWMStatus(cnt, tcpwm.StatusSuccess)
	return nil
}

func handleTCPWMEnable(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	cnt, ok := counterIndex(args[0])
	if !ok {
		sendTCPWMStatus(args[0], tcpwm.StatusBadParam)
		return nil
	}
	if args[1] != 0 {
		MustTCPWM().Enable(cnt)
	} else {
		MustTCPWM().Disable(cnt)
	}
	sendTCPWMStatus(cnt, tcpwm.StatusSuccess)
	return nil
}

func handleTCPWMTrigger(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	cnt, ok := counterIndex(args[0])
	if !ok || args[1] > uint32(tcpwm.CmdCaptureOrSwap) {
		sendTCPWMStatus(args[0], tcpwm.StatusBadParam)
		return nil
	}
	MustTCPWM().Trigger(tcpwm.Command(args[1]), tcpwm.CounterMask(cnt))
	sendTCPWMStatus(cnt, tcpwm.StatusSuccess)
	return nil
}

func handleTCPWMSet(data *[]byte) error {
	args, err := decodeArgs(data, 3)
	if err != nil {
		return err
	}
	cnt, ok := counterIndex(args[0])
	if !ok {
		sendTCPWMStatus(args[0], tcpwm.StatusBadParam)
		return nil
	}

	b := MustTCPWM()
	value := args[2]
	switch args[1] {
	case TCPWMRegCompare0:
		b.SetCompare0(cnt, value)
	case TCPWMRegCompare1:
		b.SetCompare1(cnt, value)
	case TCPWMRegPeriod0:
		b.SetPeriod0(cnt, value)
	case TCPWMRegPeriod1:
		b.SetPeriod1(cnt, value)
	case TCPWMRegCounter:
		b.SetCounter(cnt, value)
	case TCPWMRegIntrMask:
		b.SetInterruptMask(cnt, value)
	case TCPWMRegIntrClear:
		b.ClearInterrupt(cnt, value)
	case TCPWMRegIntrSet:
		b.SetInterrupt(cnt, value)
	default:
		sendTCPWMStatus(cnt, tcpwm.StatusBadParam)
		return nil
	}
	sendTCPWMStatus(cnt, tcpwm.StatusSuccess)
	return nil
}

// handleTCPWMQuery answers with two responses, as the full register set
// does not fit one frame.
func handleTCPWMQuery(data *[]byte) error {
	raw, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	cnt, ok := counterIndex(raw)
	if !ok {
		sendTCPWMStatus(raw, tcpwm.StatusBadParam)
		return nil
	}

	s := MustTCPWM().Snapshot(cnt)
	SendResponse("tcpwm_state", func(out protocol.OutputBuffer) {
		for _, v := range []uint32{cnt, s.Ctrl, s.Status, s.Counter, s.CC, s.CCBuff, s.Period, s.PeriodBuff} {
			protocol.EncodeVLQUint(out, v)
		}
	})
	SendResponse("tcpwm_trigger_state", func(out protocol.OutputBuffer) {
		for _, v := range []uint32{cnt, s.TrCtrl0, s.TrCtrl1, s.TrCtrl2, s.Intr, s.IntrMask} {
			protocol.EncodeVLQUint(out, v)
		}
	})
	return nil
}
