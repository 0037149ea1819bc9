package core

import (
	"psocpwm/lvd"
	"psocpwm/protocol"
	"psocpwm/syspm"
	"psocpwm/tcpwm"
)

// Global power management state - set by the target main
var (
	lvdDevice  *lvd.LVD
	powerChain *syspm.Chain
	sleepEnter func()
)

// SetLVD sets the low-voltage detector driven by config_lvd.
func SetLVD(l *lvd.LVD) { lvdDevice = l }

// SetPowerChain sets the deep-sleep callback chain run by syspm_transition.
// enter performs the low-power entry itself and returns on wakeup.
func SetPowerChain(c *syspm.Chain, enter func()) {
	powerChain = c
	sleepEnter = enter
}

// InitPowerCommands registers the LVD and power mode commands.
func InitPowerCommands() {
	names := make([]string, lvd.Threshold3V1+1)
	for t := range names {
		names[t] = lvd.Threshold(t).String()
	}
	RegisterEnumeration("lvd_threshold", names)
	RegisterEnumeration("syspm_status", []string{"success", "fail"})

	RegisterCommand("config_lvd", "threshold=%c enable=%c", handleConfigLVD)
	RegisterCommand("lvd_query", "", handleLVDQuery)
	RegisterCommand("syspm_transition", "", handleSyspmTransition)

	RegisterResponse("lvd_status", "status=%c threshold=%c enabled=%c ok=%c intr=%c")
	RegisterResponse("syspm_result", "status=%c callbacks=%c")
}

func sendLVDStatus(status tcpwm.Status) {
	var threshold, enabled, ok, intr uint32
	if l := lvdDevice; l != nil {
		threshold = uint32(l.Threshold())
		enabled = boolArg(l.Enabled())
		ok = boolArg(l.Ok())
		intr = boolArg(l.InterruptStatus())
	}
	SendResponse("lvd_status", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(status))
		protocol.EncodeVLQUint(out, threshold)
		protocol.EncodeVLQUint(out, enabled)
		protocol.EncodeVLQUint(out, ok)
		protocol.EncodeVLQUint(out, intr)
	})
}

// handleConfigLVD reprograms the detector. The comparator is switched off
// while the threshold changes and the spurious interrupt this causes is
// cleared before re-enabling.
func handleConfigLVD(data *[]byte) error {
	args, err := decodeArgs(data, 2)
	if err != nil {
		return err
	}
	l := lvdDevice
	if l == nil || args[0] > uint32(lvd.Threshold3V1) {
		sendLVDStatus(tcpwm.StatusBadParam)
		return nil
	}

	l.Disable()
	l.SetThreshold(lvd.Threshold(args[0]))
	l.ClearInterrupt()
	if args[1] != 0 {
		l.Enable()
	}
	DebugPrintln("[lvd] threshold " + lvd.Threshold(args[0]).String())
	sendLVDStatus(tcpwm.StatusSuccess)
	return nil
}

func handleLVDQuery(data *[]byte) error {
	if lvdDevice == nil {
		sendLVDStatus(tcpwm.StatusBadParam)
		return nil
	}
	sendLVDStatus(tcpwm.StatusSuccess)
	return nil
}

func handleSyspmTransition(data *[]byte) error {
	st := syspm.Fail
	var n int
	if c := powerChain; c != nil {
		n = c.Len()
		st = c.Transition(sleepEnter)
	}
	DebugPrintln("[syspm] deep sleep " + st.String())
	SendResponse("syspm_result", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(st))
		protocol.EncodeVLQUint(out, uint32(n))
	})
	return nil
}
