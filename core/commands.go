package core

import (
	"sync/atomic"

	"psocpwm/protocol"
)

// FirmwareState is the configuration handshake state seen by get_config.
type FirmwareState struct {
	configCRC  atomic.Uint32
	isShutdown atomic.Bool
	moveCount  uint16
}

var globalState = &FirmwareState{moveCount: 16}

// Shutdown hooks run on emergency_stop and config_reset, in registration
// order, to put peripherals back in a safe state.
var shutdownHooks []func()

// RegisterShutdownHook adds fn to the hooks run on emergency stop.
func RegisterShutdownHook(fn func()) {
	shutdownHooks = append(shutdownHooks, fn)
}

// InitFirmware registers every command group and builds the dictionary.
// The TCPWM block must be set; LVD and power chain are optional.
func InitFirmware(mcu string) {
	InitCoreCommands()
	InitClockCommands()
	InitTCPWMCommands()
	InitPowerCommands()
	RegisterConstant("MCU", mcu)
	GetGlobalDictionary().BuildDictionary()
}

// InitCoreCommands registers the handshake commands. identify_response and
// identify must be the first two messages: hosts hard-code IDs 0 and 1 to
// bootstrap the dictionary transfer.
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_config", "", handleGetConfig)
	RegisterCommand("finalize_config", "crc=%u", handleFinalizeConfig)
	RegisterCommand("config_reset", "", handleConfigReset)
	RegisterCommand("emergency_stop", "", handleEmergencyStop)

	RegisterResponse("config", "is_config=%c crc=%u is_shutdown=%c move_count=%hu")
}

func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, uint8(count))
	SendResponse("identify_response", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQBytes(out, chunk)
	})
	return nil
}

func handleGetConfig(data *[]byte) error {
	crc := globalState.configCRC.Load()
	SendResponse("config", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, boolArg(crc != 0))
		protocol.EncodeVLQUint(out, crc)
		protocol.EncodeVLQUint(out, boolArg(globalState.isShutdown.Load()))
		protocol.EncodeVLQUint(out, uint32(globalState.moveCount))
	})
	return nil
}

func handleFinalizeConfig(data *[]byte) error {
	crc, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	globalState.configCRC.Store(crc)
	return nil
}

// handleConfigReset returns every peripheral to reset and forgets the
// configuration, leaving a shutdown.
func handleConfigReset(data *[]byte) error {
	runShutdownHooks()
	ResetFirmwareState()
	return nil
}

func handleEmergencyStop(data *[]byte) error {
	TryShutdown("emergency stop")
	return nil
}

// TryShutdown stops all outputs and marks the firmware shut down until the
// next config_reset.
func TryShutdown(reason string) {
	if globalState.isShutdown.Swap(true) {
		return
	}
	DebugPrintln("[core] shutdown: " + reason)
	runShutdownHooks()
}

func runShutdownHooks() {
	for _, fn := range shutdownHooks {
		fn()
	}
}

func IsShutdown() bool { return globalState.isShutdown.Load() }

// ResetFirmwareState clears the handshake state, as after a reconnect.
func ResetFirmwareState() {
	globalState.configCRC.Store(0)
	globalState.isShutdown.Store(false)
}

// Global transport for responses, set by the target main.
var globalTransport *protocol.Transport

func SetGlobalTransport(t *protocol.Transport) { globalTransport = t }

// SendResponse encodes response name through the global transport. Every
// response must have been registered.
func SendResponse(name string, args func(out protocol.OutputBuffer)) {
	if globalTransport == nil {
		return
	}
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		panic("response not registered: " + name)
	}
	globalTransport.SendCommand(cmd.ID, args)
}

func boolArg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
