package core

// DebugWriter receives one line of debug output.
type DebugWriter func(string)

var (
	debugPrintln DebugWriter
	debugEnabled bool
)

// SetDebugWriter routes debug output to a UART, the USB console, or a host
// side logger. A nil writer silences it.
func SetDebugWriter(w DebugWriter) {
	debugPrintln = w
	debugEnabled = w != nil
}

// SetDebugEnabled toggles output without dropping the writer.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled && debugPrintln != nil
}

func IsDebugEnabled() bool { return debugEnabled }

// DebugPrintln writes msg if debug output is enabled.
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}
