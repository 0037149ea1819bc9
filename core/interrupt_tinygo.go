//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts around counter reconfiguration so an
// emergency stop from an interrupt handler cannot interleave with it.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
