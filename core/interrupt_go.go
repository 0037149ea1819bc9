//go:build !tinygo

package core

// State is the saved interrupt state. Host builds have no interrupts.
type State uintptr

func disableInterrupts() State { return 0 }

func restoreInterrupts(state State) {}
