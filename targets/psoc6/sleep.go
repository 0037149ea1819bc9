//go:build tinygo

package main

import (
	"device/arm"

	"psocpwm/regs"
)

// Cortex-M System Control Register
const scbSCR = 0xE000ED10

var scrSleepDeep = regs.Bit(2)

// deepSleep stops the CPU until the next wakeup interrupt. The callback
// chain has already run its check and before phases.
func deepSleep() {
	scr := regs.At(regs.MMIO{}, scbSCR)
	scr.SetBits(scrSleepDeep.Mask())
	arm.Asm("wfi")
	scr.ClearBits(scrSleepDeep.Mask())
}
