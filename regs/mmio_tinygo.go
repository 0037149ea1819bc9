//go:build tinygo

package regs

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO accesses peripheral registers directly at their physical address.
type MMIO struct{}

func (MMIO) Load(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (MMIO) Store(addr uintptr, val uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), val)
}
