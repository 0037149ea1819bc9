// Package regs provides 32-bit memory-mapped register access.
//
// Peripheral drivers talk to a Bus instead of dereferencing pointers so the
// same driver code runs against real hardware (MMIO, TinyGo builds) and
// against an in-memory register file (Memory) on the host.
package regs

// Bus loads and stores 32-bit registers by absolute address.
type Bus interface {
	Load(addr uintptr) uint32
	Store(addr uintptr, val uint32)
}

// Field describes a bit field inside a 32-bit register.
type Field struct {
	Pos   uint8
	Width uint8
}

// Mask returns the in-place mask of the field.
func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return ^uint32(0)
	}
	return ((uint32(1) << f.Width) - 1) << f.Pos
}

// Val shifts v into field position, dropping bits that do not fit.
func (f Field) Val(v uint32) uint32 {
	return (v << f.Pos) & f.Mask()
}

// Get extracts the field value from a register word.
func (f Field) Get(word uint32) uint32 {
	return (word & f.Mask()) >> f.Pos
}

// Replace returns word with the field set to v.
func (f Field) Replace(word, v uint32) uint32 {
	return (word &^ f.Mask()) | f.Val(v)
}

// Bit returns a one-bit field at pos.
func Bit(pos uint8) Field {
	return Field{Pos: pos, Width: 1}
}

// Reg is a handle to one register on a bus.
type Reg struct {
	bus  Bus
	addr uintptr
}

// At returns a register handle for addr on bus.
func At(bus Bus, addr uintptr) Reg {
	return Reg{bus: bus, addr: addr}
}

// Addr returns the absolute register address.
func (r Reg) Addr() uintptr { return r.addr }

func (r Reg) Get() uint32 { return r.bus.Load(r.addr) }

func (r Reg) Set(val uint32) { r.bus.Store(r.addr, val) }

// SetBits performs a read-modify-write that sets the bits in mask.
func (r Reg) SetBits(mask uint32) {
	r.bus.Store(r.addr, r.bus.Load(r.addr)|mask)
}

// ClearBits performs a read-modify-write that clears the bits in mask.
func (r Reg) ClearBits(mask uint32) {
	r.bus.Store(r.addr, r.bus.Load(r.addr)&^mask)
}

// HasBits reports whether all bits in mask are set.
func (r Reg) HasBits(mask uint32) bool {
	return r.bus.Load(r.addr)&mask == mask
}

// GetField reads a single field.
func (r Reg) GetField(f Field) uint32 {
	return f.Get(r.bus.Load(r.addr))
}

// SetField performs a read-modify-write of a single field.
func (r Reg) SetField(f Field, v uint32) {
	r.bus.Store(r.addr, f.Replace(r.bus.Load(r.addr), v))
}
