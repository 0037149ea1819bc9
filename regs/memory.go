package regs

import (
	"fmt"
	"sort"
	"sync"
)

// Register is one word of a Memory register file.
//
// ReadCb, when set, computes the value returned by a bus load. WriteCb, when
// set, receives the previous and the written value and returns what the
// register holds afterwards; it may also update other registers of the same
// Memory through pointers captured at mapping time.
type Register struct {
	Name  string
	Addr  uintptr
	Value uint32
	Reset uint32

	ReadCb  func(val uint32) uint32
	WriteCb func(old, val uint32) uint32
}

func (r Register) String() string {
	s := fmt.Sprintf("%s@%08x{%08x", r.Name, r.Addr, r.Value)
	if r.ReadCb != nil {
		s += ",r!"
	}
	if r.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

// Memory is an in-memory Bus. Addresses that were never mapped read as zero
// and are created on first store.
type Memory struct {
	mu     sync.Mutex
	regs   map[uintptr]*Register
	writes int
	trace  func(r *Register, old uint32)
}

// NewMemory returns an empty register file.
func NewMemory() *Memory {
	return &Memory{regs: make(map[uintptr]*Register)}
}

// Map declares a named register holding its reset value.
func (m *Memory) Map(addr uintptr, name string, reset uint32) *Register {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &Register{Name: name, Addr: addr, Value: reset, Reset: reset}
	m.regs[addr] = r
	return r
}

// Register returns the register mapped at addr, or nil.
func (m *Memory) Register(addr uintptr) *Register {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// SetTrace installs a function called after every bus store.
func (m *Memory) SetTrace(fn func(r *Register, old uint32)) {
	m.mu.Lock()
	m.trace = fn
	m.mu.Unlock()
}

func (m *Memory) Load(addr uintptr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[addr]
	if !ok {
		return 0
	}
	if r.ReadCb != nil {
		return r.ReadCb(r.Value)
	}
	return r.Value
}

func (m *Memory) Store(addr uintptr, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	r, ok := m.regs[addr]
	if !ok {
		r = &Register{Name: fmt.Sprintf("%08x", addr), Addr: addr}
		m.regs[addr] = r
	}
	old := r.Value
	if r.WriteCb != nil {
		r.Value = r.WriteCb(old, val)
	} else {
		r.Value = val
	}
	if m.trace != nil {
		m.trace(r, old)
	}
}

// Writes returns the number of bus stores since creation or ResetWrites.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) ResetWrites() {
	m.mu.Lock()
	m.writes = 0
	m.mu.Unlock()
}

// Peek returns the raw stored value, bypassing ReadCb.
func (m *Memory) Peek(addr uintptr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.regs[addr]; ok {
		return r.Value
	}
	return 0
}

// Poke sets a stored value without counting a write or running hooks.
func (m *Memory) Poke(addr uintptr, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[addr]
	if !ok {
		r = &Register{Name: fmt.Sprintf("%08x", addr), Addr: addr}
		m.regs[addr] = r
	}
	r.Value = val
}

// Reset returns every mapped register to its reset value.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regs {
		r.Value = r.Reset
	}
	m.writes = 0
}

// Snapshot returns a copy of all registers ordered by address.
func (m *Memory) Snapshot() []Register {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Register, 0, len(m.regs))
	for _, r := range m.regs {
		c := *r
		c.ReadCb, c.WriteCb = nil, nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
