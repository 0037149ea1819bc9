package lvd

import "psocpwm/regs"

// NewSim returns a detector backed by an in-memory SRSS register subset.
// The comparator reports Ok while enabled unless the supply is pulled below
// the threshold with the returned setter, which also raises HVLVD1 when the
// configured edge matches.
func NewSim() (l *LVD, mem *regs.Memory, setSupplyOk func(ok bool)) {
	mem = regs.NewMemory()
	base := uintptr(SRSS_BASE)

	ctl := mem.Map(base+PWR_LVD_CTL, "SRSS.PWR_LVD_CTL", 0)
	status := mem.Map(base+PWR_LVD_STATUS, "SRSS.PWR_LVD_STATUS", 0)
	cfg := mem.Map(base+SRSS_INTR_CFG, "SRSS.INTR_CFG", 0)
	intr := mem.Map(base+SRSS_INTR, "SRSS.INTR", 0)
	set := mem.Map(base+SRSS_INTR_SET, "SRSS.INTR_SET", 0)
	mem.Map(base+SRSS_INTR_MASK, "SRSS.INTR_MASK", 0)

	supplyOk := true
	status.ReadCb = func(uint32) uint32 {
		if ctl.Value&PWR_LVD_CTL_HVLVD1_EN.Mask() != 0 && supplyOk {
			return PWR_LVD_STATUS_HVLVD1_OK.Mask()
		}
		return 0
	}
	status.WriteCb = func(old, _ uint32) uint32 { return old }
	intr.WriteCb = func(old, val uint32) uint32 { return old &^ val }
	set.WriteCb = func(_, val uint32) uint32 {
		intr.Value |= val & SRSS_INTR_HVLVD1.Mask()
		return 0
	}

	l = New(mem, base)
	setSupplyOk = func(ok bool) {
		if ok == supplyOk {
			return
		}
		supplyOk = ok
		if ctl.Value&PWR_LVD_CTL_HVLVD1_EN.Mask() == 0 {
			return
		}
		edge := Edge(SRSS_INTR_CFG_HVLVD1_EDGE.Get(cfg.Value))
		// The comparator output falls when the supply drops
		if (!ok && (edge == EdgeFalling || edge == EdgeBoth)) ||
			(ok && (edge == EdgeRising || edge == EdgeBoth)) {
			l.SetInterrupt()
		}
	}
	return l, mem, setSupplyOk
}
