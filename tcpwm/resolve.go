package tcpwm

// Resolution is the register image a PWM configuration maps to.
type Resolution struct {
	Ctrl    uint32 // CNT_CTRL
	Counter uint32 // Initial CNT_COUNTER value
	TrCtrl2 uint32 // CNT_TR_CTRL2 line output tag
}

// Resolve computes the control word, counter seed and output tag for cfg.
// It never fails: combinations the hardware does not document produce
// whatever the composed bits imply. A nil Mode resolves as Standard{}.
func Resolve(cfg *PWMConfig) Resolution {
	mode := cfg.Mode
	if mode == nil {
		mode = Standard{}
	}

	var res Resolution
	if cfg.CompareSwap {
		res.Ctrl |= CNT_CTRL_AUTO_RELOAD_CC.Mask()
	}
	if cfg.PeriodSwap {
		res.Ctrl |= CNT_CTRL_AUTO_RELOAD_PERIOD.Mask()
	}
	res.Ctrl |= CNT_CTRL_ONE_SHOT.Val(uint32(cfg.RunMode)) |
		CNT_CTRL_UP_DOWN_MODE.Val(uint32(cfg.Alignment)) |
		CNT_CTRL_MODE.Val(mode.counterMode()) |
		CNT_CTRL_QUADRATURE_MODE.Val(polarity(cfg.InvertOut, cfg.InvertOutN)) |
		uint32(cfg.KillMode)<<CNT_CTRL_KILL.Pos |
		CNT_CTRL_GENERIC.Val(mode.generic())

	// Pseudo-random takes precedence: alignment is only looked at for the
	// counting PWM functions.
	switch {
	case isPseudoRandom(mode):
		res.Counter = CNT_UP_DOWN_INIT_VAL
		res.TrCtrl2 = PWM_MODE_PR
	case cfg.Alignment == LeftAlign:
		res.Counter = CNT_UP_INIT_VAL
		res.TrCtrl2 = PWM_MODE_LEFT
	case cfg.Alignment == RightAlign:
		// Counts down from the period to zero.
		res.Counter = cfg.Period0
		res.TrCtrl2 = PWM_MODE_RIGHT
	default:
		res.Counter = CNT_UP_DOWN_INIT_VAL
		res.TrCtrl2 = PWM_MODE_CNTR_OR_ASYMM
	}
	return res
}

func isPseudoRandom(m PWMMode) bool {
	_, ok := m.(PseudoRandom)
	return ok
}

func polarity(invert, invertN bool) uint32 {
	var q uint32
	if invert {
		q |= 1
	}
	if invertN {
		q |= 1 << 1
	}
	return q
}

// TrCtrl0 composes the input selection word.
func (r *InputRouting) TrCtrl0() uint32 {
	return CNT_TR_CTRL0_CAPTURE_SEL.Val(uint32(r.Swap)) |
		CNT_TR_CTRL0_RELOAD_SEL.Val(uint32(r.Reload)) |
		CNT_TR_CTRL0_START_SEL.Val(uint32(r.Start)) |
		CNT_TR_CTRL0_STOP_SEL.Val(uint32(r.Kill)) |
		CNT_TR_CTRL0_COUNT_SEL.Val(uint32(r.Count))
}

// TrCtrl1 composes the edge detection word.
func (m InputModes) TrCtrl1() uint32 {
	return CNT_TR_CTRL1_CAPTURE_EDGE.Val(uint32(m.Swap)) |
		CNT_TR_CTRL1_RELOAD_EDGE.Val(uint32(m.Reload)) |
		CNT_TR_CTRL1_START_EDGE.Val(uint32(m.Start)) |
		CNT_TR_CTRL1_STOP_EDGE.Val(uint32(m.Kill)) |
		CNT_TR_CTRL1_COUNT_EDGE.Val(uint32(m.Count))
}

// RoutingFromTrCtrl0 is the inverse of TrCtrl0.
func RoutingFromTrCtrl0(w uint32) InputRouting {
	return InputRouting{
		Count:  TriggerInput(CNT_TR_CTRL0_COUNT_SEL.Get(w)),
		Swap:   TriggerInput(CNT_TR_CTRL0_CAPTURE_SEL.Get(w)),
		Reload: TriggerInput(CNT_TR_CTRL0_RELOAD_SEL.Get(w)),
		Start:  TriggerInput(CNT_TR_CTRL0_START_SEL.Get(w)),
		Kill:   TriggerInput(CNT_TR_CTRL0_STOP_SEL.Get(w)),
	}
}

// InputModesFromTrCtrl1 is the inverse of TrCtrl1.
func InputModesFromTrCtrl1(w uint32) InputModes {
	return InputModes{
		Count:  InputMode(CNT_TR_CTRL1_COUNT_EDGE.Get(w)),
		Swap:   InputMode(CNT_TR_CTRL1_CAPTURE_EDGE.Get(w)),
		Reload: InputMode(CNT_TR_CTRL1_RELOAD_EDGE.Get(w)),
		Start:  InputMode(CNT_TR_CTRL1_START_EDGE.Get(w)),
		Kill:   InputMode(CNT_TR_CTRL1_STOP_EDGE.Get(w)),
	}
}
