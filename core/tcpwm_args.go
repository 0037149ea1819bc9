package core

import "psocpwm/tcpwm"

// Wire layout of config_tcpwm_pwm. The host encodes with PWMConfigArgs and
// the firmware decodes with PWMConfigFromArgs, so both share this file.
const TCPWMConfigFormat = "cnt=%c mode=%c generic=%c align=%c run_mode=%c flags=%c kill_mode=%c" +
	" compare0=%u compare1=%u period0=%u period1=%u routed=%c inputs=%u input_modes=%hu interrupts=%c"

const tcpwmConfigArgs = 15

// config_tcpwm_pwm mode values
const (
	WireModePWM          = 0
	WireModeDeadTime     = 1
	WireModePseudoRandom = 2
)

// config_tcpwm_pwm flags bits
const (
	FlagCompareSwap = 1 << 0
	FlagPeriodSwap  = 1 << 1
	FlagInvertOut   = 1 << 2
	FlagInvertOutN  = 1 << 3
)

// PWMConfigArgs flattens cfg into config_tcpwm_pwm arguments.
func PWMConfigArgs(cnt uint8, cfg *tcpwm.PWMConfig) []uint32 {
	var mode, generic uint32
	switch m := cfg.Mode.(type) {
	case tcpwm.Standard:
		mode, generic = WireModePWM, uint32(m.Prescaler)
	case tcpwm.DeadTime:
		mode, generic = WireModeDeadTime, uint32(m.Clocks)
	case tcpwm.PseudoRandom:
		mode, generic = WireModePseudoRandom, uint32(m.Prescaler)
	}

	var flags uint32
	if cfg.CompareSwap {
		flags |= FlagCompareSwap
	}
	if cfg.PeriodSwap {
		flags |= FlagPeriodSwap
	}
	if cfg.InvertOut {
		flags |= FlagInvertOut
	}
	if cfg.InvertOutN {
		flags |= FlagInvertOutN
	}

	var routed, inputs uint32
	if cfg.Routing != nil {
		routed, inputs = 1, cfg.Routing.TrCtrl0()
	}

	return []uint32{
		uint32(cnt), mode, generic, uint32(cfg.Alignment), uint32(cfg.RunMode), flags, uint32(cfg.KillMode),
		cfg.Compare0, cfg.Compare1, cfg.Period0, cfg.Period1,
		routed, inputs, cfg.InputModes.TrCtrl1(), uint32(cfg.Interrupts),
	}
}

// PWMConfigFromArgs is the inverse of PWMConfigArgs. Out of range values
// are carried through so that Validate can report them.
func PWMConfigFromArgs(args []uint32) (uint8, *tcpwm.PWMConfig, error) {
	if len(args) != tcpwmConfigArgs {
		return 0, nil, tcpwm.ErrBadParam
	}

	cfg := &tcpwm.PWMConfig{
		Alignment:   tcpwm.Alignment(args[3]),
		RunMode:     tcpwm.RunMode(args[4]),
		CompareSwap: args[5]&FlagCompareSwap != 0,
		PeriodSwap:  args[5]&FlagPeriodSwap != 0,
		InvertOut:   args[5]&FlagInvertOut != 0,
		InvertOutN:  args[5]&FlagInvertOutN != 0,
		KillMode:    tcpwm.KillMode(args[6]),
		Compare0:    args[7],
		Compare1:    args[8],
		Period0:     args[9],
		Period1:     args[10],
		InputModes:  tcpwm.InputModesFromTrCtrl1(args[13]),
		Interrupts:  tcpwm.InterruptSource(args[14]),
	}
	switch args[1] {
	case WireModePWM:
		cfg.Mode = tcpwm.Standard{Prescaler: tcpwm.Prescaler(args[2])}
	case WireModeDeadTime:
		cfg.Mode = tcpwm.DeadTime{Clocks: uint8(args[2])}
	case WireModePseudoRandom:
		cfg.Mode = tcpwm.PseudoRandom{Prescaler: tcpwm.Prescaler(args[2])}
	}
	if args[11] != 0 {
		routing := tcpwm.RoutingFromTrCtrl0(args[12])
		cfg.Routing = &routing
	}
	return uint8(args[0]), cfg, nil
}
