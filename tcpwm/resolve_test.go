package tcpwm

import "testing"

func TestResolveSeedAndTag(t *testing.T) {
	alignments := []Alignment{LeftAlign, RightAlign, CenterAlign, AsymmetricAlign}
	modes := []PWMMode{Standard{Prescaler: DivBy2}, DeadTime{Clocks: 12}, PseudoRandom{}}

	for _, mode := range modes {
		for _, align := range alignments {
			cfg := &PWMConfig{Mode: mode, Alignment: align, Period0: 999}
			res := Resolve(cfg)

			var wantSeed, wantTag uint32
			switch {
			case isPseudoRandom(mode):
				wantSeed, wantTag = CNT_UP_DOWN_INIT_VAL, PWM_MODE_PR
			case align == LeftAlign:
				wantSeed, wantTag = CNT_UP_INIT_VAL, PWM_MODE_LEFT
			case align == RightAlign:
				wantSeed, wantTag = 999, PWM_MODE_RIGHT
			default:
				wantSeed, wantTag = CNT_UP_DOWN_INIT_VAL, PWM_MODE_CNTR_OR_ASYMM
			}

			if res.Counter != wantSeed || res.TrCtrl2 != wantTag {
				t.Errorf("%v/%v: seed=%d tag=%#x, want seed=%d tag=%#x",
					mode, align, res.Counter, res.TrCtrl2, wantSeed, wantTag)
			}
		}
	}
}

func TestOutputTags(t *testing.T) {
	tags := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"left", PWM_MODE_LEFT, 0x31},
		{"right", PWM_MODE_RIGHT, 0x1C},
		{"center/asymmetric", PWM_MODE_CNTR_OR_ASYMM, 0x12},
		{"pseudorandom", PWM_MODE_PR, 0x3F},
	}
	for _, tc := range tags {
		if tc.got != tc.want {
			t.Errorf("%s tag = %#x, want %#x", tc.name, tc.got, tc.want)
		}
	}
}

func TestResolveGenericField(t *testing.T) {
	testCases := []struct {
		mode PWMMode
		want uint32
	}{
		{Standard{Prescaler: DivBy1}, 0},
		{Standard{Prescaler: DivBy8}, 3},
		{Standard{Prescaler: DivBy128}, 7},
		{PseudoRandom{Prescaler: DivBy16}, 4},
		{DeadTime{Clocks: 0}, 0},
		{DeadTime{Clocks: 37}, 37},
		{DeadTime{Clocks: 255}, 255},
	}

	for _, tc := range testCases {
		res := Resolve(&PWMConfig{Mode: tc.mode})
		if got := CNT_CTRL_GENERIC.Get(res.Ctrl); got != tc.want {
			t.Errorf("%v: GENERIC = %d, want %d", tc.mode, got, tc.want)
		}
	}
}

func TestResolveControlWord(t *testing.T) {
	testCases := []struct {
		name string
		cfg  PWMConfig
		want uint32
	}{
		{
			name: "zero value",
			cfg:  PWMConfig{},
			want: 0x04000000,
		},
		{
			name: "standard right oneshot",
			cfg: PWMConfig{
				Mode:        Standard{Prescaler: DivBy4},
				Alignment:   RightAlign,
				RunMode:     OneShot,
				CompareSwap: true,
				InvertOutN:  true,
				KillMode:    StopOnKill,
			},
			want: 0x04250209,
		},
		{
			name: "deadtime center",
			cfg: PWMConfig{
				Mode:       DeadTime{Clocks: 0x25},
				Alignment:  CenterAlign,
				PeriodSwap: true,
				InvertOut:  true,
				KillMode:   SyncKill,
			},
			want: 0x05122506,
		},
		{
			name: "pseudorandom keeps alignment bits",
			cfg: PWMConfig{
				Mode:      PseudoRandom{Prescaler: DivBy1},
				Alignment: AsymmetricAlign,
			},
			want: 0x06030000,
		},
	}

	for _, tc := range testCases {
		got := Resolve(&tc.cfg).Ctrl
		if got != tc.want {
			t.Errorf("%s: ctrl = %#08x, want %#08x", tc.name, got, tc.want)
		}
		t.Logf("%s: ctrl=%#08x", tc.name, got)
	}
}

func TestTriggerWords(t *testing.T) {
	r := &InputRouting{
		Count:  Input1,
		Swap:   Trig(0),
		Reload: Input0,
		Start:  Trig(3),
		Kill:   Trig(13),
	}
	if got := r.TrCtrl0(); got != 0x5F012 {
		t.Errorf("TR_CTRL0 = %#x, want 0x5f012", got)
	}

	m := InputModes{
		Count:  Level,
		Swap:   RisingEdge,
		Reload: FallingEdge,
		Start:  BothEdges,
		Kill:   Level,
	}
	if got := m.TrCtrl1(); got != 0x2DC {
		t.Errorf("TR_CTRL1 = %#x, want 0x2dc", got)
	}

	if back := RoutingFromTrCtrl0(r.TrCtrl0()); back != *r {
		t.Errorf("routing round trip: %+v", back)
	}
	if back := InputModesFromTrCtrl1(m.TrCtrl1()); back != m {
		t.Errorf("input modes round trip: %+v", back)
	}
}
