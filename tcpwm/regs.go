package tcpwm

import "psocpwm/regs"

// TCPWM register map, PSoC 6 TCPWM version 1
// Based on the PSoC 6 MCU registers technical reference manual

// Block-level register offsets
const (
	TCPWM_CTRL        = 0x00 // Counter enable bits, one per counter
	TCPWM_CTRL_CLR    = 0x04 // Write 1 to clear CTRL bits
	TCPWM_CTRL_SET    = 0x08 // Write 1 to set CTRL bits
	TCPWM_CMD_CAPTURE = 0x0C // Capture/swap trigger, one bit per counter
	TCPWM_CMD_RELOAD  = 0x10 // Reload trigger
	TCPWM_CMD_STOP    = 0x14 // Stop/kill trigger
	TCPWM_CMD_START   = 0x18 // Start trigger
	TCPWM_INTR_CAUSE  = 0x1C // Pending interrupt per counter (read only)

	TCPWM_CNT_BASE   = 0x100 // Offset of counter 0
	TCPWM_CNT_STRIDE = 0x40  // Size of one counter register block
)

// Counter register offsets, relative to the counter block
const (
	CNT_CTRL        = 0x00 // Counter control
	CNT_STATUS      = 0x04 // Counter status (read only)
	CNT_COUNTER     = 0x08 // Counter value
	CNT_CC          = 0x0C // Compare/capture
	CNT_CC_BUFF     = 0x10 // Buffered compare/capture
	CNT_PERIOD      = 0x14 // Period
	CNT_PERIOD_BUFF = 0x18 // Buffered period
	CNT_TR_CTRL0    = 0x20 // Trigger input selection
	CNT_TR_CTRL1    = 0x24 // Trigger input edge detection
	CNT_TR_CTRL2    = 0x28 // Line output on CC match / overflow / underflow
	CNT_INTR        = 0x30 // Interrupt request (write 1 to clear)
	CNT_INTR_SET    = 0x34 // Interrupt set request
	CNT_INTR_MASK   = 0x38 // Interrupt mask
	CNT_INTR_MASKED = 0x3C // INTR & INTR_MASK (read only)
)

// CNT_CTRL fields
var (
	CNT_CTRL_AUTO_RELOAD_CC     = regs.Bit(0)                     // Swap CC and CC_BUFF on CC event
	CNT_CTRL_AUTO_RELOAD_PERIOD = regs.Bit(1)                     // Swap PERIOD and PERIOD_BUFF on TC
	CNT_CTRL_KILL               = regs.Field{Pos: 2, Width: 2}    // PWM_SYNC_KILL | PWM_STOP_ON_KILL
	CNT_CTRL_GENERIC            = regs.Field{Pos: 8, Width: 8}    // Prescaler or dead time, by mode
	CNT_CTRL_UP_DOWN_MODE       = regs.Field{Pos: 16, Width: 2}   // Counting direction
	CNT_CTRL_ONE_SHOT           = regs.Bit(18)                    // Stop on terminal count
	CNT_CTRL_QUADRATURE_MODE    = regs.Field{Pos: 20, Width: 2}   // PWM output polarity in PWM modes
	CNT_CTRL_MODE               = regs.Field{Pos: 24, Width: 3}   // Counter function
)

// CNT_STATUS fields
var (
	CNT_STATUS_DOWN    = regs.Bit(0)                  // Counting down
	CNT_STATUS_GENERIC = regs.Field{Pos: 8, Width: 8} // Prescaler / dead time counter
	CNT_STATUS_RUNNING = regs.Bit(31)                 // Counter running
)

// CNT_TR_CTRL0 fields
var (
	CNT_TR_CTRL0_CAPTURE_SEL = regs.Field{Pos: 0, Width: 4}
	CNT_TR_CTRL0_COUNT_SEL   = regs.Field{Pos: 4, Width: 4}
	CNT_TR_CTRL0_RELOAD_SEL  = regs.Field{Pos: 8, Width: 4}
	CNT_TR_CTRL0_STOP_SEL    = regs.Field{Pos: 12, Width: 4}
	CNT_TR_CTRL0_START_SEL   = regs.Field{Pos: 16, Width: 4}
)

// CNT_TR_CTRL1 fields
var (
	CNT_TR_CTRL1_CAPTURE_EDGE = regs.Field{Pos: 0, Width: 2}
	CNT_TR_CTRL1_COUNT_EDGE   = regs.Field{Pos: 2, Width: 2}
	CNT_TR_CTRL1_RELOAD_EDGE  = regs.Field{Pos: 4, Width: 2}
	CNT_TR_CTRL1_STOP_EDGE    = regs.Field{Pos: 6, Width: 2}
	CNT_TR_CTRL1_START_EDGE   = regs.Field{Pos: 8, Width: 2}
)

// CNT_TR_CTRL2 fields
var (
	CNT_TR_CTRL2_CC_MATCH_MODE  = regs.Field{Pos: 0, Width: 2}
	CNT_TR_CTRL2_OVERFLOW_MODE  = regs.Field{Pos: 2, Width: 2}
	CNT_TR_CTRL2_UNDERFLOW_MODE = regs.Field{Pos: 4, Width: 2}
)

// CNT_TR_CTRL2 line actions
const (
	TR_CTRL2_SET       = 0
	TR_CTRL2_CLEAR     = 1
	TR_CTRL2_INVERT    = 2
	TR_CTRL2_NO_CHANGE = 3
)

// Counter functions (CNT_CTRL.MODE)
const (
	CNT_MODE_TIMER   = 0
	CNT_MODE_CAPTURE = 2
	CNT_MODE_QUAD    = 3
	CNT_MODE_PWM     = 4
	CNT_MODE_PWM_DT  = 5
	CNT_MODE_PWM_PR  = 6
)

// Interrupt bits (CNT_INTR, CNT_INTR_SET, CNT_INTR_MASK)
const (
	CNT_INTR_TC       = 1 << 0 // Terminal count
	CNT_INTR_CC_MATCH = 1 << 1 // Compare match / capture
)

// Hardware reset values restored by PWMDeInit
const (
	CNT_CTRL_DEFAULT        = 0x0
	CNT_COUNTER_DEFAULT     = 0x0
	CNT_CC_DEFAULT          = 0xFFFFFFFF
	CNT_CC_BUFF_DEFAULT     = 0xFFFFFFFF
	CNT_PERIOD_DEFAULT      = 0xFFFFFFFF
	CNT_PERIOD_BUFF_DEFAULT = 0xFFFFFFFF
	CNT_TR_CTRL0_DEFAULT    = 0x10 // Count input tied to constant 1
	CNT_TR_CTRL1_DEFAULT    = 0x3FF
	CNT_TR_CTRL2_DEFAULT    = 0x3F
	CNT_INTR_DEFAULT        = 0x3
	CNT_INTR_SET_DEFAULT    = 0x0
	CNT_INTR_MASK_DEFAULT   = 0x0
)

// Counter seed values
const (
	CNT_UP_INIT_VAL      = 0x0 // Counting up from zero
	CNT_UP_DOWN_INIT_VAL = 0x1 // Up/down counting starts at 1
)

// TR_CTRL2 line output tags for each PWM waveform
var (
	PWM_MODE_LEFT = CNT_TR_CTRL2_CC_MATCH_MODE.Val(TR_CTRL2_CLEAR) |
		CNT_TR_CTRL2_OVERFLOW_MODE.Val(TR_CTRL2_SET) |
		CNT_TR_CTRL2_UNDERFLOW_MODE.Val(TR_CTRL2_NO_CHANGE)
	PWM_MODE_RIGHT = CNT_TR_CTRL2_CC_MATCH_MODE.Val(TR_CTRL2_SET) |
		CNT_TR_CTRL2_OVERFLOW_MODE.Val(TR_CTRL2_NO_CHANGE) |
		CNT_TR_CTRL2_UNDERFLOW_MODE.Val(TR_CTRL2_CLEAR)
	PWM_MODE_CNTR_OR_ASYMM = CNT_TR_CTRL2_CC_MATCH_MODE.Val(TR_CTRL2_INVERT) |
		CNT_TR_CTRL2_OVERFLOW_MODE.Val(TR_CTRL2_SET) |
		CNT_TR_CTRL2_UNDERFLOW_MODE.Val(TR_CTRL2_CLEAR)
	PWM_MODE_PR = CNT_TR_CTRL2_CC_MATCH_MODE.Val(TR_CTRL2_NO_CHANGE) |
		CNT_TR_CTRL2_OVERFLOW_MODE.Val(TR_CTRL2_NO_CHANGE) |
		CNT_TR_CTRL2_UNDERFLOW_MODE.Val(TR_CTRL2_NO_CHANGE)
)

// counterRegs lists every counter register with its reset value, in address order.
var counterRegs = []struct {
	Name   string
	Offset uintptr
	Reset  uint32
}{
	{"CTRL", CNT_CTRL, CNT_CTRL_DEFAULT},
	{"STATUS", CNT_STATUS, 0},
	{"COUNTER", CNT_COUNTER, CNT_COUNTER_DEFAULT},
	{"CC", CNT_CC, CNT_CC_DEFAULT},
	{"CC_BUFF", CNT_CC_BUFF, CNT_CC_BUFF_DEFAULT},
	{"PERIOD", CNT_PERIOD, CNT_PERIOD_DEFAULT},
	{"PERIOD_BUFF", CNT_PERIOD_BUFF, CNT_PERIOD_BUFF_DEFAULT},
	{"TR_CTRL0", CNT_TR_CTRL0, CNT_TR_CTRL0_DEFAULT},
	{"TR_CTRL1", CNT_TR_CTRL1, CNT_TR_CTRL1_DEFAULT},
	{"TR_CTRL2", CNT_TR_CTRL2, CNT_TR_CTRL2_DEFAULT},
	{"INTR", CNT_INTR, CNT_INTR_DEFAULT},
	{"INTR_SET", CNT_INTR_SET, CNT_INTR_SET_DEFAULT},
	{"INTR_MASK", CNT_INTR_MASK, CNT_INTR_MASK_DEFAULT},
	{"INTR_MASKED", CNT_INTR_MASKED, 0},
}
