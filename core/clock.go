package core

import (
	"sync/atomic"
	"time"

	"psocpwm/protocol"
)

// ClockFreq is the rate of the clock reported to the host, the TCPWM
// counter clock of the default PSoC 6 configuration.
const ClockFreq = 50000000

var (
	bootTime    = time.Now()
	clockSource atomic.Pointer[func() uint64]
)

// SetClockSource replaces the monotonic tick source. Targets with a free
// running hardware counter install it here; the default derives ticks from
// the time package.
func SetClockSource(fn func() uint64) {
	if fn == nil {
		clockSource.Store(nil)
		return
	}
	clockSource.Store(&fn)
}

// GetUptime returns 64-bit uptime in clock ticks.
func GetUptime() uint64 {
	if fn := clockSource.Load(); fn != nil {
		return (*fn)()
	}
	return uint64(time.Since(bootTime)) * (ClockFreq / 1000000) / 1000
}

// GetTime returns the low 32 bits of the uptime.
func GetTime() uint32 { return uint32(GetUptime()) }

// TimerFromUS converts microseconds to clock ticks.
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * ClockFreq / 1000000)
}

// InitClockCommands registers get_uptime and get_clock.
func InitClockCommands() {
	RegisterConstant("CLOCK_FREQ", uint32(ClockFreq))

	RegisterCommand("get_uptime", "", func(data *[]byte) error {
		up := GetUptime()
		SendResponse("uptime", func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, uint32(up>>32))
			protocol.EncodeVLQUint(out, uint32(up))
		})
		return nil
	})
	RegisterCommand("get_clock", "", func(data *[]byte) error {
		now := GetTime()
		SendResponse("clock", func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, now)
		})
		return nil
	})

	RegisterResponse("uptime", "high=%u clock=%u")
	RegisterResponse("clock", "clock=%u")
}
