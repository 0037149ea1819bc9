// Package sim runs the firmware command layer in-process against simulated
// peripherals, behind the same serial.Port a real board is reached through.
//
// The firmware keeps its state in package globals, so only one Loopback
// may be open at a time.
package sim

import (
	"errors"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/Sirupsen/logrus.v0"

	"psocpwm/core"
	"psocpwm/lvd"
	"psocpwm/protocol"
	"psocpwm/regs"
	"psocpwm/syspm"
	"psocpwm/tcpwm"
)

// Loopback is a serial.Port whose far end is the firmware.
type Loopback struct {
	Block *tcpwm.Block
	Regs  *regs.Memory
	LVD   *lvd.LVD

	// SetSupplyOk moves the simulated supply across the LVD threshold
	SetSupplyOk func(ok bool)

	hostR *io.PipeReader // Firmware to host
	mcuW  *io.PipeWriter
	mcuR  *io.PipeReader // Host to firmware
	hostW *io.PipeWriter

	transport *protocol.Transport
	out       *protocol.ScratchOutput
	group     errgroup.Group
	once      sync.Once

	sleepMu sync.Mutex
	sleeps  int
}

// New starts a simulated MCU with TCPWM instance inst.
func New(inst tcpwm.Instance) *Loopback {
	l := &Loopback{out: protocol.NewScratchOutput()}
	l.hostR, l.mcuW = io.Pipe()
	l.mcuR, l.hostW = io.Pipe()

	l.Block, l.Regs = tcpwm.NewSimBlock(inst)
	l.LVD, _, l.SetSupplyOk = lvd.NewSim()

	chain := &syspm.Chain{}
	chain.Register(l.LVD.DeepSleepCallback())

	log := logrus.WithField("sim", inst.Name)
	core.SetDebugWriter(func(s string) { log.Debug(s) })
	core.SetTCPWMBlock(l.Block)
	core.SetLVD(l.LVD)
	core.SetPowerChain(chain, l.enterDeepSleep)
	core.ResetFirmwareState()
	core.InitFirmware("psoc6-sim")

	l.transport = protocol.NewTransport(l.out, core.DispatchCommand)
	l.transport.SetErrorCallback(func(id uint16, err error) {
		log.WithField("cmd", id).WithError(err).Warn("command failed")
	})
	core.SetGlobalTransport(l.transport)

	l.group.Go(l.pump)
	return l
}

// enterDeepSleep powers down what deep sleep powers down and wakes up
// immediately.
func (l *Loopback) enterDeepSleep() {
	l.sleepMu.Lock()
	l.sleeps++
	l.sleepMu.Unlock()
	l.LVD.Disable()
}

// Sleeps returns the number of deep sleep entries.
func (l *Loopback) Sleeps() int {
	l.sleepMu.Lock()
	defer l.sleepMu.Unlock()
	return l.sleeps
}

// pump is the firmware main loop: feed received bytes to the transport and
// push out whatever it encoded.
func (l *Loopback) pump() error {
	fifo := protocol.NewFifoBuffer(1024)
	buf := make([]byte, 256)
	for {
		n, err := l.mcuR.Read(buf)
		if n > 0 {
			fifo.Write(buf[:n])
			l.transport.Receive(fifo)
			if reply := l.out.Result(); len(reply) > 0 {
				_, werr := l.mcuW.Write(reply)
				l.out.Reset()
				if werr != nil {
					return ignoreClosed(werr)
				}
			}
		}
		if err != nil {
			return ignoreClosed(err)
		}
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

func (l *Loopback) Read(b []byte) (int, error)  { return l.hostR.Read(b) }
func (l *Loopback) Write(b []byte) (int, error) { return l.hostW.Write(b) }
func (l *Loopback) Flush() error                { return nil }
func (l *Loopback) String() string              { return "sim" }

// Close stops the firmware and detaches it from the core globals.
func (l *Loopback) Close() error {
	var err error
	l.once.Do(func() {
		l.hostW.Close()
		l.hostR.Close()
		err = l.group.Wait()
		l.mcuW.Close()
		core.SetGlobalTransport(nil)
		core.SetDebugWriter(nil)
	})
	return err
}
