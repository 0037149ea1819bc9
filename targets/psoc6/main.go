//go:build tinygo

package main

import (
	"machine"
	"time"

	"psocpwm/core"
	"psocpwm/lvd"
	"psocpwm/protocol"
	"psocpwm/regs"
	"psocpwm/syspm"
	"psocpwm/tcpwm"
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	msgerrors uint32
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})

	block := tcpwm.NewBlock(regs.MMIO{}, tcpwm.TCPWM0)
	detector := lvd.New(regs.MMIO{}, lvd.SRSS_BASE)

	chain := &syspm.Chain{}
	chain.Register(detector.DeepSleepCallback())

	core.SetTCPWMBlock(block)
	core.SetLVD(detector)
	core.SetPowerChain(chain, deepSleep)
	core.InitFirmware("psoc6")

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		core.ResetFirmwareState()
	})
	// Acks must leave before any response the command produces
	transport.SetFlushCallback(writeSerial)
	transport.SetErrorCallback(func(id uint16, err error) {
		msgerrors++
	})
	core.SetGlobalTransport(transport)

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			readSerial()
			if inputBuffer.Available() > 0 {
				transport.Receive(inputBuffer)
			}
			writeSerial()
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

var rx [1]byte

func readSerial() {
	for machine.Serial.Buffered() > 0 && inputBuffer.Free() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			msgerrors++
			return
		}
		rx[0] = b
		inputBuffer.Write(rx[:])
	}
}

func writeSerial() {
	if result := outputBuffer.Result(); len(result) > 0 {
		if _, err := machine.Serial.Write(result); err != nil {
			msgerrors++
		}
		outputBuffer.Reset()
	}
}
