// Package mcu is the host side of a session with the psoc6 firmware.
package mcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"

	"psocpwm/host/serial"
	"psocpwm/protocol"
)

// IDs fixed by the firmware so the dictionary can be fetched before it is
// known.
const (
	identifyResponseID = 0
	identifyID         = 1
	identifyChunk      = 40
)

var (
	ErrNotConnected = errors.New("mcu: not connected")
	ErrNoDictionary = errors.New("mcu: dictionary not loaded")
	ErrUnknown      = errors.New("mcu: unknown message")
)

// MCU represents a connection to the firmware.
type MCU struct {
	transport *protocol.HostTransport
	port      serial.Port

	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]*Format
	responses      map[uint16]*Format

	// Responses decoded but not yet claimed by Await
	mu      sync.Mutex
	pending []*Params

	Timeout time.Duration
	log     *logrus.Entry
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`
}

// Connect opens the serial device described by cfg.
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return ConnectPort(port), nil
}

// ConnectPort starts a session over an already open port.
func ConnectPort(port serial.Port) *MCU {
	if err := port.Flush(); err != nil {
		logrus.WithError(err).Debug("flush before connect")
	}
	return &MCU{
		port:      port,
		transport: protocol.NewHostTransport(port),
		Timeout:   protocol.DefaultTimeout,
		log:       logrus.WithField("mcu", fmt.Sprint(port)),
	}
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if m.transport == nil {
		return nil
	}
	return m.transport.Close()
}

// RetrieveDictionary fetches the dictionary with identify until the
// firmware answers with an empty chunk.
func (m *MCU) RetrieveDictionary() error {
	if m.transport == nil {
		return ErrNotConnected
	}

	var buf bytes.Buffer
	for {
		chunk, err := m.identify(uint32(buf.Len()))
		if err != nil {
			return fmt.Errorf("dictionary at offset %d: %w", buf.Len(), err)
		}
		if len(chunk) == 0 {
			break
		}
		buf.Write(chunk)
	}
	m.log.WithField("bytes", buf.Len()).Debug("dictionary retrieved")

	r, err := zlib.NewReader(&buf)
	if err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	return m.LoadDictionary(raw)
}

func (m *MCU) identify(offset uint32) ([]byte, error) {
	m.transport.Drain()
	err := m.transport.SendCommandWithTimeout(identifyID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQUint(out, identifyChunk)
	}, m.Timeout)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(m.Timeout)
	for {
		msg, err := m.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		id, payload, err := msg.ID()
		if err != nil {
			return nil, err
		}
		if id != identifyResponseID {
			continue
		}
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if got != offset {
			// Late answer to an earlier request
			continue
		}
		return protocol.DecodeVLQBytes(&payload)
	}
}

// LoadDictionary parses an uncompressed dictionary.
func (m *MCU) LoadDictionary(raw []byte) error {
	dict := &Dictionary{}
	if err := json.Unmarshal(raw, dict); err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}

	commands := make(map[string]*Format, len(dict.Commands))
	for sig, id := range dict.Commands {
		f, err := ParseFormat(uint16(id), sig)
		if err != nil {
			return fmt.Errorf("dictionary: %w", err)
		}
		commands[f.Name] = f
	}
	responses := make(map[uint16]*Format, len(dict.Responses))
	for sig, id := range dict.Responses {
		f, err := ParseFormat(uint16(id), sig)
		if err != nil {
			return fmt.Errorf("dictionary: %w", err)
		}
		responses[f.ID] = f
	}

	m.dictionary = dict
	m.dictionaryData = raw
	m.commands = commands
	m.responses = responses
	m.log.WithFields(logrus.Fields{
		"version":   dict.Version,
		"commands":  len(commands),
		"responses": len(responses),
	}).Info("dictionary loaded")
	return nil
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary { return m.dictionary }

// GetDictionaryRaw returns the uncompressed dictionary JSON
func (m *MCU) GetDictionaryRaw() []byte { return m.dictionaryData }

// Constant returns a dictionary constant such as CLOCK_FREQ.
func (m *MCU) Constant(name string) (string, bool) {
	if m.dictionary == nil {
		return "", false
	}
	v, ok := m.dictionary.Config[name]
	return v, ok
}

// Enumeration returns the wire value of name in enumeration enum.
func (m *MCU) Enumeration(enum, name string) (uint32, bool) {
	if m.dictionary == nil {
		return 0, false
	}
	v, ok := m.dictionary.Enumerations[enum][name]
	return uint32(v), ok
}

// Send encodes command name with args, in signature order, and waits for
// the firmware to acknowledge it.
func (m *MCU) Send(name string, args ...uint32) error {
	if m.transport == nil {
		return ErrNotConnected
	}
	if m.commands == nil {
		return ErrNoDictionary
	}
	f, ok := m.commands[name]
	if !ok {
		return fmt.Errorf("%w: command %s", ErrUnknown, name)
	}

	out := protocol.NewScratchOutput()
	if err := f.Encode(out, args); err != nil {
		return err
	}
	m.log.WithField("cmd", name).Debugf("send %v", args)
	return m.transport.SendCommandWithTimeout(f.ID, func(o protocol.OutputBuffer) {
		o.Output(out.Result())
	}, m.Timeout)
}

// Query sends a command and waits for the response called resp.
func (m *MCU) Query(name string, resp string, args ...uint32) (*Params, error) {
	m.transport.Drain()
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()

	if err := m.Send(name, args...); err != nil {
		return nil, err
	}
	return m.Await(resp)
}

// Await returns the next response called one of names, dropping others.
func (m *MCU) Await(names ...string) (*Params, error) {
	want := func(p *Params) bool {
		for _, n := range names {
			if p.Name == n {
				return true
			}
		}
		return false
	}

	deadline := time.Now().Add(m.Timeout)
	for {
		m.mu.Lock()
		for len(m.pending) > 0 {
			p := m.pending[0]
			m.pending = m.pending[1:]
			if want(p) {
				m.mu.Unlock()
				return p, nil
			}
			m.log.WithField("resp", p.Name).Debug("dropping unexpected response")
		}
		m.mu.Unlock()

		msg, err := m.transport.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, fmt.Errorf("waiting for %v: %w", names, err)
		}
		decoded, err := m.decode(msg.Payload)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.pending = append(m.pending, decoded...)
		m.mu.Unlock()
	}
}

// decode splits a frame into its messages.
func (m *MCU) decode(payload []byte) ([]*Params, error) {
	var out []*Params
	for len(payload) > 0 {
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		f, ok := m.responses[uint16(id)]
		if !ok {
			return nil, fmt.Errorf("%w: response id %d", ErrUnknown, id)
		}
		p, err := f.Decode(&payload)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
