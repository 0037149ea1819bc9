package core

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownCommand = errors.New("core: unknown command")

// CommandHandler decodes its own arguments from the front of *data.
type CommandHandler func(data *[]byte) error

// Command is a message known to the firmware. Commands flow host to MCU
// and have a handler; responses flow MCU to host and have none.
type Command struct {
	ID      uint16
	Name    string
	Format  string // "cnt=%c value=%u"
	Handler CommandHandler
}

// Signature is the dictionary form: the name followed by the format.
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// CommandRegistry assigns message IDs in registration order.
type CommandRegistry struct {
	mu     sync.RWMutex
	byID   []*Command
	byName map[string]*Command
}

var globalRegistry = NewCommandRegistry()

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]*Command)}
}

// Register adds a message and returns its ID. Registering a known name
// again replaces its handler and keeps the ID.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd, ok := r.byName[name]; ok {
		cmd.Format = format
		cmd.Handler = handler
		return cmd.ID
	}
	cmd := &Command{ID: uint16(len(r.byID)), Name: name, Format: format, Handler: handler}
	r.byID = append(r.byID, cmd)
	r.byName[name] = cmd
	return cmd.ID
}

func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Dispatch runs the handler of message id. Responses and unknown IDs are
// rejected.
func (r *CommandRegistry) Dispatch(id uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(id)
	if !ok || cmd.Handler == nil {
		return unknownCommand(id)
	}
	return cmd.Handler(data)
}

func unknownCommand(id uint16) error {
	return &commandError{id: id}
}

type commandError struct{ id uint16 }

func (e *commandError) Error() string { return "core: unknown command id " + itoa(int(e.id)) }
func (e *commandError) Unwrap() error { return ErrUnknownCommand }

// GetCommandsAndResponses returns signature to ID maps for the dictionary.
func (r *CommandRegistry) GetCommandsAndResponses() (commands, responses map[string]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands = make(map[string]int)
	responses = make(map[string]int)
	for _, cmd := range r.byID {
		if cmd.Handler != nil {
			commands[cmd.Signature()] = int(cmd.ID)
		} else {
			responses[cmd.Signature()] = int(cmd.ID)
		}
	}
	return commands, responses
}

// GetDictionary lists every signature by name, one per line.
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	lines := make([]string, 0, len(r.byID))
	for _, cmd := range r.byID {
		lines = append(lines, cmd.Signature())
	}
	r.mu.RUnlock()
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// RegisterCommand registers a host to MCU command in the global registry.
func RegisterCommand(name, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse registers an MCU to host message in the global registry.
func RegisterResponse(name, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// DispatchCommand is the protocol.CommandHandler of the firmware.
func DispatchCommand(id uint16, data *[]byte) error {
	return globalRegistry.Dispatch(id, data)
}

func GetGlobalRegistry() *CommandRegistry { return globalRegistry }
