package mcu

import (
	"fmt"
	"strings"

	"psocpwm/protocol"
)

// Format is a message signature from the data dictionary, such as
// "tcpwm_status cnt=%c status=%c".
type Format struct {
	ID     uint16
	Name   string
	Params []Param
}

// Param is one argument of a message.
type Param struct {
	Name string
	Type string // %u, %i, %c, %hu, %hi or %*s
}

// ParseFormat splits a dictionary signature into its name and arguments.
func ParseFormat(id uint16, signature string) (*Format, error) {
	fields := strings.Fields(signature)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty message signature")
	}
	f := &Format{ID: id, Name: fields[0]}
	for _, field := range fields[1:] {
		name, typ, ok := strings.Cut(field, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%s: malformed argument %q", f.Name, field)
		}
		switch typ {
		case "%u", "%i", "%c", "%hu", "%hi", "%*s":
		default:
			return nil, fmt.Errorf("%s: unsupported type %s for %s", f.Name, typ, name)
		}
		f.Params = append(f.Params, Param{Name: name, Type: typ})
	}
	return f, nil
}

// Encode writes args, without the message ID. Byte string arguments are
// not used by any command and are rejected.
func (f *Format) Encode(out protocol.OutputBuffer, args []uint32) error {
	if len(args) != len(f.Params) {
		return fmt.Errorf("%s: %d arguments, want %d", f.Name, len(args), len(f.Params))
	}
	for i, p := range f.Params {
		if p.Type == "%*s" {
			return fmt.Errorf("%s: byte string argument %s not supported", f.Name, p.Name)
		}
		if p.Type == "%c" && args[i] > 0xFF {
			return fmt.Errorf("%s: %s=%d does not fit a byte", f.Name, p.Name, args[i])
		}
	}
	for _, v := range args {
		protocol.EncodeVLQUint(out, v)
	}
	return nil
}

// Params holds a decoded response.
type Params struct {
	Name   string
	Values map[string]uint32
	Data   []byte // The %*s argument, if any
}

// Get returns argument name, or 0 if the response has none.
func (p *Params) Get(name string) uint32 { return p.Values[name] }

func (p *Params) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	for k, v := range p.Values {
		fmt.Fprintf(&b, " %s=%d", k, v)
	}
	if p.Data != nil {
		fmt.Fprintf(&b, " data=%q", p.Data)
	}
	return b.String()
}

// Decode reads the arguments of f from the front of *data. The message ID
// must already be consumed.
func (f *Format) Decode(data *[]byte) (*Params, error) {
	p := &Params{Name: f.Name, Values: make(map[string]uint32, len(f.Params))}
	for _, param := range f.Params {
		var err error
		switch param.Type {
		case "%*s":
			p.Data, err = protocol.DecodeVLQBytes(data)
		case "%i", "%hi":
			var v int32
			v, err = protocol.DecodeVLQInt(data)
			p.Values[param.Name] = uint32(v)
		default:
			p.Values[param.Name], err = protocol.DecodeVLQUint(data)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", f.Name, param.Name, err)
		}
	}
	return p, nil
}
