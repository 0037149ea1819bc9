package core

import (
	"sort"
	"sync"

	"psocpwm/tinycompress"
)

// Dictionary describes the firmware to the host: its message signatures,
// constants and enumerations, as zlib-wrapped JSON served in chunks by the
// identify command.
type Dictionary struct {
	mu            sync.Mutex
	commandReg    *CommandRegistry
	version       string
	buildVersions string
	constants     map[string]any
	enumerations  map[string][]string
	cached        []byte
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(reg *CommandRegistry) *Dictionary {
	return &Dictionary{
		commandReg:    reg,
		version:       "psocpwm-0.1.0",
		buildVersions: "go-tinygo",
		constants:     make(map[string]any),
		enumerations:  make(map[string][]string),
	}
}

// RegisterConstant publishes a value in the global dictionary.
func RegisterConstant(name string, value any) {
	globalDictionary.AddConstant(name, value)
}

// RegisterEnumeration publishes value names, the index being the wire value.
func RegisterEnumeration(name string, values []string) {
	globalDictionary.AddEnumeration(name, values)
}

func (d *Dictionary) AddConstant(name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = append([]string(nil), values...)
	d.cached = nil
}

func (d *Dictionary) SetVersion(version string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.cached = nil
}

func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = versions
	d.cached = nil
}

// BuildDictionary renders and caches the compressed dictionary. Call it
// once every command is registered; later registrations need another call.
func (d *Dictionary) BuildDictionary() {
	// Taken before d.mu: the registry lock must never nest inside it
	commands, responses := d.commandReg.GetCommandsAndResponses()

	d.mu.Lock()
	defer d.mu.Unlock()
	raw := d.buildJSONLocked(commands, responses)
	d.cached = tinycompress.Compress(raw)
	DebugPrintln("[dict] " + itoa(len(raw)) + " bytes json, " + itoa(len(d.cached)) + " bytes served")
}

// Generate returns the compressed dictionary, building it if needed.
func (d *Dictionary) Generate() []byte {
	d.mu.Lock()
	cached := d.cached
	d.mu.Unlock()
	if cached == nil {
		d.BuildDictionary()
		d.mu.Lock()
		cached = d.cached
		d.mu.Unlock()
	}
	return cached
}

// JSON returns the uncompressed dictionary.
func (d *Dictionary) JSON() []byte {
	commands, responses := d.commandReg.GetCommandsAndResponses()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buildJSONLocked(commands, responses)
}

func (d *Dictionary) buildJSONLocked(commands, responses map[string]int) []byte {
	out := make([]byte, 0, 2048)
	out = append(out, `{"version":`...)
	out = jsonQuote(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = jsonQuote(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	for i, name := range sortedKeys(d.constants) {
		if i > 0 {
			out = append(out, ',')
		}
		out = jsonQuote(out, name)
		out = append(out, ':')
		out = jsonQuote(out, valueToString(d.constants[name]))
	}

	out = append(out, `},"commands":`...)
	out = appendIDMap(out, commands)
	out = append(out, `,"responses":`...)
	out = appendIDMap(out, responses)

	if len(d.enumerations) > 0 {
		out = append(out, `,"enumerations":{`...)
		for i, name := range sortedKeys(d.enumerations) {
			if i > 0 {
				out = append(out, ',')
			}
			out = jsonQuote(out, name)
			out = append(out, ":{"...)
			first := true
			for v, value := range d.enumerations[name] {
				if value == "" {
					continue
				}
				if !first {
					out = append(out, ',')
				}
				first = false
				out = jsonQuote(out, value)
				out = append(out, ':')
				out = append(out, itoa(v)...)
			}
			out = append(out, '}')
		}
		out = append(out, '}')
	}
	return append(out, '}')
}

// appendIDMap writes m ordered by ID.
func appendIDMap(out []byte, m map[string]int) []byte {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })

	out = append(out, '{')
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = jsonQuote(out, name)
		out = append(out, ':')
		out = append(out, itoa(m[name])...)
	}
	return append(out, '}')
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetChunk returns a copy of up to count bytes at offset. Past the end it
// returns an empty chunk, which tells the host the transfer is complete.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := min(offset+uint32(count), uint32(len(data)))
	return append([]byte(nil), data[offset:end]...)
}

func GetGlobalDictionary() *Dictionary { return globalDictionary }
