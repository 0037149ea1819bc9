package core

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type dictionaryJSON struct {
	Version      string                    `json:"version"`
	Config       map[string]string         `json:"config"`
	Commands     map[string]int            `json:"commands"`
	Responses    map[string]int            `json:"responses"`
	Enumerations map[string]map[string]int `json:"enumerations"`
}

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDictionary(t *testing.T) {
	reg := NewCommandRegistry()
	dict := NewDictionary(reg)
	dict.AddConstant("TEST_CONST", uint32(42))
	dict.AddConstant("TEST_STR", `say "hi"`)
	dict.AddEnumeration("test_pins", []string{"P0_0", "", "P0_2"})
	reg.Register("test_response", "value=%u", nil)
	reg.Register("test_cmd", "arg=%u", func(data *[]byte) error { return nil })

	raw := dict.JSON()
	t.Logf("dictionary: %s", raw)

	var got dictionaryJSON
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := dictionaryJSON{
		Version:      "psocpwm-0.1.0",
		Config:       map[string]string{"TEST_CONST": "42", "TEST_STR": `say "hi"`},
		Commands:     map[string]int{"test_cmd arg=%u": 1},
		Responses:    map[string]int{"test_response value=%u": 0},
		Enumerations: map[string]map[string]int{"test_pins": {"P0_0": 0, "P0_2": 2}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dictionary (-want +got):\n%s", diff)
	}

	if inflated := inflate(t, dict.Generate()); !bytes.Equal(inflated, raw) {
		t.Errorf("Generate() inflates to %q", inflated)
	}

	// Registrations after a build invalidate the cached copy
	dict.AddConstant("LATE", 7)
	if inflated := inflate(t, dict.Generate()); !bytes.Contains(inflated, []byte(`"LATE":"7"`)) {
		t.Errorf("stale dictionary: %s", inflated)
	}
}

func TestDictionaryChunks(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	full := dict.Generate()

	var got []byte
	for offset := uint32(0); ; {
		chunk := dict.GetChunk(offset, 16)
		if len(chunk) == 0 {
			break
		}
		if len(chunk) > 16 {
			t.Fatalf("chunk of %d bytes", len(chunk))
		}
		got = append(got, chunk...)
		offset += uint32(len(chunk))
	}
	if !bytes.Equal(got, full) {
		t.Errorf("reassembled %d bytes, want %d", len(got), len(full))
	}
}

// The host bootstraps with identify until an empty chunk comes back.
func TestIdentify(t *testing.T) {
	fw := newFirmware(t)
	RegisterConstant("MCU", "psoc6")

	var got []byte
	for {
		p := fw.send("identify", uint32(len(got)), 40)
		if len(p) != 1 || p[0].name != "identify_response" || p[0].params["offset"] != uint32(len(got)) {
			t.Fatalf("identify at %d: %+v", len(got), p)
		}
		if len(p[0].data) == 0 {
			break
		}
		got = append(got, p[0].data...)
	}

	var dict dictionaryJSON
	if err := json.Unmarshal(inflate(t, got), &dict); err != nil {
		t.Fatal(err)
	}
	if dict.Commands["identify offset=%u count=%c"] != 1 || dict.Responses["identify_response offset=%u data=%*s"] != 0 {
		t.Errorf("handshake messages: %v / %v", dict.Commands, dict.Responses)
	}
	if _, ok := dict.Commands["config_tcpwm_pwm "+TCPWMConfigFormat]; !ok {
		t.Error("config_tcpwm_pwm missing from dictionary")
	}
	for key, want := range map[string]string{"MCU": "psoc6", "TCPWM_COUNTERS": "8", "TCPWM_COUNTER_WIDTH": "32", "CLOCK_FREQ": "50000000"} {
		if dict.Config[key] != want {
			t.Errorf("config %s = %q, want %q", key, dict.Config[key], want)
		}
	}
	if dict.Enumerations["tcpwm_cmd"]["swap"] != 3 {
		t.Errorf("tcpwm_cmd enumeration: %v", dict.Enumerations["tcpwm_cmd"])
	}
}
