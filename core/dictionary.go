package core

import (
	"bytes"
	"sort"
	"sync"

	"keylock/tinycompress"
)

// Dictionary describes the link to the host: firmware version, constants
// and the message table. It is served compressed in identify chunks.
type Dictionary struct {
	mu            sync.Mutex
	reg           *CommandRegistry
	version       string
	buildVersions string
	constants     map[string]interface{}
	cached        []byte
}

func NewDictionary(reg *CommandRegistry, version string) *Dictionary {
	return &Dictionary{
		reg:           reg,
		version:       version,
		buildVersions: "go-tinygo",
		constants:     make(map[string]interface{}),
	}
}

// AddConstant sets a config constant; strings and integers are supported
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

// SetBuildVersions records the toolchain description
func (d *Dictionary) SetBuildVersions(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildVersions = v
	d.cached = nil
}

// JSON renders the uncompressed dictionary
func (d *Dictionary) JSON() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buildJSON()
}

// Data returns the compressed dictionary, building it on first use
func (d *Dictionary) Data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached == nil {
		raw := d.buildJSON()
		var buf bytes.Buffer
		w := tinycompress.NewWriter(&buf, len(raw))
		_, _ = w.Write(raw)
		if err := w.Close(); err != nil {
			DebugPrintln("[DICT] compression failed: " + err.Error())
			return raw
		}
		d.cached = buf.Bytes()
		DebugPrintln("[DICT] " + itoa(len(raw)) + " bytes, " + itoa(len(d.cached)) + " compressed")
	}
	return d.cached
}

// GetChunk returns a copy of up to count bytes at offset; past the end it
// returns an empty chunk, which ends the host's download loop.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Data()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

func (d *Dictionary) buildJSON() []byte {
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":`...)
	out = appendQuoted(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = appendQuoted(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendQuoted(out, name)
		out = append(out, ':')
		if s, ok := d.constants[name].(string); ok {
			out = appendQuoted(out, s)
		} else {
			out = append(out, valueToString(d.constants[name])...)
		}
	}

	cmds := d.reg.Commands()
	out = append(out, `},"commands":{`...)
	out = appendMessages(out, cmds, false)
	out = append(out, `},"responses":{`...)
	out = appendMessages(out, cmds, true)
	return append(out, "}}"...)
}

func appendMessages(out []byte, cmds []*Command, responses bool) []byte {
	first := true
	for _, c := range cmds {
		if c.IsResponse() != responses {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		out = appendQuoted(out, c.Signature())
		out = append(out, ':')
		out = append(out, itoa(int(c.ID))...)
	}
	return out
}

// appendQuoted writes s as a JSON string; only quote and backslash need
// escaping in dictionary text.
func appendQuoted(out []byte, s string) []byte {
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return append(out, '"')
}
