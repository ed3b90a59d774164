package device

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"keylock/protocol"
)

var (
	ErrUnknownMessage = errors.New("message not in dictionary")
	ErrBadFormat      = errors.New("unsupported message format")
	ErrArgCount       = errors.New("wrong number of arguments")
)

// Dictionary is the parsed data dictionary served by identify
type Dictionary struct {
	Version       string                 `json:"version"`
	BuildVersions string                 `json:"build_versions"`
	Config        map[string]any         `json:"config"`
	Commands      map[string]int         `json:"commands"`
	Responses     map[string]int         `json:"responses"`

	commands  map[string]*Format // by name
	responses map[uint16]*Format // by id
}

// ParseDictionary decodes the inflated JSON dictionary and compiles every
// message format
func ParseDictionary(data []byte) (*Dictionary, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	d := &Dictionary{}
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}

	d.commands = make(map[string]*Format, len(d.Commands))
	for sig, id := range d.Commands {
		f, err := ParseFormat(uint16(id), sig)
		if err != nil {
			return nil, err
		}
		d.commands[f.Name] = f
	}

	d.responses = make(map[uint16]*Format, len(d.Responses))
	for sig, id := range d.Responses {
		f, err := ParseFormat(uint16(id), sig)
		if err != nil {
			return nil, err
		}
		d.responses[f.ID] = f
	}
	return d, nil
}

// Command returns the format of the named command
func (d *Dictionary) Command(name string) (*Format, bool) {
	f, ok := d.commands[name]
	return f, ok
}

// Response returns the format of the response with id
func (d *Dictionary) Response(id uint16) (*Format, bool) {
	f, ok := d.responses[id]
	return f, ok
}

// ConfigString returns a constant as text; numbers keep their JSON form
func (d *Dictionary) ConfigString(name string) (string, bool) {
	switch v := d.Config[name].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// ConfigUint returns a numeric constant
func (d *Dictionary) ConfigUint(name string) (uint32, bool) {
	v, ok := d.Config[name].(json.Number)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v.String(), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Field is one "name=%x" argument
type Field struct {
	Name string
	Kind byte // 'u' unsigned, 'i' signed, 's' byte string
}

// Format is a compiled message signature such as "digit_dropped reason=%c"
type Format struct {
	ID     uint16
	Name   string
	Fields []Field
}

// ParseFormat compiles a dictionary signature
func ParseFormat(id uint16, sig string) (*Format, error) {
	parts := strings.Fields(sig)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrBadFormat)
	}

	f := &Format{ID: id, Name: parts[0]}
	for _, p := range parts[1:] {
		name, spec, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadFormat, p)
		}
		var kind byte
		switch spec {
		case "%u", "%c", "%hu":
			kind = 'u'
		case "%i", "%hi":
			kind = 'i'
		case "%*s", "%s", "%.*s":
			kind = 's'
		default:
			return nil, fmt.Errorf("%w: %q in %q", ErrBadFormat, spec, sig)
		}
		f.Fields = append(f.Fields, Field{Name: name, Kind: kind})
	}
	return f, nil
}

// Decode reads every field from data. Unsigned values are uint32, signed
// values int32 and strings []byte.
func (f *Format) Decode(data *[]byte) (map[string]any, error) {
	params := make(map[string]any, len(f.Fields))
	for _, fld := range f.Fields {
		var (
			v   any
			err error
		)
		switch fld.Kind {
		case 'u':
			v, err = protocol.DecodeVLQUint(data)
		case 'i':
			v, err = protocol.DecodeVLQInt(data)
		default:
			v, err = protocol.DecodeVLQBytes(data)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", f.Name, fld.Name, err)
		}
		params[fld.Name] = v
	}
	return params, nil
}

// Encoder returns the argument writer for a command with this format
func (f *Format) Encoder(args ...any) (func(protocol.OutputBuffer), error) {
	if len(args) != len(f.Fields) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, f.Name, len(f.Fields), len(args))
	}
	for i, a := range args {
		if err := checkArg(f.Fields[i], a); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", f.Name, f.Fields[i].Name, err)
		}
	}

	return func(out protocol.OutputBuffer) {
		for _, a := range args {
			switch v := a.(type) {
			case uint32:
				protocol.EncodeVLQUint(out, v)
			case int:
				protocol.EncodeVLQInt(out, int32(v))
			case int32:
				protocol.EncodeVLQInt(out, v)
			case uint8:
				protocol.EncodeVLQUint(out, uint32(v))
			case []byte:
				protocol.EncodeVLQBytes(out, v)
			case string:
				protocol.EncodeVLQString(out, v)
			}
		}
	}, nil
}

func checkArg(f Field, a any) error {
	switch a.(type) {
	case uint32, int, int32, uint8:
		if f.Kind == 's' {
			return fmt.Errorf("%w: want bytes, got %T", ErrBadFormat, a)
		}
	case []byte, string:
		if f.Kind != 's' {
			return fmt.Errorf("%w: want integer, got %T", ErrBadFormat, a)
		}
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrBadFormat, a)
	}
	return nil
}
