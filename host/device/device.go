// Package device talks to a lock over its USB serial link: dictionary
// download, status queries and the live event stream.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"keylock/host/logger"
	"keylock/host/serial"
	"keylock/protocol"
	"keylock/tinycompress"
)

const (
	// DefaultChunkSize is the identify request size; it keeps every
	// identify_response inside one frame.
	DefaultChunkSize = 40

	// DefaultTimeout bounds a command round trip when ctx has no deadline.
	DefaultTimeout = 2 * time.Second

	maxDictionarySize = 64 << 10
	eventBuffer       = 64
)

var (
	ErrNoDictionary = errors.New("dictionary not retrieved")
	ErrOffset       = errors.New("identify response offset mismatch")
	ErrTooLarge     = errors.New("dictionary exceeds size limit")
	ErrClosed       = errors.New("device closed")
)

// Bootstrap messages have fixed ids so the dictionary can be fetched before
// anything else is known.
var (
	identifyResponse = mustFormat(0, "identify_response offset=%u data=%*s")
	identify         = mustFormat(1, "identify offset=%u count=%c")
)

func mustFormat(id uint16, sig string) *Format {
	f, err := ParseFormat(id, sig)
	if err != nil {
		panic(err)
	}
	return f
}

// Event is one decoded device message
type Event struct {
	ID       uint16
	Name     string
	Params   map[string]any
	Received time.Time
}

// Uint returns an unsigned parameter, or 0 when absent
func (e Event) Uint(name string) uint32 {
	v, _ := e.Params[name].(uint32)
	return v
}

// Bytes returns a byte string parameter
func (e Event) Bytes(name string) []byte {
	v, _ := e.Params[name].([]byte)
	return v
}

// Device is a connected lock
type Device struct {
	transport *protocol.HostTransport
	log       *zap.SugaredLogger
	timeout   time.Duration

	callMu sync.Mutex // one command in flight

	mu      sync.Mutex
	dict    *Dictionary
	raw     []byte
	waiters map[string]chan Event
	events  chan Event
	closed  bool
	dropped uint32

	closeOnce sync.Once
}

// Open opens the serial port described by cfg and starts the link
func Open(ctx context.Context, cfg serial.Config) (*Device, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		logger.WarnKV(ctx, "flush failed", "device", cfg.Device, "error", err)
	}
	return New(logger.WithKV(ctx, "device", cfg.Device), port), nil
}

// New starts the link on an already open port
func New(ctx context.Context, port io.ReadWriteCloser) *Device {
	d := &Device{
		log:     logger.FromContext(ctx).Named("device"),
		timeout: DefaultTimeout,
		waiters: make(map[string]chan Event),
		events:  make(chan Event, eventBuffer),
	}
	d.transport = protocol.NewHostTransport(port)
	d.transport.SetResponseHandler(d.handle)
	return d
}

// SetTimeout changes the round trip limit applied when ctx has no deadline
func (d *Device) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Close stops the link. The Events channel is closed afterwards.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.transport.Close()
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
	})
	return err
}

// Events delivers every message no Call was waiting for, such as the lock
// transitions. When the reader falls behind the oldest events are dropped.
func (d *Device) Events() <-chan Event {
	return d.events
}

// Dropped returns how many events were discarded for a slow reader
func (d *Device) Dropped() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Dictionary returns the parsed dictionary, or nil before RetrieveDictionary
func (d *Device) Dictionary() *Dictionary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dict
}

// RawDictionary returns the inflated JSON text
func (d *Device) RawDictionary() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

// RetrieveDictionary downloads the compressed dictionary in identify chunks,
// inflates it and compiles the message formats
func (d *Device) RetrieveDictionary(ctx context.Context) (*Dictionary, error) {
	var stream []byte
	for {
		offset := uint32(len(stream))
		ev, err := d.call(ctx, identify, identifyResponse.Name, offset, uint32(DefaultChunkSize))
		if err != nil {
			return nil, fmt.Errorf("identify at %d: %w", offset, err)
		}
		if got := ev.Uint("offset"); got != offset {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrOffset, offset, got)
		}

		chunk := ev.Bytes("data")
		stream = append(stream, chunk...)
		if len(stream) > maxDictionarySize {
			return nil, ErrTooLarge
		}
		if len(chunk) < DefaultChunkSize {
			break
		}
	}
	d.log.Debugw("dictionary downloaded", "compressed", len(stream))

	raw, err := tinycompress.Decompress(stream)
	if err != nil {
		return nil, fmt.Errorf("inflate dictionary: %w", err)
	}
	dict, err := ParseDictionary(raw)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.dict = dict
	d.raw = raw
	d.mu.Unlock()

	d.log.Infow("dictionary loaded",
		"version", dict.Version,
		"commands", len(dict.Commands),
		"responses", len(dict.Responses),
		"bytes", len(raw),
	)
	return dict, nil
}

// Call sends a command by name and, when response is not empty, waits for
// the named response
func (d *Device) Call(ctx context.Context, command, response string, args ...any) (Event, error) {
	dict := d.Dictionary()
	if dict == nil {
		return Event{}, ErrNoDictionary
	}
	f, ok := dict.Command(command)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownMessage, command)
	}
	return d.call(ctx, f, response, args...)
}

func (d *Device) call(ctx context.Context, f *Format, response string, args ...any) (Event, error) {
	enc, err := f.Encoder(args...)
	if err != nil {
		return Event{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.callMu.Lock()
	defer d.callMu.Unlock()

	var wait chan Event
	if response != "" {
		wait = make(chan Event, 1)
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return Event{}, ErrClosed
		}
		d.waiters[response] = wait
		d.mu.Unlock()
		defer func() {
			d.mu.Lock()
			delete(d.waiters, response)
			d.mu.Unlock()
		}()
	}

	if err := d.transport.Send(ctx, f.ID, enc); err != nil {
		return Event{}, fmt.Errorf("send %s: %w", f.Name, err)
	}
	if wait == nil {
		return Event{}, nil
	}

	select {
	case ev := <-wait:
		return ev, nil
	case <-ctx.Done():
		return Event{}, fmt.Errorf("%w: waiting for %s: %w", protocol.ErrTimeout, response, ctx.Err())
	}
}

// handle runs on the transport read loop
func (d *Device) handle(id uint16, data *[]byte) {
	d.mu.Lock()
	f := d.responseFormat(id)
	d.mu.Unlock()
	if f == nil {
		d.log.Debugw("unknown response", "id", id)
		return
	}

	params, err := f.Decode(data)
	if err != nil {
		d.log.Warnw("undecodable response", "name", f.Name, "error", err)
		return
	}
	ev := Event{ID: id, Name: f.Name, Params: params, Received: time.Now()}

	d.mu.Lock()
	defer d.mu.Unlock()

	if w, ok := d.waiters[f.Name]; ok {
		delete(d.waiters, f.Name)
		w <- ev
		return
	}
	if d.closed {
		return
	}
	for {
		select {
		case d.events <- ev:
			return
		default:
		}
		select {
		case <-d.events:
			d.dropped++
		default:
		}
	}
}

func (d *Device) responseFormat(id uint16) *Format {
	if d.dict == nil {
		if id == identifyResponse.ID {
			return identifyResponse
		}
		return nil
	}
	f, _ := d.dict.Response(id)
	return f
}
