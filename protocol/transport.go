package protocol

import "sync/atomic"

// CommandHandler decodes and runs one message; data is advanced past its
// arguments.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the device end of the link: it validates incoming frames,
// acknowledges them, and frames outgoing messages.
type Transport struct {
	synced  uint32 // atomic bool
	nextSeq uint32 // atomic, next expected host sequence

	output  OutputBuffer
	handler CommandHandler
	onReset func() // host restarted its sequence
	onFlush func() // push the ACK out now
	errors  uint32
}

// NewTransport creates a synchronized transport expecting sequence 0x10
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synced:  1,
		nextSeq: SeqDest,
		output:  output,
		handler: handler,
	}
}

// Receive consumes every complete frame in input. Partial frames stay in
// the buffer for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if atomic.LoadUint32(&t.synced) == 0 {
			var ok bool
			if data, ok = skipToSync(data); ok {
				atomic.StoreUint32(&t.synced, 1)
				t.ack()
			}
			continue
		}
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}

		n, res := scanFrame(data, true)
		if res == scanMore {
			break
		}
		if res == scanResync {
			atomic.StoreUint32(&t.synced, 0)
			continue
		}

		seq := data[posSeq]
		payload := data[HeaderSize : n-TrailerSize]
		data = data[n:]

		expected := uint8(atomic.LoadUint32(&t.nextSeq))
		if seq == SeqDest && expected != SeqDest {
			expected = SeqDest
			atomic.StoreUint32(&t.nextSeq, SeqDest)
			if t.onReset != nil {
				t.onReset()
			}
		}
		if seq == expected {
			atomic.StoreUint32(&t.nextSeq, uint32(NextSeq(seq)))
			if err := t.dispatch(payload); err != nil {
				atomic.AddUint32(&t.errors, 1)
			}
		}
		// Out of order frames are answered too; the ACK then acts as a NAK.
		t.ack()
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// dispatch runs every message in a frame payload
func (t *Transport) dispatch(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			atomic.StoreUint32(&t.synced, 0)
			err = ErrInvalidVLQ
		}
	}()

	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			atomic.StoreUint32(&t.synced, 0)
			return err
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) ack() {
	encodeFrame(t.output, uint8(atomic.LoadUint32(&t.nextSeq)), nil)
	if t.onFlush != nil {
		t.onFlush()
	}
}

// SendCommand frames one message with the current sequence
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	encodeFrame(t.output, uint8(atomic.LoadUint32(&t.nextSeq)), func(out OutputBuffer) {
		EncodeVLQUint(out, uint32(cmdID))
		if args != nil {
			args(out)
		}
	})
}

// Reset returns to the power-on state, e.g. after a USB reconnect
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.synced, 1)
	atomic.StoreUint32(&t.nextSeq, SeqDest)
	if t.onReset != nil {
		t.onReset()
	}
}

// HandlerErrors returns the number of frames whose handler failed
func (t *Transport) HandlerErrors() uint32 {
	return atomic.LoadUint32(&t.errors)
}

func (t *Transport) SetResetCallback(fn func()) { t.onReset = fn }
func (t *Transport) SetFlushCallback(fn func()) { t.onFlush = fn }
