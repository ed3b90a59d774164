package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ResponseHandler is called from the read loop for every device message
type ResponseHandler func(cmdID uint16, data *[]byte)

// Message is one validated frame received by the host
type Message struct {
	Sequence uint8
	Payload  []byte
}

// HostTransport is the host end of the link. Sends wait for the device ACK;
// messages arrive on a channel and through an optional handler.
type HostTransport struct {
	port io.ReadWriteCloser
	seq  uint32 // atomic, sequence of the next frame sent

	writeMu sync.Mutex
	input   *FifoBuffer
	synced  bool

	handlerMu sync.RWMutex
	handler   ResponseHandler

	acks      chan Message
	responses chan Message
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       SeqDest,
		input:     NewFifoBuffer(1024),
		synced:    true,
		acks:      make(chan Message, 1),
		responses: make(chan Message, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// BuildFrame encodes one message as a complete frame
func BuildFrame(seq uint8, cmdID uint16, args func(OutputBuffer)) ([]byte, error) {
	out := NewScratchOutput()
	encodeFrame(out, seq, func(o OutputBuffer) {
		EncodeVLQUint(o, uint32(cmdID))
		if args != nil {
			args(o)
		}
	})
	frame := out.Result()
	if len(frame) > FrameMax {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(frame))
	}
	return append([]byte(nil), frame...), nil
}

// Send writes one message and waits for its ACK
func (t *HostTransport) Send(ctx context.Context, cmdID uint16, args func(OutputBuffer)) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	seq := uint8(atomic.LoadUint32(&t.seq))
	frame, err := BuildFrame(seq, cmdID, args)
	if err != nil {
		return err
	}
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	select {
	case ack := <-t.acks:
		want := NextSeq(seq)
		if ack.Sequence != want {
			return fmt.Errorf("%w: want 0x%02x, got 0x%02x", ErrSequence, want, ack.Sequence)
		}
		atomic.StoreUint32(&t.seq, uint32(want))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case <-t.stop:
		return ErrClosed
	}
}

// SendTimeout is Send with its own deadline
func (t *HostTransport) SendTimeout(cmdID uint16, args func(OutputBuffer), timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.Send(ctx, cmdID, args)
}

// Receive returns the next device message
func (t *HostTransport) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.responses:
		return msg, nil
	case <-ctx.Done():
		return Message{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case <-t.stop:
		return Message{}, ErrClosed
	}
}

// SetResponseHandler installs fn; nil removes it
func (t *HostTransport) SetResponseHandler(fn ResponseHandler) {
	t.handlerMu.Lock()
	t.handler = fn
	t.handlerMu.Unlock()
}

// Sequence returns the sequence byte of the next frame sent
func (t *HostTransport) Sequence() uint8 {
	return uint8(atomic.LoadUint32(&t.seq))
}

// Close stops the read loop and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			t.parse()
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return
		}
		if err != nil {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) parse() {
	data := t.input.Data()

	for len(data) > 0 {
		if !t.synced {
			data, t.synced = skipToSync(data)
			continue
		}
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}

		n, res := scanFrame(data, false)
		if res == scanMore {
			break
		}
		if res == scanResync {
			t.synced = false
			continue
		}

		msg := Message{
			Sequence: data[posSeq],
			Payload:  append([]byte(nil), data[HeaderSize:n-TrailerSize]...),
		}
		data = data[n:]
		t.deliver(msg)
	}

	if consumed := t.input.Available() - len(data); consumed > 0 {
		t.input.Pop(consumed)
	}
}

func (t *HostTransport) deliver(msg Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.acks <- msg:
		default:
		}
		return
	}

	t.handlerMu.RLock()
	fn := t.handler
	t.handlerMu.RUnlock()
	if fn != nil {
		payload := append([]byte(nil), msg.Payload...)
		if id, err := DecodeVLQUint(&payload); err == nil {
			fn(uint16(id), &payload)
		}
	}

	// Drop the oldest message rather than stall the read loop
	for {
		select {
		case t.responses <- msg:
			return
		default:
		}
		select {
		case <-t.responses:
		default:
		}
	}
}
