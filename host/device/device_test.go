package device

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keylock/core"
	"keylock/host/sim"
	"keylock/protocol"
)

// firmware runs the real link and a simulated board on one end of a pipe
type firmware struct {
	mu    sync.Mutex
	conn  net.Conn
	out   *protocol.ScratchOutput
	tr    *protocol.Transport
	board *sim.Board
	clock *sim.ManualClock
}

type pipeInput struct {
	data []byte
}

func (p *pipeInput) Data() []byte   { return p.data }
func (p *pipeInput) Available() int { return len(p.data) }
func (p *pipeInput) Pop(n int)      { p.data = p.data[n:] }

func startFirmware(t *testing.T) (*firmware, *Device) {
	t.Helper()

	cfg := core.DefaultConfig()
	link := core.NewLink(cfg, "sim")
	clock := sim.NewManualClock(1000)
	board, err := sim.NewBoard(cfg, link, clock.Ticks)
	require.NoError(t, err)
	link.Attach(board.Lock())

	hostEnd, devEnd := net.Pipe()
	fw := &firmware{
		conn:  devEnd,
		out:   protocol.NewScratchOutput(),
		board: board,
		clock: clock,
	}
	fw.tr = protocol.NewTransport(fw.out, link.Handle)
	link.SetSender(fw.tr)

	go func() {
		buf := make([]byte, 128)
		in := &pipeInput{}
		for {
			n, err := devEnd.Read(buf)
			if err != nil {
				return
			}
			fw.mu.Lock()
			in.data = append(in.data, buf[:n]...)
			fw.tr.Receive(in)
			err = fw.flushLocked()
			fw.mu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	dev := New(context.Background(), hostEnd)
	t.Cleanup(func() {
		_ = dev.Close()
		_ = devEnd.Close()
	})
	return fw, dev
}

func (f *firmware) flushLocked() error {
	if len(f.out.Result()) == 0 {
		return nil
	}
	pending := append([]byte(nil), f.out.Result()...)
	f.out.Reset()
	_, err := f.conn.Write(pending)
	return err
}

// press enters each digit as its own batch
func (f *firmware) press(t *testing.T, digits string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < len(digits); i++ {
		_, err := f.board.Press(core.Digit(digits[i]))
		require.NoError(t, err)
		f.clock.Advance(50 * time.Millisecond)
	}
	require.NoError(t, f.flushLocked())
}

func (f *firmware) elapse(t *testing.T, d time.Duration) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock.Advance(d)
	f.board.Poll()
	require.NoError(t, f.flushLocked())
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func nextEvent(t *testing.T, dev *Device) Event {
	t.Helper()
	select {
	case ev := <-dev.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func TestRetrieveDictionary(t *testing.T) {
	t.Parallel()

	_, dev := startFirmware(t)
	ctx := testContext(t)

	dict, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)
	require.Same(t, dict, dev.Dictionary())
	require.NotEmpty(t, dev.RawDictionary())

	require.Equal(t, core.FirmwareVersion, dict.Version)
	mcu, ok := dict.ConfigString("MCU")
	require.True(t, ok)
	require.Equal(t, "sim", mcu)

	freq, ok := dict.ConfigUint("CLOCK_FREQ")
	require.True(t, ok)
	require.Equal(t, uint32(core.TimerFreq), freq)

	hold, ok := dict.ConfigUint("HOLD_TICKS")
	require.True(t, ok)
	require.Equal(t, core.DefaultConfig().HoldTicks, hold)

	_, ok = dict.ConfigUint("MCU")
	require.False(t, ok)

	status, ok := dict.Command("get_status")
	require.True(t, ok)
	require.Empty(t, status.Fields)

	f, ok := dict.Response(0)
	require.True(t, ok)
	require.Equal(t, "identify_response", f.Name)
}

func TestCallNeedsDictionary(t *testing.T) {
	t.Parallel()

	_, dev := startFirmware(t)
	_, err := dev.Status(testContext(t))
	require.ErrorIs(t, err, ErrNoDictionary)
}

func TestCallValidation(t *testing.T) {
	t.Parallel()

	_, dev := startFirmware(t)
	ctx := testContext(t)
	_, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)

	_, err = dev.Call(ctx, "open_sesame", "")
	require.ErrorIs(t, err, ErrUnknownMessage)

	_, err = dev.Call(ctx, "get_status", "status", uint32(1))
	require.ErrorIs(t, err, ErrArgCount)

	_, err = dev.Call(ctx, "identify", "identify_response", uint32(0), []byte{1})
	require.ErrorIs(t, err, ErrBadFormat)
}

func TestStatusAndEvents(t *testing.T) {
	t.Parallel()

	fw, dev := startFirmware(t)
	ctx := testContext(t)
	_, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)

	fw.press(t, "12")

	st, err := dev.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, core.StateCollecting, st.State)
	require.Equal(t, core.Locked, st.Lock)
	require.Equal(t, uint8(2), st.Length)
	require.Contains(t, st.String(), "length=2")

	for want := uint32(1); want <= 2; want++ {
		ev := nextEvent(t, dev)
		require.Equal(t, "digit_accepted", ev.Name)
		require.Equal(t, want, ev.Uint("length"))
	}
}

func TestUnlockCycleEvents(t *testing.T) {
	t.Parallel()

	fw, dev := startFirmware(t)
	ctx := testContext(t)
	_, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)

	fw.press(t, "1234")
	for i := 0; i < 4; i++ {
		require.Equal(t, "digit_accepted", nextEvent(t, dev).Name)
	}
	ev := nextEvent(t, dev)
	require.Equal(t, "unlocked", ev.Name)
	require.Equal(t, "unlocked for 3000000 us", Describe(ev))

	fw.press(t, "5")
	ev = nextEvent(t, dev)
	require.Equal(t, "digit dropped: busy", Describe(ev))

	st, err := dev.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Unlocked, st.Lock)
	require.Equal(t, uint32(1), st.Grants)

	fw.elapse(t, 3*time.Second)
	require.Equal(t, "locked", Describe(nextEvent(t, dev)))

	st, err = dev.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, core.Locked, st.Lock)
	require.Equal(t, core.StateCollecting, st.State)
}

func TestWrongAttemptIsDenied(t *testing.T) {
	t.Parallel()

	fw, dev := startFirmware(t)
	ctx := testContext(t)
	_, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)

	fw.press(t, "9999")
	for i := 0; i < 4; i++ {
		nextEvent(t, dev)
	}
	require.Equal(t, "attempt denied", Describe(nextEvent(t, dev)))

	st, err := dev.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), st.Denials)
	require.Zero(t, st.Length)
}

func TestClockAndUptime(t *testing.T) {
	t.Parallel()

	_, dev := startFirmware(t)
	ctx := testContext(t)
	_, err := dev.RetrieveDictionary(ctx)
	require.NoError(t, err)

	_, err = dev.Clock(ctx)
	require.NoError(t, err)

	up, err := dev.Uptime(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, up, time.Duration(0))
}

func TestCloseEndsEvents(t *testing.T) {
	t.Parallel()

	_, dev := startFirmware(t)
	require.NoError(t, dev.Close())

	_, ok := <-dev.Events()
	require.False(t, ok)

	_, err := dev.RetrieveDictionary(testContext(t))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat(7, "status state=%c lock=%c attempts=%u")
	require.NoError(t, err)
	require.Equal(t, "status", f.Name)
	require.Equal(t, []Field{{"state", 'u'}, {"lock", 'u'}, {"attempts", 'u'}}, f.Fields)

	f, err = ParseFormat(0, "identify_response offset=%u data=%*s")
	require.NoError(t, err)
	require.Equal(t, byte('s'), f.Fields[1].Kind)

	for _, sig := range []string{"", "bad arg", "bad x=%f", "bad =%u"} {
		_, err := ParseFormat(1, sig)
		require.ErrorIs(t, err, ErrBadFormat, sig)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat(3, "probe a=%u b=%i c=%*s")
	require.NoError(t, err)

	enc, err := f.Encoder(uint32(300), int32(-5), []byte("ok"))
	require.NoError(t, err)
	out := protocol.NewScratchOutput()
	enc(out)

	data := append([]byte(nil), out.Result()...)
	params, err := f.Decode(&data)
	require.NoError(t, err)
	require.Empty(t, data)
	require.Equal(t, uint32(300), params["a"])
	require.Equal(t, int32(-5), params["b"])
	require.Equal(t, []byte("ok"), params["c"])

	short := []byte{0x05}
	_, err = f.Decode(&short)
	require.Error(t, err)
}
