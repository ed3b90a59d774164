package core

import (
	"errors"

	"keylock/protocol"
)

type displayWrite struct {
	Digit    Digit
	Position uint8
}

// fakeDisplay latches every write like a display with per-position memory
type fakeDisplay struct {
	writes []displayWrite
	shown  [DisplayPositions]Digit
}

func newFakeDisplay() *fakeDisplay {
	d := &fakeDisplay{}
	for i := range d.shown {
		d.shown[i] = Blank
	}
	return d
}

func (d *fakeDisplay) DisplayDigit(digit Digit, position uint8) {
	d.writes = append(d.writes, displayWrite{digit, position})
	d.shown[position%DisplayPositions] = digit
}

func (d *fakeDisplay) text() string {
	b := make([]byte, DisplayPositions)
	for i, v := range d.shown {
		b[i] = byte(v)
	}
	return string(b)
}

func (d *fakeDisplay) reset() {
	d.writes = nil
}

type fakeActuator struct {
	angles []uint8
	err    error
}

func (a *fakeActuator) SetAngle(angle uint8) error {
	a.angles = append(a.angles, angle)
	return a.err
}

func (a *fakeActuator) last() uint8 {
	if len(a.angles) == 0 {
		return 255
	}
	return a.angles[len(a.angles)-1]
}

type fakeClock struct {
	now uint32
}

func (c *fakeClock) Now() uint32 {
	return c.now
}

// eventLog records EventSink calls as short strings
type eventLog struct {
	events []string
}

func (e *eventLog) DigitAccepted(length uint8) {
	e.events = append(e.events, "accepted:"+utoa(uint32(length)))
}

func (e *eventLog) DigitDropped(reason DropReason) {
	e.events = append(e.events, "dropped:"+utoa(uint32(reason)))
}

func (e *eventLog) AttemptDenied() {
	e.events = append(e.events, "denied")
}

func (e *eventLog) Unlocked(holdTicks uint32) {
	e.events = append(e.events, "unlocked:"+utoa(holdTicks))
}

func (e *eventLog) Locked() {
	e.events = append(e.events, "locked")
}

type pinWrite struct {
	Pin   GPIOPin
	Value bool
}

type fakeGPIO struct {
	outputs map[GPIOPin]bool
	levels  map[GPIOPin]bool
	sets    []pinWrite
	failPin GPIOPin
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{
		outputs: make(map[GPIOPin]bool),
		levels:  make(map[GPIOPin]bool),
		failPin: 1 << 31,
	}
}

func (g *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin == g.failPin {
		return errors.New("pin unavailable")
	}
	g.outputs[pin] = true
	return nil
}

func (g *fakeGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	g.levels[pin] = true
	return nil
}

func (g *fakeGPIO) ConfigureInputPullDown(pin GPIOPin) error {
	g.levels[pin] = false
	return nil
}

func (g *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	g.levels[pin] = value
	g.sets = append(g.sets, pinWrite{pin, value})
	return nil
}

func (g *fakeGPIO) GetPin(pin GPIOPin) (bool, error) {
	return g.levels[pin], nil
}

type fakePWM struct {
	cycle map[PWMPin]uint32
	duty  map[PWMPin]PWMValue
}

func newFakePWM() *fakePWM {
	return &fakePWM{cycle: make(map[PWMPin]uint32), duty: make(map[PWMPin]PWMValue)}
}

func (p *fakePWM) ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error) {
	p.cycle[pin] = cycleTicks
	return cycleTicks, nil
}

func (p *fakePWM) SetDutyCycle(pin PWMPin, value PWMValue) error {
	p.duty[pin] = value
	return nil
}

func (p *fakePWM) DisablePWM(pin PWMPin) error {
	delete(p.cycle, pin)
	return nil
}

// sentMessage is one frame body captured from the link
type sentMessage struct {
	ID   uint16
	Args []byte
}

type fakeSender struct {
	sent []sentMessage
}

func (s *fakeSender) SendCommand(cmdID uint16, args func(output protocol.OutputBuffer)) {
	out := protocol.NewScratchOutput()
	if args != nil {
		args(out)
	}
	s.sent = append(s.sent, sentMessage{ID: cmdID, Args: append([]byte(nil), out.Result()...)})
}

// testRig is a Lock on fake hardware with the default configuration
type testRig struct {
	lock    *Lock
	flags   *PortFlags
	display *fakeDisplay
	servo   *fakeActuator
	clock   *fakeClock
	events  *eventLog
}

func newTestRig(cfg Config) (*testRig, error) {
	r := &testRig{
		flags:   &PortFlags{},
		display: newFakeDisplay(),
		servo:   &fakeActuator{},
		clock:   &fakeClock{now: 1000},
		events:  &eventLog{},
	}
	lock, err := NewLock(cfg, Hardware{
		Ports:    r.flags,
		Display:  r.display,
		Actuator: r.servo,
		Clock:    r.clock.Now,
	}, r.events)
	if err != nil {
		return nil, err
	}
	r.lock = lock
	return r, nil
}

// raise latches the edge of the button bound to each digit
func (r *testRig) raise(digits string) {
	for i := 0; i < len(digits); i++ {
		b, ok := r.lock.Bindings().Find(Digit(digits[i]))
		if !ok {
			panic("no binding for " + digits[i:i+1])
		}
		r.flags.Raise(b.Group, b.Pin)
	}
}

// press enters digits one poll each, like a user typing slowly
func (r *testRig) press(digits string) {
	for i := 0; i < len(digits); i++ {
		r.raise(digits[i : i+1])
		r.lock.Poll()
		r.clock.now += 200000
	}
}
