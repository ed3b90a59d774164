package core

// EntryState is the state of the passcode entry machine
type EntryState uint8

const (
	StateCollecting EntryState = iota // 0..PasscodeLength-1 digits buffered
	StateComplete                     // full attempt, being validated
	StateUnlocking                    // actuator holding the lock open
)

func (s EntryState) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateComplete:
		return "complete"
	case StateUnlocking:
		return "unlocking"
	default:
		return "unknown"
	}
}

// Outcome is the result of one AppendDigit call
type Outcome uint8

const (
	OutcomeAccepted Outcome = iota // digit buffered, attempt still open
	OutcomeGranted                 // attempt matched, unlock cycle started
	OutcomeDenied                  // attempt did not match, buffer cleared
	OutcomeDropped                 // digit discarded
)

// EntryStats counts what the machine has seen since boot
type EntryStats struct {
	Accepted uint32
	Dropped  uint32
	Attempts uint32
	Grants   uint32
	Denials  uint32
}

// EntryMachine owns the attempt buffer. AppendDigit and Refresh are the only
// mutation entry points and are called from the main loop only.
type EntryMachine struct {
	buf      Buffer
	passcode Passcode
	state    EntryState

	display *Display
	seq     *Sequencer
	events  EventSink
	clock   func() uint32

	stats EntryStats
}

// NewEntryMachine creates a machine in StateCollecting with an empty buffer
func NewEntryMachine(passcode Passcode, display *Display, seq *Sequencer, events EventSink, clock func() uint32) *EntryMachine {
	if events == nil {
		events = NopEvents{}
	}
	if clock == nil {
		clock = GetTime
	}
	m := &EntryMachine{
		passcode: passcode,
		display:  display,
		seq:      seq,
		events:   events,
		clock:    clock,
	}
	seq.OnLocked(m.relocked)
	return m
}

// AppendDigit adds one digit to the current attempt. When the attempt is
// complete it is validated before AppendDigit returns.
func (m *EntryMachine) AppendDigit(d Digit) Outcome {
	if !d.Valid() {
		return m.drop(DropInvalid)
	}
	if m.state == StateUnlocking {
		return m.drop(DropBusy)
	}
	if !m.buf.Append(d) {
		return m.drop(DropOverrun)
	}

	m.stats.Accepted++
	length := uint8(m.buf.Len())
	RecordTrace(EvtDigit, m.clock(), uint32(length))
	m.events.DigitAccepted(length)

	if !m.buf.Full() {
		return OutcomeAccepted
	}
	m.state = StateComplete
	return m.validate()
}

// Refresh renders the buffer. The dispatcher calls it once per cycle.
func (m *EntryMachine) Refresh() {
	m.display.Render(&m.buf)
}

// State returns the current entry state
func (m *EntryMachine) State() EntryState {
	return m.state
}

// Len returns the number of buffered digits
func (m *EntryMachine) Len() int {
	return m.buf.Len()
}

// Stats returns a copy of the counters
func (m *EntryMachine) Stats() EntryStats {
	return m.stats
}

func (m *EntryMachine) drop(reason DropReason) Outcome {
	m.stats.Dropped++
	RecordTrace(EvtDrop, m.clock(), uint32(reason))
	m.events.DigitDropped(reason)
	return OutcomeDropped
}

// resetBuffer empties the attempt and blanks every display position
func (m *EntryMachine) resetBuffer() {
	m.buf.Reset()
	m.display.Clear()
}

// relocked runs from the sequencer timer once the actuator is closed again
func (m *EntryMachine) relocked() {
	m.state = StateCollecting
	m.resetBuffer()
	RecordTrace(EvtRelocked, m.clock(), 0)
	m.events.Locked()
}
