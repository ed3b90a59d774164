package core

import "errors"

var ErrMissingHardware = errors.New("lock hardware is incomplete")

// Hardware is what a target provides to run a Lock
type Hardware struct {
	Ports    PortSource
	Display  DisplayDriver
	Actuator Actuator
	Clock    func() uint32 // defaults to GetTime
}

// Lock wires the entry machine, dispatcher, display and sequencer together.
// Everything except the PortSource runs on the goroutine calling Poll.
type Lock struct {
	cfg   Config
	clock func() uint32

	sched    Scheduler
	table    *BindingTable
	display  *Display
	seq      *Sequencer
	entry    *EntryMachine
	dispatch *Dispatcher
}

// Status is a point-in-time view of the lock
type Status struct {
	State    EntryState
	Lock     LockState
	Length   uint8
	Stats    EntryStats
	Spurious uint32
	Cycles   uint32 // dispatch passes that consumed events
	Unlocks  uint32
}

// NewLock validates cfg, blanks the display and parks the actuator closed
func NewLock(cfg Config, hw Hardware, events EventSink) (*Lock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hw.Ports == nil || hw.Display == nil || hw.Actuator == nil {
		return nil, ErrMissingHardware
	}
	if hw.Clock == nil {
		hw.Clock = GetTime
	}

	table, err := NewBindingTable(cfg.Bindings)
	if err != nil {
		return nil, err
	}

	l := &Lock{cfg: cfg, clock: hw.Clock, table: table}
	l.display = NewDisplay(hw.Display)
	l.seq = NewSequencer(hw.Actuator, &l.sched, cfg.HoldTicks)
	l.entry = NewEntryMachine(cfg.Passcode, l.display, l.seq, events, hw.Clock)
	l.dispatch = NewDispatcher(table, hw.Ports, l.entry, hw.Clock)

	l.display.Clear()
	l.seq.Park()
	return l, nil
}

// Poll is one main loop iteration: due timers first, then pending keys.
// Keys latched while the lock is open are drained before the relock timer
// can fire, so they are dropped as busy even when Poll runs late.
// Returns the number of key events consumed.
func (l *Lock) Poll() int {
	consumed := 0
	if l.entry.State() == StateUnlocking {
		consumed = l.dispatch.Service()
	}
	l.sched.Dispatch(l.clock())
	return consumed + l.dispatch.Service()
}

// Status snapshots the lock; call it from the Poll goroutine
func (l *Lock) Status() Status {
	return Status{
		State:    l.entry.State(),
		Lock:     l.seq.State(),
		Length:   uint8(l.entry.Len()),
		Stats:    l.entry.Stats(),
		Spurious: l.dispatch.Spurious(),
		Cycles:   l.dispatch.Cycles(),
		Unlocks:  l.seq.Cycles(),
	}
}

// Bindings returns the validated button map
func (l *Lock) Bindings() *BindingTable {
	return l.table
}

// Config returns the configuration the lock was built with
func (l *Lock) Config() Config {
	return l.cfg
}

// NextDeadline reports the wake time of the pending relock, if any
func (l *Lock) NextDeadline() (uint32, bool) {
	return l.sched.NextWake()
}
