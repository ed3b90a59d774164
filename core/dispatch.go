package core

import "sync/atomic"

// PortSource exposes the pending edge flags of each port group
type PortSource interface {
	Pending(g PortGroup) uint32
	Clear(g PortGroup, mask uint32)
}

// PortFlags is a software pending-flag register. Raise is safe to call from
// an interrupt handler: it never blocks and never allocates.
type PortFlags struct {
	pending [MaxPortGroups]uint32
}

// Raise latches an edge on (g, pin)
func (f *PortFlags) Raise(g PortGroup, pin uint8) {
	if g >= MaxPortGroups || pin >= PinsPerGroup {
		return
	}
	bit := uint32(1) << pin
	for {
		old := atomic.LoadUint32(&f.pending[g])
		if old&bit != 0 || atomic.CompareAndSwapUint32(&f.pending[g], old, old|bit) {
			return
		}
	}
}

// Pending implements PortSource
func (f *PortFlags) Pending(g PortGroup) uint32 {
	if g >= MaxPortGroups {
		return 0
	}
	return atomic.LoadUint32(&f.pending[g])
}

// Clear implements PortSource
func (f *PortFlags) Clear(g PortGroup, mask uint32) {
	if g >= MaxPortGroups {
		return
	}
	for {
		old := atomic.LoadUint32(&f.pending[g])
		if atomic.CompareAndSwapUint32(&f.pending[g], old, old&^mask) {
			return
		}
	}
}

// Dispatcher turns pending port flags into ordered digit insertions
type Dispatcher struct {
	table *BindingTable
	src   PortSource
	entry *EntryMachine
	clock func() uint32

	cycles   uint32
	spurious uint32
}

// NewDispatcher creates a dispatcher feeding entry
func NewDispatcher(table *BindingTable, src PortSource, entry *EntryMachine, clock func() uint32) *Dispatcher {
	if clock == nil {
		clock = GetTime
	}
	return &Dispatcher{table: table, src: src, entry: entry, clock: clock}
}

// Service handles every pending flag in one pass: groups in ascending order,
// pins lowest bit first. A group's flags are cleared before its digits are
// appended, so an edge raised meanwhile waits for the next pass. The display
// is refreshed once at the end if anything was consumed. Returns the number
// of digit events consumed.
func (d *Dispatcher) Service() int {
	consumed := 0
	for g := PortGroup(0); g < MaxPortGroups; g++ {
		flags := d.src.Pending(g)
		if flags == 0 {
			continue
		}
		d.src.Clear(g, flags)

		for pin := uint8(0); pin < PinsPerGroup; pin++ {
			if flags&(1<<pin) == 0 {
				continue
			}
			digit, ok := d.table.Lookup(g, pin)
			if !ok {
				d.spurious++
				RecordTrace(EvtSpurious, d.clock(), uint32(g)<<8|uint32(pin))
				continue
			}
			d.entry.AppendDigit(digit)
			consumed++
		}
	}

	if consumed > 0 {
		d.cycles++
		d.entry.Refresh()
	}
	return consumed
}

// Cycles returns the number of passes that consumed at least one event
func (d *Dispatcher) Cycles() uint32 {
	return d.cycles
}

// Spurious returns the number of pending flags with no binding
func (d *Dispatcher) Spurious() uint32 {
	return d.spurious
}
