package core

// DropReason tells why a digit event was discarded
type DropReason uint8

const (
	DropBusy    DropReason = 1 // unlock cycle in progress
	DropOverrun DropReason = 2 // attempt buffer already full
	DropInvalid DropReason = 3 // not a digit
)

func (r DropReason) String() string {
	switch r {
	case DropBusy:
		return "busy"
	case DropOverrun:
		return "overrun"
	case DropInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// EventSink receives lock transitions. Digit values are never reported.
type EventSink interface {
	DigitAccepted(length uint8)
	DigitDropped(reason DropReason)
	AttemptDenied()
	Unlocked(holdTicks uint32)
	Locked()
}

// NopEvents discards all events
type NopEvents struct{}

func (NopEvents) DigitAccepted(uint8) {}
func (NopEvents) DigitDropped(DropReason) {}
func (NopEvents) AttemptDenied() {}
func (NopEvents) Unlocked(uint32) {}
func (NopEvents) Locked() {}
