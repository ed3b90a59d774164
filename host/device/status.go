package device

import (
	"context"
	"fmt"
	"time"

	"keylock/core"
)

// Status is the decoded status response
type Status struct {
	State    core.EntryState
	Lock     core.LockState
	Length   uint8
	Attempts uint32
	Grants   uint32
	Denials  uint32
	Dropped  uint32
}

func (s Status) String() string {
	return fmt.Sprintf("%s/%s length=%d attempts=%d grants=%d denials=%d dropped=%d",
		s.Lock, s.State, s.Length, s.Attempts, s.Grants, s.Denials, s.Dropped)
}

// Status queries the entry machine and lock state
func (d *Device) Status(ctx context.Context) (Status, error) {
	ev, err := d.Call(ctx, "get_status", "status")
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:    core.EntryState(ev.Uint("state")),
		Lock:     core.LockState(ev.Uint("lock")),
		Length:   uint8(ev.Uint("length")),
		Attempts: ev.Uint("attempts"),
		Grants:   ev.Uint("grants"),
		Denials:  ev.Uint("denials"),
		Dropped:  ev.Uint("dropped"),
	}, nil
}

// Clock returns the device timer counter
func (d *Device) Clock(ctx context.Context) (uint32, error) {
	ev, err := d.Call(ctx, "get_clock", "clock")
	if err != nil {
		return 0, err
	}
	return ev.Uint("clock"), nil
}

// Uptime returns the time since the device booted, using the advertised
// CLOCK_FREQ
func (d *Device) Uptime(ctx context.Context) (time.Duration, error) {
	ev, err := d.Call(ctx, "get_uptime", "uptime")
	if err != nil {
		return 0, err
	}
	ticks := uint64(ev.Uint("high"))<<32 | uint64(ev.Uint("clock"))

	freq := uint32(core.TimerFreq)
	if f, ok := d.Dictionary().ConfigUint("CLOCK_FREQ"); ok && f > 0 {
		freq = f
	}
	f := uint64(freq)
	rem := ticks % f
	return time.Duration(ticks/f)*time.Second + time.Duration(rem*uint64(time.Second)/f), nil
}

// Describe renders a lock event for people; it never contains digits
// because the device never sends them
func Describe(ev Event) string {
	switch ev.Name {
	case "digit_accepted":
		return fmt.Sprintf("digit accepted, %d entered", ev.Uint("length"))
	case "digit_dropped":
		return "digit dropped: " + core.DropReason(ev.Uint("reason")).String()
	case "attempt_denied":
		return "attempt denied"
	case "unlocked":
		return fmt.Sprintf("unlocked for %d us", core.TimerToUS(ev.Uint("hold")))
	case "locked":
		return "locked"
	default:
		return fmt.Sprintf("%s %v", ev.Name, ev.Params)
	}
}
