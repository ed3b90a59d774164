package core

import (
	"errors"

	"keylock/protocol"
)

// FirmwareVersion is reported in the dictionary
const FirmwareVersion = "keylock-0.1.0"

var ErrNoLock = errors.New("link has no lock attached")

// ResponseSender frames one outgoing message; *protocol.Transport implements it
type ResponseSender interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

// Link answers host commands and forwards lock events as messages. It never
// reports digit values, only buffer lengths.
type Link struct {
	reg  *CommandRegistry
	dict *Dictionary
	out  ResponseSender
	lock *Lock
}

// NewLink registers the message table and the dictionary constants.
// identify_response and identify must keep ids 0 and 1.
func NewLink(cfg Config, mcu string) *Link {
	l := &Link{reg: NewCommandRegistry()}
	l.dict = NewDictionary(l.reg, FirmwareVersion)

	l.reg.RegisterResponse("identify_response", "offset=%u data=%*s")
	l.reg.Register("identify", "offset=%u count=%c", l.handleIdentify)
	l.reg.Register("get_status", "", l.handleGetStatus)
	l.reg.Register("get_uptime", "", l.handleGetUptime)
	l.reg.Register("get_clock", "", l.handleGetClock)

	l.reg.RegisterResponse("status", "state=%c lock=%c length=%c attempts=%u grants=%u denials=%u dropped=%u")
	l.reg.RegisterResponse("uptime", "high=%u clock=%u")
	l.reg.RegisterResponse("clock", "clock=%u")
	l.reg.RegisterResponse("digit_accepted", "length=%c")
	l.reg.RegisterResponse("digit_dropped", "reason=%c")
	l.reg.RegisterResponse("attempt_denied", "")
	l.reg.RegisterResponse("unlocked", "hold=%u")
	l.reg.RegisterResponse("locked", "")

	l.dict.AddConstant("MCU", mcu)
	l.dict.AddConstant("CLOCK_FREQ", uint32(TimerFreq))
	l.dict.AddConstant("PASSCODE_LENGTH", PasscodeLength)
	l.dict.AddConstant("HOLD_TICKS", cfg.HoldTicks)
	return l
}

// SetSender connects the link to its transport
func (l *Link) SetSender(s ResponseSender) {
	l.out = s
}

// Attach gives get_status access to lock
func (l *Link) Attach(lock *Lock) {
	l.lock = lock
}

// Handle is the protocol.CommandHandler of the device transport
func (l *Link) Handle(cmdID uint16, data *[]byte) error {
	return l.reg.Dispatch(cmdID, data)
}

func (l *Link) Registry() *CommandRegistry {
	return l.reg
}

func (l *Link) Dictionary() *Dictionary {
	return l.dict
}

// send looks the response up by name so ids stay owned by the registry
func (l *Link) send(name string, args func(protocol.OutputBuffer)) {
	if l.out == nil {
		return
	}
	cmd, ok := l.reg.GetCommandByName(name)
	if !ok {
		DebugPrintln("[LINK] response not registered: " + name)
		return
	}
	l.out.SendCommand(cmd.ID, args)
}

func (l *Link) handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := l.dict.GetChunk(offset, uint8(count))
	l.send("identify_response", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQBytes(out, chunk)
	})
	return nil
}

func (l *Link) handleGetStatus(*[]byte) error {
	if l.lock == nil {
		return ErrNoLock
	}
	st := l.lock.Status()
	l.send("status", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(st.State))
		protocol.EncodeVLQUint(out, uint32(st.Lock))
		protocol.EncodeVLQUint(out, uint32(st.Length))
		protocol.EncodeVLQUint(out, st.Stats.Attempts)
		protocol.EncodeVLQUint(out, st.Stats.Grants)
		protocol.EncodeVLQUint(out, st.Stats.Denials)
		protocol.EncodeVLQUint(out, st.Stats.Dropped)
	})
	return nil
}

func (l *Link) handleGetUptime(*[]byte) error {
	up := GetUptime()
	l.send("uptime", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(up>>32))
		protocol.EncodeVLQUint(out, uint32(up))
	})
	return nil
}

func (l *Link) handleGetClock(*[]byte) error {
	now := GetTime()
	l.send("clock", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, now)
	})
	return nil
}

// DigitAccepted implements EventSink
func (l *Link) DigitAccepted(length uint8) {
	l.send("digit_accepted", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(length))
	})
}

// DigitDropped implements EventSink
func (l *Link) DigitDropped(reason DropReason) {
	l.send("digit_dropped", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(reason))
	})
}

// AttemptDenied implements EventSink
func (l *Link) AttemptDenied() {
	l.send("attempt_denied", nil)
}

// Unlocked implements EventSink
func (l *Link) Unlocked(holdTicks uint32) {
	l.send("unlocked", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, holdTicks)
	})
}

// Locked implements EventSink
func (l *Link) Locked() {
	l.send("locked", nil)
}
