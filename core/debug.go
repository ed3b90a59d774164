package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a lock transition for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value     uint32 // Context-dependent value
}

// Event type codes
const (
	EvtDigit    = 1 // digit accepted, Value = new length
	EvtDrop     = 2 // digit dropped, Value = DropReason
	EvtDenied   = 3 // attempt rejected
	EvtGranted  = 4 // attempt matched, Value = hold ticks
	EvtRelocked = 5 // actuator back at AngleClosed
	EvtSpurious = 6 // pending flag with no binding, Value = group<<8 | pin
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// It blocks until the writer returns.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTrace captures an event in the ring buffer. Never blocks.
func RecordTrace(eventType uint8, clock, value uint32) {
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		Clock:     clock,
		Value:     value,
	}
	traceRingHead = (idx + 1) % TraceRingSize
}

// TraceSnapshot returns the recorded events, oldest first
func TraceSnapshot() []TraceEvent {
	out := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// DumpTraceRing outputs the trace buffer through the debug writer, even
// when debug output is disabled
func DumpTraceRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceSnapshot() {
		var name string
		switch evt.EventType {
		case EvtDigit:
			name = "DIGIT"
		case EvtDrop:
			name = "DROP"
		case EvtDenied:
			name = "DENIED"
		case EvtGranted:
			name = "GRANTED"
		case EvtRelocked:
			name = "RELOCKED"
		case EvtSpurious:
			name = "SPURIOUS"
		default:
			name = "UNKNOWN"
		}
		debugPrintln("[TRACE] " + name +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
