package core

// validate consumes a complete attempt. It is reached only from AppendDigit
// and never appends digits itself.
//
// A mismatch clears the buffer and the display. There is no lockout and no
// retry counter: the next digit starts a new attempt immediately. A match
// keeps the digits lit until the relock clears them.
func (m *EntryMachine) validate() Outcome {
	m.stats.Attempts++
	now := m.clock()
	if !m.buf.Matches(m.passcode) {
		m.resetBuffer()
		m.state = StateCollecting
		m.stats.Denials++
		RecordTrace(EvtDenied, now, 0)
		m.events.AttemptDenied()
		return OutcomeDenied
	}

	if err := m.seq.StartUnlock(now); err != nil {
		// A previous cycle still holds the actuator; the attempt is discarded
		DebugPrintln("[LOCK] " + err.Error())
		m.resetBuffer()
		m.state = StateCollecting
		return OutcomeDropped
	}
	m.state = StateUnlocking
	m.stats.Grants++
	RecordTrace(EvtGranted, now, m.seq.HoldTicks())
	m.events.Unlocked(m.seq.HoldTicks())
	return OutcomeGranted
}
