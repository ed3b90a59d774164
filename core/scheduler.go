package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer

	queued bool
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by WakeTime and fires them from the main loop
type Scheduler struct {
	list *Timer
}

// timerIsBefore compares tick values across a 32-bit wrap
func timerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// Schedule adds t to the schedule. A timer that is already queued is moved.
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if t.queued {
		s.remove(t)
	}
	s.insert(t)
}

// Cancel removes t from the schedule. Returns false if it was not queued.
func (s *Scheduler) Cancel(t *Timer) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !t.queued {
		return false
	}
	s.remove(t)
	return true
}

// Pending returns the number of queued timers
func (s *Scheduler) Pending() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := 0
	for t := s.list; t != nil; t = t.Next {
		n++
	}
	return n
}

// Dispatch runs every timer whose WakeTime is not after now and returns how
// many fired. Handlers run with interrupts enabled and may schedule timers.
func (s *Scheduler) Dispatch(now uint32) int {
	fired := 0
	for {
		t := s.popDue(now)
		if t == nil {
			return fired
		}
		fired++
		if t.Handler(t) == SF_RESCHEDULE {
			s.Schedule(t)
		}
	}
}

// popDue unlinks the head timer if it is due
func (s *Scheduler) popDue(now uint32) *Timer {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	t := s.list
	if t == nil || timerIsBefore(now, t.WakeTime) {
		return nil
	}
	s.list = t.Next
	t.Next = nil
	t.queued = false
	return t
}

// insert places t in sorted order by WakeTime; equal wake times keep FIFO order
func (s *Scheduler) insert(t *Timer) {
	t.queued = true
	if s.list == nil || timerIsBefore(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !timerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

func (s *Scheduler) remove(t *Timer) {
	if s.list == t {
		s.list = t.Next
	} else {
		for cur := s.list; cur != nil; cur = cur.Next {
			if cur.Next == t {
				cur.Next = t.Next
				break
			}
		}
	}
	t.Next = nil
	t.queued = false
}

// NextWake returns the wake time of the earliest queued timer
func (s *Scheduler) NextWake() (uint32, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == nil {
		return 0, false
	}
	return s.list.WakeTime, true
}
