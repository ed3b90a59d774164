package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultBindingsAreValid(t *testing.T) {
	table, err := NewBindingTable(DefaultBindings())
	require.NoError(t, err)

	require.Equal(t, uint32(1<<1|1<<2|1<<4), table.Mask(1))
	require.Equal(t, uint32(1<<6|1<<7), table.Mask(2))
	require.Equal(t, uint32(1<<2|1<<3|1<<4), table.Mask(3))
	require.Equal(t, uint32(1<<5|1<<6), table.Mask(6))
	require.Zero(t, table.Mask(0))

	d, ok := table.Lookup(6, 5)
	require.True(t, ok)
	require.Equal(t, Digit('0'), d)

	_, ok = table.Lookup(6, 7)
	require.False(t, ok)
}

func TestBindingTableValidation(t *testing.T) {
	withEdit := func(edit func([]ButtonBinding) []ButtonBinding) []ButtonBinding {
		return edit(DefaultBindings())
	}

	tests := []struct {
		name     string
		bindings []ButtonBinding
		err      error
	}{
		{"too few", DefaultBindings()[:9], ErrBindingCount},
		{"digit twice", withEdit(func(b []ButtonBinding) []ButtonBinding {
			b[0].Digit = '8'
			return b
		}), ErrBindingDigit},
		{"not a digit", withEdit(func(b []ButtonBinding) []ButtonBinding {
			b[0].Digit = '*'
			return b
		}), ErrBindingDigit},
		{"pin twice", withEdit(func(b []ButtonBinding) []ButtonBinding {
			b[1].Group, b[1].Pin = b[0].Group, b[0].Pin
			return b
		}), ErrBindingDuplicate},
		{"group out of range", withEdit(func(b []ButtonBinding) []ButtonBinding {
			b[0].Group = MaxPortGroups
			return b
		}), ErrBindingPin},
		{"pin out of range", withEdit(func(b []ButtonBinding) []ButtonBinding {
			b[0].Pin = PinsPerGroup
			return b
		}), ErrBindingPin},
	}
	for _, tc := range tests {
		_, err := NewBindingTable(tc.bindings)
		require.ErrorIs(t, err, tc.err, tc.name)
	}
}

func TestPortFlags(t *testing.T) {
	var f PortFlags
	f.Raise(3, 4)
	f.Raise(3, 2)
	f.Raise(3, 4) // edges on one pin collapse into one flag
	f.Raise(MaxPortGroups, 0)
	f.Raise(0, PinsPerGroup)

	require.Equal(t, uint32(1<<4|1<<2), f.Pending(3))
	f.Clear(3, 1<<4)
	require.Equal(t, uint32(1<<2), f.Pending(3))
	require.Zero(t, f.Pending(MaxPortGroups))
}

func newDispatchRig(t *testing.T) (*Dispatcher, *PortFlags, *entryRig) {
	t.Helper()
	table, err := NewBindingTable(DefaultBindings())
	require.NoError(t, err)
	r := newEntryRig("1234", 100)
	flags := &PortFlags{}
	return NewDispatcher(table, flags, r.m, r.clock.Now), flags, r
}

func TestDispatchOrderAcrossGroups(t *testing.T) {
	d, flags, r := newDispatchRig(t)

	// '1' and '2' on group 3, '3' on group 2, raised in reverse
	flags.Raise(3, 4)
	flags.Raise(3, 3)
	flags.Raise(2, 6)

	require.Equal(t, 3, d.Service())
	// group 2 first, then group 3 low bit first
	require.Equal(t, "321 ", r.display.text())
	require.Equal(t, 3, r.m.Len())
	for g := PortGroup(0); g < MaxPortGroups; g++ {
		require.Zero(t, flags.Pending(g), "group %d", g)
	}
}

func TestDispatchRefreshesOncePerPass(t *testing.T) {
	d, flags, r := newDispatchRig(t)

	flags.Raise(1, 2) // '7'
	flags.Raise(6, 6) // '4'
	d.Service()

	// one render of two positions, not one render per event
	require.Equal(t, []displayWrite{{'7', 0}, {'4', 1}}, r.display.writes)
	require.Equal(t, uint32(1), d.Cycles())

	r.display.reset()
	require.Zero(t, d.Service(), "nothing pending")
	require.Empty(t, r.display.writes)
	require.Equal(t, uint32(1), d.Cycles())
}

func TestDispatchSpuriousFlags(t *testing.T) {
	d, flags, r := newDispatchRig(t)

	flags.Raise(0, 0)
	flags.Raise(3, 7)
	require.Zero(t, d.Service())
	require.Equal(t, uint32(2), d.Spurious())
	require.Zero(t, flags.Pending(0))
	require.Zero(t, flags.Pending(3))
	require.Empty(t, r.display.writes, "no refresh without a consumed event")
}

// All four buttons in one pass are processed in binding order, which is not
// the passcode order here, so the attempt is denied.
func TestDispatchSimultaneousFullAttempt(t *testing.T) {
	d, flags, r := newDispatchRig(t)

	flags.Raise(3, 4) // '1'
	flags.Raise(3, 3) // '2'
	flags.Raise(2, 6) // '3'
	flags.Raise(6, 6) // '4'
	require.Equal(t, 4, d.Service())

	require.Equal(t, StateCollecting, r.m.State())
	require.Equal(t, uint32(1), r.m.Stats().Denials)
	require.Equal(t, "    ", r.display.text())
}

// Five events in one pass: the fourth completes the attempt, the fifth
// starts a new one.
func TestDispatchOverflowStartsNextAttempt(t *testing.T) {
	d, flags, r := newDispatchRig(t)

	presses := []ButtonBinding{{Group: 1, Pin: 1}, {Group: 1, Pin: 2}, {Group: 1, Pin: 4}, {Group: 2, Pin: 6}, {Group: 2, Pin: 7}}
	for _, b := range presses {
		flags.Raise(b.Group, b.Pin)
	}
	require.Equal(t, 5, d.Service())
	require.Equal(t, uint32(1), r.m.Stats().Attempts)
	require.Equal(t, 1, r.m.Len())
	require.Equal(t, "6   ", r.display.text())
}
