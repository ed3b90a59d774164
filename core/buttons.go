package core

import "errors"

const (
	MaxPortGroups = 8  // independent interrupt port groups
	PinsPerGroup  = 32 // pending-flag bits per group
	ButtonCount   = 10 // one button per digit
)

var (
	ErrBindingCount     = errors.New("binding table needs exactly 10 buttons")
	ErrBindingDigit     = errors.New("binding table must cover digits 0-9 once each")
	ErrBindingDuplicate = errors.New("binding table maps one pin twice")
	ErrBindingPin       = errors.New("binding pin or group out of range")
)

// PortGroup identifies one interrupt port (one vector, one flag register)
type PortGroup uint8

// ButtonBinding ties a (group, pin) input to the digit it enters
type ButtonBinding struct {
	Group PortGroup
	Pin   uint8
	Digit Digit
}

// BindingTable is the validated, immutable button map
type BindingTable struct {
	digits   [MaxPortGroups][PinsPerGroup]Digit // 0 = unbound
	masks    [MaxPortGroups]uint32
	bindings []ButtonBinding
}

// NewBindingTable validates bindings: exactly 10 entries, every digit once,
// no pin bound twice.
func NewBindingTable(bindings []ButtonBinding) (*BindingTable, error) {
	if len(bindings) != ButtonCount {
		return nil, ErrBindingCount
	}

	t := &BindingTable{bindings: make([]ButtonBinding, len(bindings))}
	copy(t.bindings, bindings)

	var seen [ButtonCount]bool
	for _, b := range bindings {
		if b.Group >= MaxPortGroups || b.Pin >= PinsPerGroup {
			return nil, ErrBindingPin
		}
		if !b.Digit.Valid() || seen[b.Digit-'0'] {
			return nil, ErrBindingDigit
		}
		if t.masks[b.Group]&(1<<b.Pin) != 0 {
			return nil, ErrBindingDuplicate
		}
		seen[b.Digit-'0'] = true
		t.digits[b.Group][b.Pin] = b.Digit
		t.masks[b.Group] |= 1 << b.Pin
	}
	return t, nil
}

// Lookup returns the digit bound to (g, pin)
func (t *BindingTable) Lookup(g PortGroup, pin uint8) (Digit, bool) {
	if g >= MaxPortGroups || pin >= PinsPerGroup {
		return 0, false
	}
	d := t.digits[g][pin]
	return d, d != 0
}

// Mask returns the bound pins of group g as a bit mask
func (t *BindingTable) Mask(g PortGroup) uint32 {
	if g >= MaxPortGroups {
		return 0
	}
	return t.masks[g]
}

// Find returns the binding that enters d
func (t *BindingTable) Find(d Digit) (ButtonBinding, bool) {
	for _, b := range t.bindings {
		if b.Digit == d {
			return b, true
		}
	}
	return ButtonBinding{}, false
}

// Bindings returns a copy of the table entries
func (t *BindingTable) Bindings() []ButtonBinding {
	out := make([]ButtonBinding, len(t.bindings))
	copy(out, t.bindings)
	return out
}

// DefaultBindings is the reference keypad wiring, four port groups
func DefaultBindings() []ButtonBinding {
	return []ButtonBinding{
		{Group: 1, Pin: 2, Digit: '7'},
		{Group: 1, Pin: 1, Digit: '8'},
		{Group: 1, Pin: 4, Digit: '9'},
		{Group: 2, Pin: 6, Digit: '3'},
		{Group: 2, Pin: 7, Digit: '6'},
		{Group: 3, Pin: 4, Digit: '1'},
		{Group: 3, Pin: 3, Digit: '2'},
		{Group: 3, Pin: 2, Digit: '5'},
		{Group: 6, Pin: 5, Digit: '0'},
		{Group: 6, Pin: 6, Digit: '4'},
	}
}
