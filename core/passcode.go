// Passcode storage and the attempt buffer
package core

import "errors"

// PasscodeLength is the number of digits in one passcode attempt
const PasscodeLength = 4

// Digit is a single keypad value '0'..'9'
type Digit byte

// Blank is the display-only value for an unlit position
const Blank Digit = ' '

var (
	ErrInvalidPasscode = errors.New("passcode must be exactly 4 digits")
	ErrInvalidDigit    = errors.New("digit must be in '0'..'9'")
)

// Valid reports whether d is one of '0'..'9'
func (d Digit) Valid() bool {
	return d >= '0' && d <= '9'
}

// Passcode is the stored correct passcode. It is read-only after init.
type Passcode [PasscodeLength]Digit

// ParsePasscode converts a string like "1234" into a Passcode
func ParsePasscode(s string) (Passcode, error) {
	var p Passcode
	if len(s) != PasscodeLength {
		return p, ErrInvalidPasscode
	}
	for i := 0; i < PasscodeLength; i++ {
		d := Digit(s[i])
		if !d.Valid() {
			return p, ErrInvalidDigit
		}
		p[i] = d
	}
	return p, nil
}

// Buffer holds the digits entered for the current attempt.
// Its length is always in [0, PasscodeLength]; a full buffer never wraps.
type Buffer struct {
	digits [PasscodeLength]Digit
	length uint8
}

// Len returns the number of digits entered so far
func (b *Buffer) Len() int {
	return int(b.length)
}

// Full reports whether the buffer holds a complete attempt
func (b *Buffer) Full() bool {
	return b.length >= PasscodeLength
}

// At returns the digit at position i, or Blank past the current length
func (b *Buffer) At(i int) Digit {
	if i < 0 || i >= int(b.length) {
		return Blank
	}
	return b.digits[i]
}

// Append adds d at the end of the buffer.
// Returns false and leaves the buffer untouched when it is already full.
func (b *Buffer) Append(d Digit) bool {
	if b.length >= PasscodeLength {
		return false
	}
	b.digits[b.length] = d
	b.length++
	return true
}

// Reset clears the stored digits and sets the length to 0
func (b *Buffer) Reset() {
	for i := range b.digits {
		b.digits[i] = 0
	}
	b.length = 0
}

// Matches compares a full buffer against p element by element.
// It stops at the first mismatch; there is no constant-time guarantee.
func (b *Buffer) Matches(p Passcode) bool {
	if !b.Full() {
		return false
	}
	for i := 0; i < PasscodeLength; i++ {
		if b.digits[i] != p[i] {
			return false
		}
	}
	return true
}
