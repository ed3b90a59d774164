// Package protocol implements the framed link between the lock and a host.
//
// A frame is: length, sequence, payload, crc16 (big endian), sync byte 0x7E.
// Payloads are sequences of VLQ encoded message ids and arguments. A frame
// with an empty payload is an ACK/NAK carrying the next expected sequence.
package protocol

import "errors"

const (
	HeaderSize  = 2 // length, sequence
	TrailerSize = 3 // crc hi, crc lo, sync
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 64

	posLength = 0
	posSeq    = 1

	SyncByte = 0x7E
	SeqDest  = 0x10 // high nibble of every sequence byte
	SeqMask  = 0x0F

	OutputMax = 512 // scratch output capacity, several frames
)

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
	ErrFrameTooLong   = errors.New("frame exceeds maximum length")
	ErrTimeout        = errors.New("timed out waiting for device")
	ErrClosed         = errors.New("transport closed")
	ErrSequence       = errors.New("ack sequence mismatch")
)

// NextSeq returns the sequence byte following seq
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
