// Package tinycompress writes and reads zlib streams made of stored
// (uncompressed) deflate blocks. It needs no tables and no allocation beyond
// the input, which suits the lock firmware; any zlib reader can inflate it.
package tinycompress

import (
	"errors"
	"hash/adler32"
	"io"
)

const (
	maxBlock   = 0xFFFF // stored block payload limit
	headerCMF  = 0x78
	headerFLG  = 0x9C
	blockFinal = 0x01
)

var (
	ErrHeader   = errors.New("tinycompress: not a zlib stream")
	ErrBlock    = errors.New("tinycompress: unsupported or corrupt block")
	ErrChecksum = errors.New("tinycompress: adler32 mismatch")
	ErrClosed   = errors.New("tinycompress: write after close")
)

// Writer buffers everything written and emits the stream on Close
type Writer struct {
	out    io.Writer
	buf    []byte
	closed bool
}

// NewWriter returns a Writer that emits to w. sizeHint preallocates the
// input buffer; allocation during Write can stall some TinyGo schedulers.
func NewWriter(w io.Writer, sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{out: w, buf: make([]byte, 0, sizeHint)}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes header, stored blocks of at most 64 KiB, and the checksum
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := w.out.Write([]byte{headerCMF, headerFLG}); err != nil {
		return err
	}

	data := w.buf
	for {
		n := len(data)
		if n > maxBlock {
			n = maxBlock
		}
		var hdr [5]byte
		if n == len(data) {
			hdr[0] = blockFinal
		}
		hdr[1], hdr[2] = byte(n), byte(n>>8)
		hdr[3], hdr[4] = ^byte(n), ^byte(n>>8)
		if _, err := w.out.Write(hdr[:]); err != nil {
			return err
		}
		if _, err := w.out.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		if hdr[0] == blockFinal {
			break
		}
	}

	sum := adler32.Checksum(w.buf)
	_, err := w.out.Write([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	return err
}

// Compress returns data as a complete zlib stream
func Compress(data []byte) []byte {
	var out sliceWriter
	w := NewWriter(&out, len(data))
	_, _ = w.Write(data)
	_ = w.Close()
	return out
}

// Decompress inflates a stream made only of stored blocks, as produced by
// Writer, and verifies its checksum.
func Decompress(stream []byte) ([]byte, error) {
	if len(stream) < 2 || stream[0]&0x0F != 8 || (uint16(stream[0])<<8|uint16(stream[1]))%31 != 0 {
		return nil, ErrHeader
	}
	pos := 2
	var out []byte

	for {
		if pos+5 > len(stream) {
			return nil, ErrBlock
		}
		hdr := stream[pos]
		if hdr>>1&0x03 != 0 {
			return nil, ErrBlock
		}
		n := int(stream[pos+1]) | int(stream[pos+2])<<8
		nn := int(stream[pos+3]) | int(stream[pos+4])<<8
		pos += 5
		if n != ^nn&0xFFFF || pos+n > len(stream) {
			return nil, ErrBlock
		}
		out = append(out, stream[pos:pos+n]...)
		pos += n
		if hdr&blockFinal != 0 {
			break
		}
	}

	if pos+4 != len(stream) {
		return nil, ErrBlock
	}
	want := uint32(stream[pos])<<24 | uint32(stream[pos+1])<<16 | uint32(stream[pos+2])<<8 | uint32(stream[pos+3])
	if adler32.Checksum(out) != want {
		return nil, ErrChecksum
	}
	return out, nil
}

type sliceWriter []byte

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s = append(*s, p...)
	return len(p), nil
}
