package protocol

// CRC16 is the CCITT variant used on the link, initial value 0xFFFF
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// EncodeVLQInt writes v most significant group first. Values in
// [-32, 96) take one byte.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var tmp [5]byte
	n := 0
	if v < -(1<<26) || v >= 3<<26 {
		tmp[n] = byte((v>>28)&0x7F) | 0x80
		n++
	}
	if v < -(1<<19) || v >= 3<<19 {
		tmp[n] = byte((v>>21)&0x7F) | 0x80
		n++
	}
	if v < -(1<<12) || v >= 3<<12 {
		tmp[n] = byte((v>>14)&0x7F) | 0x80
		n++
	}
	if v < -(1<<5) || v >= 3<<5 {
		tmp[n] = byte((v>>7)&0x7F) | 0x80
		n++
	}
	tmp[n] = byte(v & 0x7F)
	output.Output(tmp[:n+1])
}

// EncodeVLQUint writes v as its two's complement int32
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32(buf[0])
	buf = buf[1:]
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if len(buf) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32(buf[0])
		buf = buf[1:]
		v = v<<7 | c&0x7F
	}

	*data = buf
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes writes a length prefixed byte string
func EncodeVLQBytes(output OutputBuffer, b []byte) {
	EncodeVLQUint(output, uint32(len(b)))
	output.Output(b)
}

// DecodeVLQBytes reads a length prefixed byte string. The result aliases data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	out := (*data)[:n]
	*data = (*data)[n:]
	return out, nil
}

// EncodeVLQString writes a length prefixed string
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQBytes(output, []byte(s))
}

// DecodeVLQString reads a length prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
