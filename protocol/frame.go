package protocol

type scanResult uint8

const (
	scanMore   scanResult = iota // incomplete frame, wait for data
	scanOK                       // valid frame of the returned length
	scanResync                   // corrupt, drop up to the next sync byte
)

// scanFrame validates the frame at the start of data. checkDest rejects
// frames whose sequence byte lacks SeqDest.
func scanFrame(data []byte, checkDest bool) (int, scanResult) {
	if len(data) < FrameMin {
		return 0, scanMore
	}
	n := int(data[posLength])
	if n < FrameMin || n > FrameMax {
		return 0, scanResync
	}
	if checkDest && data[posSeq]&^SeqMask != SeqDest {
		return 0, scanResync
	}
	if len(data) < n {
		return 0, scanMore
	}
	if data[n-1] != SyncByte {
		return 0, scanResync
	}
	crc := uint16(data[n-3])<<8 | uint16(data[n-2])
	if crc != CRC16(data[:n-TrailerSize]) {
		return 0, scanResync
	}
	return n, scanOK
}

// skipToSync returns data after the first sync byte, or nil if there is none
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == SyncByte {
			return data[i+1:], true
		}
	}
	return nil, false
}

// encodeFrame writes one complete frame around body into output
func encodeFrame(output OutputBuffer, seq uint8, body func(OutputBuffer)) {
	start := output.CurPosition()
	output.Output([]byte{0, seq})
	if body != nil {
		body(output)
	}
	output.Update(start, uint8(len(output.DataSince(start))+TrailerSize))
	crc := CRC16(output.DataSince(start))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), SyncByte})
}
