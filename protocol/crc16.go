package protocol

// CRC16 computes the CRC16-CCITT (0xFFFF seed, reflected) used in frame trailers
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}

// frameCRC reads the CRC stored in the trailer of a complete frame
func frameCRC(msg []byte) uint16 {
	n := len(msg)
	return uint16(msg[n-3])<<8 | uint16(msg[n-2])
}

// appendTrailer appends the CRC of msg and the sync byte
func appendTrailer(msg []byte) []byte {
	crc := CRC16(msg)
	return append(msg, byte(crc>>8), byte(crc), SyncByte)
}
