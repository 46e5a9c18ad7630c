package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(nil) = 0x%04X, want 0xFFFF", got)
	}
}

func TestCRC16Consistency(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if crc1, crc2 := CRC16(data), CRC16(data); crc1 != crc2 {
		t.Errorf("CRC16 not consistent: first=%04X, second=%04X", crc1, crc2)
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})
	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}

func TestTrailerRoundTrip(t *testing.T) {
	msg := appendTrailer([]byte{7, SeqDest, 0x42, 0x01})
	if len(msg) != 7 {
		t.Fatalf("expected 7 byte frame, got %d", len(msg))
	}
	if msg[6] != SyncByte {
		t.Errorf("expected sync byte at end, got 0x%02X", msg[6])
	}
	if frameCRC(msg) != CRC16(msg[:4]) {
		t.Errorf("trailer CRC 0x%04X does not match body CRC 0x%04X", frameCRC(msg), CRC16(msg[:4]))
	}
}
