// Package protocol implements the framed serial link used to query a board.
//
// Every frame is [len][seq] payload [crc_hi][crc_lo][0x7E]. The payload is a
// sequence of VLQ encoded message ids, each followed by its arguments. A frame
// with an empty payload is an ACK (or NAK) carrying the next expected sequence.
package protocol

// Version is the protocol/firmware version string
const Version = "0.1.0"

const (
	HeaderSize  = 2
	TrailerSize = 3
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 64

	posLen = 0
	posSeq = 1

	SyncByte = 0x7E

	// Sequence bytes always carry SeqDest in the high nibble
	SeqDest = 0x10
	SeqMask = 0x0F

	// OutputMax bounds the scratch buffer that collects outgoing frames
	OutputMax = 512
)

// nextSeq returns the sequence that follows seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
