package device

import (
	"context"
	"encoding/binary"
	"log/slog"
)

// LevelTrace is the slog level used for simulation traces.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a simulation event at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// EncodeWords converts 32-bit words into little-endian bytes.
func EncodeWords(words []uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}

	return data
}

// DecodeWords converts little-endian bytes into 32-bit words. Trailing bytes
// that do not form a full word are ignored.
func DecodeWords(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}

	return words
}

func makePacket(size int, value uint32) []byte {
	pkt := make([]byte, size)
	binary.LittleEndian.PutUint32(pkt, value)

	return pkt
}

func packetValue(pkt []byte) uint32 {
	return binary.LittleEndian.Uint32(pkt)
}
