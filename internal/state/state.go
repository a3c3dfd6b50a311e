// Package state defines the persistent counter layout.
//
// A counter account's state is a fixed 4-byte little-endian u32. The
// host hands the engine a byte buffer; Load and Store are the only two
// functions that may interpret it. Buffers longer than the layout are
// fine - only the fixed-width prefix is read or written, the rest
// belongs to the host.
package state

import "encoding/binary"

// Size is the serialized counter width in bytes.
const Size = 4

// Counter is the deserialized counter value.
type Counter uint32

// Load deserializes a counter from the leading Size bytes of buf.
func Load(buf []byte) (Counter, error) {
	if len(buf) < Size {
		return 0, NewDeserializationError(len(buf))
	}
	return Counter(binary.LittleEndian.Uint32(buf[:Size])), nil
}

// Store serializes the counter into the leading Size bytes of buf.
// On error buf is left untouched: serialization is staged in a
// temporary so a short buffer cannot observe a partial write.
func (c Counter) Store(buf []byte) error {
	if len(buf) < Size {
		return NewSerializationError(len(buf))
	}
	var tmp [Size]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(c))
	copy(buf, tmp[:])
	return nil
}

// Bytes returns a fresh Size-byte serialization of the counter.
func (c Counter) Bytes() []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf, uint32(c))
	return buf
}
