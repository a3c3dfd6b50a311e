package instruction

import "encoding/binary"

// Decode parses an instruction buffer.
//
// Rejections are total and deterministic: the same bytes always
// produce the same instruction or the same error, and no partial
// result escapes on failure.
//
// An empty buffer is reported as truncated rather than unknown: there
// is no opcode byte to judge yet.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, NewTruncatedPayloadError(0, 1)
	}

	op := Opcode(data[0])
	if !op.Valid() {
		return Instruction{}, NewUnknownOpcodeError(data[0])
	}

	if !op.HasOperand() {
		// Reset carries no operand; trailing bytes are ignored.
		return Instruction{Op: op}, nil
	}

	if len(data) < MinOperandLen {
		return Instruction{}, NewTruncatedPayloadError(len(data), MinOperandLen)
	}

	return Instruction{
		Op:    op,
		Value: binary.LittleEndian.Uint32(data[1:MinOperandLen]),
	}, nil
}
