// Package instruction implements the wire format for counter
// instructions.
//
// An instruction buffer is a single opcode byte optionally followed by
// a 4-byte little-endian operand:
//
//	[opcode u8][operand u32 LE]
//
// Opcodes 0-2 (increment, decrement, update) require the operand;
// opcode 3 (reset) carries none and ignores any trailing bytes. The
// format is versionless: unknown opcodes are rejected, never skipped.
package instruction

import (
	"encoding/binary"
	"fmt"
)

// Opcode identifies a counter operation on the wire.
type Opcode uint8

const (
	// OpcodeIncrement adds the operand to the counter, wrapping on
	// overflow.
	OpcodeIncrement Opcode = 0

	// OpcodeDecrement subtracts the operand from the counter, clamping
	// at zero.
	OpcodeDecrement Opcode = 1

	// OpcodeUpdate replaces the counter with the operand.
	OpcodeUpdate Opcode = 2

	// OpcodeReset sets the counter to zero. No operand.
	OpcodeReset Opcode = 3
)

const (
	// OperandSize is the width of the operand in bytes.
	OperandSize = 4

	// MinOperandLen is the minimum buffer length for an
	// operand-carrying instruction: opcode byte plus operand.
	MinOperandLen = 1 + OperandSize
)

// Valid reports whether the opcode is one of the defined operations.
func (op Opcode) Valid() bool {
	return op <= OpcodeReset
}

// HasOperand reports whether the opcode requires an operand on the
// wire.
func (op Opcode) HasOperand() bool {
	return op == OpcodeIncrement || op == OpcodeDecrement || op == OpcodeUpdate
}

// String returns the operation name, or "unknown(N)" for undefined
// opcodes.
func (op Opcode) String() string {
	switch op {
	case OpcodeIncrement:
		return "increment"
	case OpcodeDecrement:
		return "decrement"
	case OpcodeUpdate:
		return "update"
	case OpcodeReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(op))
	}
}

// ParseOpcode maps an operation name to its opcode. Names are
// lowercase and exact; anything else is an error.
func ParseOpcode(name string) (Opcode, error) {
	switch name {
	case "increment":
		return OpcodeIncrement, nil
	case "decrement":
		return OpcodeDecrement, nil
	case "update":
		return OpcodeUpdate, nil
	case "reset":
		return OpcodeReset, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", name)
	}
}

// Instruction is a decoded counter instruction.
// Value is zero for reset.
type Instruction struct {
	Op    Opcode
	Value uint32
}

// String renders the instruction in "op(value)" form, or just the
// operation name when it carries no operand.
func (in Instruction) String() string {
	if in.Op.HasOperand() {
		return fmt.Sprintf("%s(%d)", in.Op, in.Value)
	}
	return in.Op.String()
}

// Encode serializes the instruction to wire bytes: the inverse of
// Decode for well-formed instructions.
func (in Instruction) Encode() []byte {
	if !in.Op.HasOperand() {
		return []byte{byte(in.Op)}
	}
	buf := make([]byte, MinOperandLen)
	buf[0] = byte(in.Op)
	binary.LittleEndian.PutUint32(buf[1:], in.Value)
	return buf
}
