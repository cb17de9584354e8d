package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Control (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation
	OpEnd Opcode = 0x01 // Stop execution

	// ========================================================================
	// Operands (0x10-0x1F)
	// ========================================================================

	OpStr   Opcode = 0x10 // String literal: OpStr <const:u16>
	OpInt   Opcode = 0x11 // Integer literal: OpInt <value:i32>
	OpNum   Opcode = 0x12 // Numeric literal: OpNum <const:u16> (decimal text)
	OpArray Opcode = 0x13 // Array literal: OpArray <count:u8>, followed by count operands
	OpLen   Opcode = 0x14 // Length of the following operand (elements for hashes/arrays)

	// ========================================================================
	// Variable references (0x20-0x2F)
	// ========================================================================

	OpVar   Opcode = 0x20 // Variable reference: OpVar <slot:u16>, then any OpField/OpKey chain
	OpField Opcode = 0x21 // Nested field marker, must be followed by OpStr: foo.bar
	OpKey   Opcode = 0x22 // Keyed access marker, followed by one operand: foo(key)

	// ========================================================================
	// Statements (0x30-0x3F)
	// ========================================================================

	OpLet   Opcode = 0x30 // Assign: OpLet <reference> <operand>
	OpPrint Opcode = 0x31 // Write operand and a newline: OpPrint <operand>
	OpClear Opcode = 0x32 // Empty a variable into a hash: OpClear <reference>
	OpErase Opcode = 0x33 // Release a variable back to unset: OpErase <reference>
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	OperandLen int    // Number of inline operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop: {"NOP", 0},
	OpEnd: {"END", 0},

	OpStr:   {"STR", 2},
	OpInt:   {"INT", 4},
	OpNum:   {"NUM", 2},
	OpArray: {"ARRAY", 1},
	OpLen:   {"LEN", 0},

	OpVar:   {"VAR", 2},
	OpField: {"FIELD", 0},
	OpKey:   {"KEY", 0},

	OpLet:   {"LET", 0},
	OpPrint: {"PRINT", 0},
	OpClear: {"CLEAR", 0},
	OpErase: {"ERASE", 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of inline operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsKnown reports whether op is a defined opcode.
func (op Opcode) IsKnown() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsOperand returns true if the opcode starts a value-producing operand.
func (op Opcode) IsOperand() bool {
	return (op >= OpStr && op <= OpLen) || op == OpVar
}

// IsStatement returns true if the opcode starts a statement.
func (op Opcode) IsStatement() bool {
	return op >= OpLet && op <= OpErase
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
