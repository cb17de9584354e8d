package bytecode

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// BytecodeVersion is the current bytecode format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// Pool limits. Constants and variables are addressed by u16 operands and
// counted with u16 fields in the binary format.
const (
	MaxConstants = 0xFFFF
	MaxVars      = 0xFFFF
	MaxSourceMap = 0xFFFF
)

// Magic bytes for bytecode files: "UDSB"
var BytecodeMagic = []byte{'U', 'D', 'S', 'B'}

// ChunkFlags contains compilation flags for a chunk.
type ChunkFlags uint16

const (
	// ChunkFlagDebug indicates debug information is present.
	ChunkFlagDebug ChunkFlags = 1 << 0
)

// SourceLocation maps bytecode position to source location for debugging.
type SourceLocation struct {
	BytecodeOffset uint32 `cbor:"1,keyasint"` // Offset in code section
	Line           uint32 `cbor:"2,keyasint"` // Source line number (1-based)
	Column         uint16 `cbor:"3,keyasint"` // Source column number (1-based)
}

// Chunk is a compiled program: code, a string constant pool and the names of
// the variables it addresses by slot.
type Chunk struct {
	// Header
	Version uint16     `cbor:"1,keyasint"` // Bytecode format version
	Flags   ChunkFlags `cbor:"2,keyasint"` // Compilation flags

	// Code section
	Code []byte `cbor:"3,keyasint"` // Bytecode instructions

	// Constant pool - string literals and numeric literal text
	Constants []string `cbor:"4,keyasint,omitempty"`

	// Variable slots, addressed by OpVar
	VarNames []string `cbor:"5,keyasint,omitempty"`

	// Debug information (optional, present if ChunkFlagDebug is set)
	SourceMap []SourceLocation `cbor:"6,keyasint,omitempty"` // Bytecode offset -> source location
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version:   BytecodeVersion,
		Code:      make([]byte, 0, 64),
		Constants: make([]string, 0, 8),
	}
}

// AddConstant adds a string constant to the pool and returns its index.
// If the constant already exists, returns the existing index.
// Panics if the pool already holds MaxConstants entries.
func (c *Chunk) AddConstant(value string) uint16 {
	if i := c.constantIndex(value); i >= 0 {
		return uint16(i)
	}
	if len(c.Constants) >= MaxConstants {
		panic(fmt.Sprintf("bytecode: constant pool full (%d entries)", MaxConstants))
	}
	idx := uint16(len(c.Constants))
	c.Constants = append(c.Constants, value)
	return idx
}

func (c *Chunk) constantIndex(value string) int {
	for i, s := range c.Constants {
		if s == value {
			return i
		}
	}
	return -1
}

// GetConstant returns the constant at the given index.
// Panics if the index is out of bounds.
func (c *Chunk) GetConstant(index uint16) string {
	return c.Constants[index]
}

// AddVar returns the slot for a named variable, allocating one if needed.
// Panics if MaxVars slots are already allocated.
func (c *Chunk) AddVar(name string) uint16 {
	if i := c.varIndex(name); i >= 0 {
		return uint16(i)
	}
	if len(c.VarNames) >= MaxVars {
		panic(fmt.Sprintf("bytecode: too many variables (%d)", MaxVars))
	}
	c.VarNames = append(c.VarNames, name)
	return uint16(len(c.VarNames) - 1)
}

func (c *Chunk) varIndex(name string) int {
	for i, n := range c.VarNames {
		if n == name {
			return i
		}
	}
	return -1
}

// VarCount returns the number of variable slots the chunk needs.
func (c *Chunk) VarCount() int {
	return len(c.VarNames)
}

// Emit appends a single-byte opcode to the code section.
func (c *Chunk) Emit(op Opcode) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	return offset
}

// EmitWithOperand appends an opcode with operand bytes.
func (c *Chunk) EmitWithOperand(op Opcode, operands ...byte) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, operands...)
	return offset
}

// EmitStr emits a string literal operand.
func (c *Chunk) EmitStr(s string) int {
	idx := c.AddConstant(s)
	return c.EmitWithOperand(OpStr, byte(idx>>8), byte(idx))
}

// EmitInt emits an integer literal operand.
func (c *Chunk) EmitInt(n int32) int {
	return c.EmitWithOperand(OpInt, binary.BigEndian.AppendUint32(nil, uint32(n))...)
}

// EmitNum emits a numeric literal operand. The value is kept in the constant
// pool as its shortest decimal text.
func (c *Chunk) EmitNum(f float64) int {
	idx := c.AddConstant(strconv.FormatFloat(f, 'g', -1, 64))
	return c.EmitWithOperand(OpNum, byte(idx>>8), byte(idx))
}

// EmitArray emits an array literal header. The caller emits count operands
// right after it.
func (c *Chunk) EmitArray(count uint8) int {
	return c.EmitWithOperand(OpArray, count)
}

// EmitVar emits a reference to the named variable.
func (c *Chunk) EmitVar(name string) int {
	slot := c.AddVar(name)
	return c.EmitWithOperand(OpVar, byte(slot>>8), byte(slot))
}

// EmitField emits a nested field access: OpField followed by the field name.
func (c *Chunk) EmitField(name string) int {
	offset := c.Emit(OpField)
	c.EmitStr(name)
	return offset
}

// CurrentOffset returns the current offset in the code section.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}

// CodeLen returns the length of the code section.
func (c *Chunk) CodeLen() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// AddSourceLocation adds a debug source location mapping.
func (c *Chunk) AddSourceLocation(bytecodeOffset uint32, line uint32, column uint16) {
	c.Flags |= ChunkFlagDebug
	c.SourceMap = append(c.SourceMap, SourceLocation{
		BytecodeOffset: bytecodeOffset,
		Line:           line,
		Column:         column,
	})
}

// GetSourceLocation returns the source location for a bytecode offset.
// Returns line 0, column 0 if no mapping exists.
func (c *Chunk) GetSourceLocation(offset uint32) (line uint32, column uint16) {
	for i := len(c.SourceMap) - 1; i >= 0; i-- {
		if c.SourceMap[i].BytecodeOffset <= offset {
			return c.SourceMap[i].Line, c.SourceMap[i].Column
		}
	}
	return 0, 0
}

// Serialize encodes the chunk to bytes for storage/transport.
// Format:
//
//	[magic:4] [version:2] [flags:2]
//	[code_len:4] [code:...]
//	[const_count:2] [constants:...]
//	[var_count:2] [var_names:...]
//	[debug_present:1] [source_map:...] (if ChunkFlagDebug)
func (c *Chunk) Serialize() ([]byte, error) {
	if len(c.Constants) > MaxConstants {
		return nil, fmt.Errorf("too many constants: %d", len(c.Constants))
	}
	if len(c.VarNames) > MaxVars {
		return nil, fmt.Errorf("too many variables: %d", len(c.VarNames))
	}
	if len(c.SourceMap) > MaxSourceMap {
		return nil, fmt.Errorf("too many source locations: %d", len(c.SourceMap))
	}

	estimatedSize := 8 + len(c.Code) + len(c.Constants)*32 + len(c.VarNames)*16 + 16
	buf := make([]byte, 0, estimatedSize)

	buf = append(buf, BytecodeMagic...)
	buf = binary.BigEndian.AppendUint16(buf, c.Version)
	buf = binary.BigEndian.AppendUint16(buf, uint16(c.Flags))

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Code)))
	buf = append(buf, c.Code...)

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.Constants)))
	for i, s := range c.Constants {
		if len(s) > 0xFFFF {
			return nil, fmt.Errorf("constant %d too long: %d bytes", i, len(s))
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	}

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.VarNames)))
	for i, name := range c.VarNames {
		if len(name) > 0xFF {
			return nil, fmt.Errorf("variable name %d too long: %d bytes", i, len(name))
		}
		buf = append(buf, byte(len(name)))
		buf = append(buf, name...)
	}

	if c.Flags&ChunkFlagDebug != 0 {
		buf = append(buf, 1)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(c.SourceMap)))
		for _, loc := range c.SourceMap {
			buf = binary.BigEndian.AppendUint32(buf, loc.BytecodeOffset)
			buf = binary.BigEndian.AppendUint32(buf, loc.Line)
			buf = binary.BigEndian.AppendUint16(buf, loc.Column)
		}
	} else {
		buf = append(buf, 0)
	}

	return buf, nil
}

// Deserialize decodes a chunk from bytes.
func Deserialize(data []byte) (*Chunk, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("bytecode too short: need at least 8 bytes, got %d", len(data))
	}

	if string(data[0:4]) != string(BytecodeMagic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", BytecodeMagic, data[0:4])
	}

	c := &Chunk{
		Version: binary.BigEndian.Uint16(data[4:6]),
		Flags:   ChunkFlags(binary.BigEndian.Uint16(data[6:8])),
	}

	pos := 8

	if c.Version > BytecodeVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", c.Version, BytecodeVersion)
	}

	// Code section
	if pos+4 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code length at pos %d", pos)
	}
	codeLen := binary.BigEndian.Uint32(data[pos:])
	pos += 4

	if uint64(pos)+uint64(codeLen) > uint64(len(data)) {
		return nil, fmt.Errorf("unexpected end of bytecode reading code section: need %d bytes at pos %d", codeLen, pos)
	}
	c.Code = make([]byte, codeLen)
	copy(c.Code, data[pos:pos+int(codeLen)])
	pos += int(codeLen)

	// Constants
	if pos+2 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading constant count")
	}
	constCount := binary.BigEndian.Uint16(data[pos:])
	pos += 2

	c.Constants = make([]string, constCount)
	for i := range c.Constants {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading constant %d length", i)
		}
		strLen := binary.BigEndian.Uint16(data[pos:])
		pos += 2

		if pos+int(strLen) > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading constant %d", i)
		}
		c.Constants[i] = string(data[pos : pos+int(strLen)])
		pos += int(strLen)
	}

	// Variables
	if pos+2 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading variable count")
	}
	varCount := binary.BigEndian.Uint16(data[pos:])
	pos += 2

	c.VarNames = make([]string, varCount)
	for i := range c.VarNames {
		if pos >= len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading variable %d name length", i)
		}
		nameLen := data[pos]
		pos++

		if pos+int(nameLen) > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading variable %d name", i)
		}
		c.VarNames[i] = string(data[pos : pos+int(nameLen)])
		pos += int(nameLen)
	}

	// Debug info
	if pos >= len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode reading debug marker")
	}
	hasDebug := data[pos]
	pos++

	if hasDebug != 0 {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("unexpected end of bytecode reading source map count")
		}
		sourceMapLen := binary.BigEndian.Uint16(data[pos:])
		pos += 2

		c.SourceMap = make([]SourceLocation, sourceMapLen)
		for i := range c.SourceMap {
			if pos+10 > len(data) {
				return nil, fmt.Errorf("unexpected end of bytecode reading source location %d", i)
			}
			c.SourceMap[i].BytecodeOffset = binary.BigEndian.Uint32(data[pos:])
			pos += 4
			c.SourceMap[i].Line = binary.BigEndian.Uint32(data[pos:])
			pos += 4
			c.SourceMap[i].Column = binary.BigEndian.Uint16(data[pos:])
			pos += 2
		}
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%d bytes of trailing data after bytecode", len(data)-pos)
	}
	return c, nil
}
