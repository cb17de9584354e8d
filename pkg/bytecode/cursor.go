package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/chazu/uds/pkg/variant"
)

// Cursor is a forward reader over a chunk's code. It satisfies
// variant.Cursor so that field chains can be resolved straight from the
// instruction stream.
type Cursor struct {
	chunk *Chunk
	ip    int
}

var _ variant.Cursor = (*Cursor)(nil)

// NewCursor returns a cursor positioned at the start of c.
func NewCursor(c *Chunk) *Cursor {
	return &Cursor{chunk: c}
}

// Offset returns the position of the next instruction.
func (cur *Cursor) Offset() int {
	return cur.ip
}

// Done reports whether the cursor has consumed all code.
func (cur *Cursor) Done() bool {
	return cur.ip >= len(cur.chunk.Code)
}

// PeekOp returns the next opcode without consuming it, or OpEnd when the
// code is exhausted.
func (cur *Cursor) PeekOp() Opcode {
	if cur.Done() {
		return OpEnd
	}
	return Opcode(cur.chunk.Code[cur.ip])
}

// Peek classifies the next instruction for field resolution.
func (cur *Cursor) Peek() variant.OperandKind {
	switch cur.PeekOp() {
	case OpField:
		return variant.OperandField
	case OpStr:
		return variant.OperandString
	default:
		return variant.OperandOther
	}
}

// Skip consumes the next instruction including its inline operands.
func (cur *Cursor) Skip() {
	if cur.Done() {
		return
	}
	cur.ip += cur.PeekOp().InstructionLen()
}

// ReadOp consumes and returns the next opcode. Inline operands are left for
// the Read* helpers.
func (cur *Cursor) ReadOp() (Opcode, error) {
	if cur.Done() {
		return OpEnd, fmt.Errorf("unexpected end of code at %04X", cur.ip)
	}
	op := Opcode(cur.chunk.Code[cur.ip])
	cur.ip++
	return op, nil
}

// ReadUint8 consumes a one-byte inline operand.
func (cur *Cursor) ReadUint8() (uint8, error) {
	if cur.ip+1 > len(cur.chunk.Code) {
		return 0, fmt.Errorf("truncated operand at %04X", cur.ip)
	}
	b := cur.chunk.Code[cur.ip]
	cur.ip++
	return b, nil
}

// ReadUint16 consumes a big-endian two-byte inline operand.
func (cur *Cursor) ReadUint16() (uint16, error) {
	if cur.ip+2 > len(cur.chunk.Code) {
		return 0, fmt.Errorf("truncated operand at %04X", cur.ip)
	}
	v := binary.BigEndian.Uint16(cur.chunk.Code[cur.ip:])
	cur.ip += 2
	return v, nil
}

// ReadInt32 consumes a big-endian four-byte inline operand.
func (cur *Cursor) ReadInt32() (int32, error) {
	if cur.ip+4 > len(cur.chunk.Code) {
		return 0, fmt.Errorf("truncated operand at %04X", cur.ip)
	}
	v := int32(binary.BigEndian.Uint32(cur.chunk.Code[cur.ip:]))
	cur.ip += 4
	return v, nil
}

// ReadConstant consumes a constant index operand and returns the constant.
func (cur *Cursor) ReadConstant() (string, error) {
	idx, err := cur.ReadUint16()
	if err != nil {
		return "", err
	}
	if int(idx) >= len(cur.chunk.Constants) {
		return "", fmt.Errorf("constant index %d out of range: %w", idx, variant.ErrMalformedProgram)
	}
	return cur.chunk.Constants[idx], nil
}

// EvalStr consumes a string literal instruction and stores its value in dst.
func (cur *Cursor) EvalStr(dst *variant.Variant) error {
	if cur.PeekOp() != OpStr {
		return fmt.Errorf("expected STR at %04X, found %s: %w", cur.ip, cur.PeekOp(), variant.ErrMalformedProgram)
	}
	cur.ip++
	s, err := cur.ReadConstant()
	if err != nil {
		return err
	}
	dst.SetStr(s)
	return nil
}
