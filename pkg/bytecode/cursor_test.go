package bytecode

import (
	"errors"
	"testing"

	"github.com/chazu/uds/pkg/variant"
)

func TestCursorPeek(t *testing.T) {
	c := NewChunk()
	c.EmitField("k")
	c.EmitInt(3)

	cur := NewCursor(c)
	steps := []variant.OperandKind{variant.OperandField, variant.OperandString, variant.OperandOther}
	for i, want := range steps {
		if got := cur.Peek(); got != want {
			t.Errorf("step %d: Peek() = %d, want %d", i, got, want)
		}
		cur.Skip()
	}
	if !cur.Done() {
		t.Errorf("Done() = false at offset %d, want true", cur.Offset())
	}
	if cur.PeekOp() != OpEnd {
		t.Errorf("PeekOp() past the end = %s, want END", cur.PeekOp())
	}
	if cur.Peek() != variant.OperandOther {
		t.Error("Peek() past the end should be OperandOther")
	}
}

func TestCursorEvalStr(t *testing.T) {
	c := NewChunk()
	c.EmitStr("name")
	c.EmitInt(1)

	cur := NewCursor(c)
	v := variant.NewInt(9)
	if err := cur.EvalStr(v); err != nil {
		t.Fatalf("EvalStr() error = %v", err)
	}
	if !v.IsStr() || v.Str() != "name" {
		t.Errorf("EvalStr() stored %v (%v), want str name", v, v.Kind())
	}
	if cur.Offset() != 3 {
		t.Errorf("Offset() = %d, want 3", cur.Offset())
	}

	if err := cur.EvalStr(v); !errors.Is(err, variant.ErrMalformedProgram) {
		t.Errorf("EvalStr() on INT error = %v, want ErrMalformedProgram", err)
	}
	if cur.Offset() != 3 {
		t.Errorf("failed EvalStr() moved the cursor to %d", cur.Offset())
	}
}

func TestCursorBadConstant(t *testing.T) {
	c := NewChunk()
	c.EmitWithOperand(OpStr, 0x00, 0x09)

	err := NewCursor(c).EvalStr(variant.New())
	if !errors.Is(err, variant.ErrMalformedProgram) {
		t.Errorf("EvalStr() error = %v, want ErrMalformedProgram", err)
	}
}

func TestCursorTruncatedOperands(t *testing.T) {
	c := NewChunk()
	c.Code = []byte{byte(OpInt), 0x00, 0x01}

	cur := NewCursor(c)
	if _, err := cur.ReadOp(); err != nil {
		t.Fatalf("ReadOp() error = %v", err)
	}
	if _, err := cur.ReadInt32(); err == nil {
		t.Error("ReadInt32() on 2 bytes succeeded")
	}
	if _, err := cur.ReadUint16(); err != nil {
		t.Errorf("ReadUint16() error = %v", err)
	}
	if _, err := cur.ReadUint8(); err == nil {
		t.Error("ReadUint8() at the end succeeded")
	}
	if _, err := cur.ReadOp(); err == nil {
		t.Error("ReadOp() at the end succeeded")
	}
}
