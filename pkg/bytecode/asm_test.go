package bytecode

import (
	"bytes"
	"errors"
	"testing"
)

func TestAssemble(t *testing.T) {
	src := `
; assign and print
let
	VAR foo      ; the target
	FIELD
	STR "a;b \"q\""
	NUM 0.5
PRINT
	ARRAY 2
	INT -7
	LEN
	VAR foo
`
	c, err := Assemble(src, false)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := NewChunk()
	want.Emit(OpLet)
	want.EmitVar("foo")
	want.EmitField(`a;b "q"`)
	want.EmitNum(0.5)
	want.Emit(OpPrint)
	want.EmitArray(2)
	want.EmitInt(-7)
	want.Emit(OpLen)
	want.EmitVar("foo")

	if !bytes.Equal(c.Code, want.Code) {
		t.Errorf("Code = % X, want % X", c.Code, want.Code)
	}
	if c.GetConstant(0) != `a;b "q"` {
		t.Errorf("GetConstant(0) = %q, want %q", c.GetConstant(0), `a;b "q"`)
	}
	if c.Flags&ChunkFlagDebug != 0 || len(c.SourceMap) != 0 {
		t.Error("non-debug assembly produced a source map")
	}
}

func TestAssembleDebug(t *testing.T) {
	c, err := Assemble("PRINT\n\nINT 1\n", true)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(c.SourceMap) != 2 {
		t.Fatalf("len(SourceMap) = %d, want 2", len(c.SourceMap))
	}
	if line, _ := c.GetSourceLocation(1); line != 3 {
		t.Errorf("line of INT = %d, want 3", line)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown", "PRINT\nJUMP 3", 2},
		{"missing string", "STR", 1},
		{"unquoted string", "STR abc", 1},
		{"trailing garbage", `STR "a" b`, 1},
		{"int range", "INT 99999999999", 1},
		{"int text", "INT x", 1},
		{"num text", "NUM one", 1},
		{"array count", "ARRAY 300", 1},
		{"var missing", "VAR", 1},
		{"var spaces", "VAR a b", 1},
		{"stray operand", "\n\nLET 3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(tt.src, false)
			var aerr *AsmError
			if !errors.As(err, &aerr) {
				t.Fatalf("Assemble(%q) error = %v, want *AsmError", tt.src, err)
			}
			if aerr.Line != tt.line {
				t.Errorf("Line = %d, want %d", aerr.Line, tt.line)
			}
		})
	}
}

func TestAssemblePoolLimits(t *testing.T) {
	c := NewChunk()
	c.Constants = make([]string, MaxConstants)
	c.Constants[0] = "known"
	c.VarNames = make([]string, MaxVars)
	c.VarNames[0] = "x"

	// Existing entries are reused.
	if err := assembleOne(c, OpStr, `"known"`); err != nil {
		t.Errorf("STR of a pooled constant error = %v", err)
	}
	if err := assembleOne(c, OpVar, "x"); err != nil {
		t.Errorf("VAR of a known variable error = %v", err)
	}

	for _, tt := range []struct {
		op  Opcode
		arg string
	}{
		{OpStr, `"fresh"`},
		{OpNum, "2.5"},
		{OpVar, "y"},
	} {
		before := c.CodeLen()
		if err := assembleOne(c, tt.op, tt.arg); err == nil {
			t.Errorf("%s %s with a full pool succeeded, want error", tt.op, tt.arg)
		}
		if c.CodeLen() != before {
			t.Errorf("%s %s emitted code despite the error", tt.op, tt.arg)
		}
	}
}
