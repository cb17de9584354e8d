package bytecode

import "testing"

func TestOpcodeInfo(t *testing.T) {
	tests := []struct {
		op         Opcode
		name       string
		operandLen int
	}{
		{OpNop, "NOP", 0},
		{OpStr, "STR", 2},
		{OpInt, "INT", 4},
		{OpNum, "NUM", 2},
		{OpArray, "ARRAY", 1},
		{OpVar, "VAR", 2},
		{OpField, "FIELD", 0},
		{OpKey, "KEY", 0},
		{OpLet, "LET", 0},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.name {
			t.Errorf("%#x.String() = %q, want %q", byte(tt.op), got, tt.name)
		}
		if got := tt.op.OperandLen(); got != tt.operandLen {
			t.Errorf("%s.OperandLen() = %d, want %d", tt.name, got, tt.operandLen)
		}
		if got := tt.op.InstructionLen(); got != 1+tt.operandLen {
			t.Errorf("%s.InstructionLen() = %d, want %d", tt.name, got, 1+tt.operandLen)
		}
	}
}

func TestOpcodeCategories(t *testing.T) {
	for _, op := range AllOpcodes() {
		if !op.IsKnown() {
			t.Errorf("%s from AllOpcodes() is not known", op)
		}
		if op.IsOperand() && op.IsStatement() {
			t.Errorf("%s is both operand and statement", op)
		}
	}
	if len(AllOpcodes()) != OpcodeCount() {
		t.Errorf("len(AllOpcodes()) = %d, OpcodeCount() = %d", len(AllOpcodes()), OpcodeCount())
	}
	if Opcode(0xEE).IsKnown() {
		t.Error("0xEE should not be known")
	}
	for _, op := range []Opcode{OpStr, OpInt, OpNum, OpArray, OpLen, OpVar} {
		if !op.IsOperand() {
			t.Errorf("%s.IsOperand() = false", op)
		}
	}
	for _, op := range []Opcode{OpLet, OpPrint, OpClear, OpErase} {
		if !op.IsStatement() {
			t.Errorf("%s.IsStatement() = false", op)
		}
	}
}
