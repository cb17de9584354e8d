package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleEmpty(t *testing.T) {
	output := NewChunk().Disassemble()

	if !strings.Contains(output, "; UDS Bytecode v1") {
		t.Errorf("Disassembly missing header:\n%s", output)
	}
}

func TestDisassembleProgram(t *testing.T) {
	c, err := Assemble(`
LET
  VAR foo
  KEY
  STR "a"
  ARRAY 2
  INT 1
  NUM 2.5
CLEAR
  VAR foo
`, false)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	output := c.DisassembleWithName("demo")
	for _, want := range []string{
		"; === demo ===",
		"; Variables (1): foo",
		"0000  LET",
		"0001  VAR 0 ; foo",
		"0004  KEY",
		`0005  STR 0 ; "a"`,
		"0008  ARRAY count=2",
		"000A  INT 1",
		"000F  NUM 1 ; 2.5",
		"0012  CLEAR",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Disassembly missing %q:\n%s", want, output)
		}
	}

	lines := c.DisassembleToLines()
	if len(lines) != c.InstructionCount() {
		t.Errorf("len(DisassembleToLines()) = %d, InstructionCount() = %d", len(lines), c.InstructionCount())
	}
	if c.InstructionCount() != 9 {
		t.Errorf("InstructionCount() = %d, want 9", c.InstructionCount())
	}
}

func TestDisassembleDebug(t *testing.T) {
	c, err := Assemble("PRINT\nINT 4\n", true)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	output := c.Disassemble()
	if !strings.Contains(output, "[DEBUG]") {
		t.Error("Disassembly missing debug flag")
	}
	if !strings.Contains(output, "; line 2:1") {
		t.Errorf("Disassembly missing source line:\n%s", output)
	}
}

func TestDisassembleUnknown(t *testing.T) {
	c := NewChunk()
	c.Code = []byte{0xEE}
	if got := c.DisassembleInstruction(0); got != "UNKNOWN(0xEE)" {
		t.Errorf("DisassembleInstruction() = %q, want %q", got, "UNKNOWN(0xEE)")
	}
}
