package bytecode

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AsmError reports a problem in an assembly listing.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// mnemonics maps instruction names to opcodes, built from the opcode table.
var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Name] = op
	}
	return m
}()

// Assemble builds a chunk from a mnemonic listing with one instruction per
// line. Text after ';' is a comment. Mnemonics are case-insensitive; STR
// takes a Go-quoted string, INT and NUM a number, ARRAY a count and VAR a
// variable name. With debug set, every instruction is mapped back to its
// line.
//
//	LET
//	  VAR point
//	  FIELD
//	  STR "x"
//	  INT 10
func Assemble(src string, debug bool) (*Chunk, error) {
	c := NewChunk()
	sc := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == ';' {
			continue
		}

		name, rest := line, ""
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			name, rest = line[:i], line[i+1:]
		}
		op, ok := mnemonics[strings.ToUpper(name)]
		if !ok {
			return nil, &AsmError{Line: lineNo, Msg: fmt.Sprintf("unknown instruction %q", name)}
		}
		rest = strings.TrimSpace(rest)

		offset := c.CurrentOffset()
		if err := assembleOne(c, op, rest); err != nil {
			return nil, &AsmError{Line: lineNo, Msg: err.Error()}
		}
		if debug {
			c.AddSourceLocation(uint32(offset), uint32(lineNo), 1)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func assembleOne(c *Chunk, op Opcode, arg string) error {
	if op == OpStr {
		if arg == "" {
			return fmt.Errorf("STR needs a quoted string")
		}
		quoted, err := strconv.QuotedPrefix(arg)
		if err != nil {
			return fmt.Errorf("STR: bad string literal %s", arg)
		}
		if tail := strings.TrimSpace(arg[len(quoted):]); tail != "" && tail[0] != ';' {
			return fmt.Errorf("unexpected %q after string", tail)
		}
		s, _ := strconv.Unquote(quoted)
		if err := checkConstant(c, s); err != nil {
			return err
		}
		c.EmitStr(s)
		return nil
	}

	if i := strings.IndexByte(arg, ';'); i >= 0 {
		arg = strings.TrimSpace(arg[:i])
	}

	switch op {
	case OpInt:
		n, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("INT: %v", err)
		}
		c.EmitInt(int32(n))

	case OpNum:
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil || math.IsInf(f, 0) {
			return fmt.Errorf("NUM: bad number %q", arg)
		}
		if err := checkConstant(c, strconv.FormatFloat(f, 'g', -1, 64)); err != nil {
			return err
		}
		c.EmitNum(f)

	case OpArray:
		n, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return fmt.Errorf("ARRAY: %v", err)
		}
		c.EmitArray(uint8(n))

	case OpVar:
		if arg == "" || strings.ContainsAny(arg, " \t") {
			return fmt.Errorf("VAR needs a single name")
		}
		if len(arg) > 0xFF {
			return fmt.Errorf("variable name too long")
		}
		if c.varIndex(arg) < 0 && len(c.VarNames) >= MaxVars {
			return fmt.Errorf("too many variables (limit %d)", MaxVars)
		}
		c.EmitVar(arg)

	default:
		if arg != "" {
			return fmt.Errorf("%s takes no operand", op)
		}
		c.Emit(op)
	}
	return nil
}

// checkConstant reports whether s can be added to the constant pool.
func checkConstant(c *Chunk, s string) error {
	if c.constantIndex(s) < 0 && len(c.Constants) >= MaxConstants {
		return fmt.Errorf("too many constants (limit %d)", MaxConstants)
	}
	return nil
}
