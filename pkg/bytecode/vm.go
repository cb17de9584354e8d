package bytecode

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/uds/pkg/variant"
)

var log = commonlog.GetLogger("uds.bytecode")

// RuntimeError reports a failed statement together with where it happened.
type RuntimeError struct {
	Offset int    // Offset of the failing statement
	Op     Opcode // Statement opcode
	Line   uint32 // Source line, 0 when the chunk has no debug info
	Err    error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s at %04X: %v", e.Line, e.Op, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s at %04X: %v", e.Op, e.Offset, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// VM executes chunks statement by statement. Variables are global and keyed
// by name, so they survive across Execute calls and can be preloaded with
// Bind.
type VM struct {
	chunk *Chunk
	cur   *Cursor
	slots []*variant.Variant

	globals map[string]*variant.Variant
	order   []string

	out io.StringWriter

	// MaxFieldDepth bounds a single a.b.c chain; 0 means unlimited.
	MaxFieldDepth int

	// Trace logs every statement at debug level.
	Trace bool
}

// NewVM creates a VM that prints to out.
func NewVM(out io.StringWriter) *VM {
	return &VM{
		globals: make(map[string]*variant.Variant),
		out:     out,
	}
}

// Bind sets the global variable name to a copy of v.
func (vm *VM) Bind(name string, v *variant.Variant) {
	vm.Var(name).Set(v)
}

// Var returns the global variable name, creating it unset if needed.
func (vm *VM) Var(name string) *variant.Variant {
	if v, ok := vm.globals[name]; ok {
		return v
	}
	v := variant.New()
	vm.globals[name] = v
	vm.order = append(vm.order, name)
	return v
}

// Lookup returns the global variable name if it exists.
func (vm *VM) Lookup(name string) (*variant.Variant, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// VarNames returns the names of all globals in creation order.
func (vm *VM) VarNames() []string {
	return append([]string(nil), vm.order...)
}

// Execute runs chunk to completion or until the first failing statement.
func (vm *VM) Execute(chunk *Chunk) error {
	vm.chunk = chunk
	vm.cur = NewCursor(chunk)
	vm.slots = make([]*variant.Variant, chunk.VarCount())
	for i, name := range chunk.VarNames {
		vm.slots[i] = vm.Var(name)
	}
	return vm.run()
}

// run is the main execution loop.
func (vm *VM) run() error {
	for !vm.cur.Done() {
		start := vm.cur.Offset()
		op, err := vm.cur.ReadOp()
		if err != nil {
			return vm.fail(start, op, err)
		}

		if vm.Trace {
			log.Debugf("[%04X] %s", start, op)
		}

		switch op {
		case OpNop:
			// Do nothing

		case OpEnd:
			return nil

		case OpLet:
			err = vm.execLet()

		case OpPrint:
			err = vm.execPrint()

		case OpClear:
			var ref *variant.Variant
			if ref, err = vm.reference(); err == nil {
				variant.ClearInPlace(ref)
			}

		case OpErase:
			var ref *variant.Variant
			if ref, err = vm.reference(); err == nil {
				ref.Free()
			}

		default:
			err = fmt.Errorf("%s is not a statement: %w", op, variant.ErrMalformedProgram)
		}

		if err != nil {
			return vm.fail(start, op, err)
		}
	}
	return nil
}

func (vm *VM) fail(offset int, op Opcode, err error) error {
	line, _ := vm.chunk.GetSourceLocation(uint32(offset))
	rerr := &RuntimeError{Offset: offset, Op: op, Line: line, Err: err}
	switch {
	case errors.Is(err, variant.ErrTypeMismatch):
		log.Debugf("type mismatch: %v", rerr)
	case errors.Is(err, variant.ErrMalformedProgram):
		log.Errorf("malformed program: %v", rerr)
	}
	return rerr
}

func (vm *VM) execLet() error {
	ref, err := vm.reference()
	if err != nil {
		return err
	}
	val, err := vm.operand()
	if err != nil {
		return err
	}
	ref.Set(val)
	return nil
}

func (vm *VM) execPrint() error {
	val, err := vm.operand()
	if err != nil {
		return err
	}
	if err := variant.Write(vm.out, val); err != nil {
		return err
	}
	_, err = vm.out.WriteString("\n")
	return err
}

// reference reads a variable reference and resolves its field and key chain
// to the addressed slot. Missing fields and keys are created.
func (vm *VM) reference() (*variant.Variant, error) {
	op, err := vm.cur.ReadOp()
	if err != nil {
		return nil, err
	}
	if op != OpVar {
		return nil, fmt.Errorf("expected VAR, found %s: %w", op, variant.ErrMalformedProgram)
	}
	slot, err := vm.cur.ReadUint16()
	if err != nil {
		return nil, err
	}
	if int(slot) >= len(vm.slots) {
		return nil, fmt.Errorf("variable slot %d out of range: %w", slot, variant.ErrMalformedProgram)
	}

	base := vm.slots[slot]
	for {
		switch vm.cur.PeekOp() {
		case OpField:
			wasArray := base.IsArray()
			if base, err = variant.ResolveLimit(base, vm.cur, vm.MaxFieldDepth); err != nil {
				return nil, err
			}
			if wasArray {
				log.Debugf("promoted array %s to hash", vm.chunk.VarNames[slot])
			}

		case OpKey:
			vm.cur.Skip()
			key, err := vm.operand()
			if err != nil {
				return nil, err
			}
			if base.IsArray() {
				log.Debugf("promoted array %s to hash", vm.chunk.VarNames[slot])
			}
			if base, err = variant.Get(base, key); err != nil {
				return nil, err
			}

		default:
			return base, nil
		}
	}
}

// operand evaluates the next value-producing instruction. The result is
// owned by the caller.
func (vm *VM) operand() (*variant.Variant, error) {
	op := vm.cur.PeekOp()
	if op == OpVar {
		ref, err := vm.reference()
		if err != nil {
			return nil, err
		}
		return ref.Clone(), nil
	}

	op, err := vm.cur.ReadOp()
	if err != nil {
		return nil, err
	}
	switch op {
	case OpStr:
		s, err := vm.cur.ReadConstant()
		if err != nil {
			return nil, err
		}
		return variant.NewStr(s), nil

	case OpInt:
		n, err := vm.cur.ReadInt32()
		if err != nil {
			return nil, err
		}
		return variant.NewInt(int64(n)), nil

	case OpNum:
		s, err := vm.cur.ReadConstant()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("numeric literal %q: %w", s, variant.ErrMalformedProgram)
		}
		return variant.NewNum(f), nil

	case OpArray:
		count, err := vm.cur.ReadUint8()
		if err != nil {
			return nil, err
		}
		elems := make([]*variant.Variant, count)
		for i := range elems {
			if elems[i], err = vm.operand(); err != nil {
				return nil, err
			}
		}
		return variant.NewArray(elems...), nil

	case OpLen:
		v, err := vm.operand()
		if err != nil {
			return nil, err
		}
		return variant.NewInt(int64(v.Len())), nil

	default:
		return nil, fmt.Errorf("expected operand, found %s: %w", op, variant.ErrMalformedProgram)
	}
}
