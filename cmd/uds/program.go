package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/uds/image"
	"github.com/chazu/uds/pkg/bytecode"
	"github.com/chazu/uds/pkg/export"
)

// listingExt marks assembly listings; anything else is read as a compiled
// chunk in either encoding.
const listingExt = ".uasm"

// loadChunk reads a listing or a compiled chunk from path.
func loadChunk(path string) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), listingExt) {
		c, err := bytecode.Assemble(string(data), true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, nil
	}
	c, err := bytecode.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func handleRunCommand(args []string, opts *options, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	save := fs.String("save", "", "Save the variables as a snapshot with this name")
	load := fs.String("load", "", "Start from the variables of this snapshot (ID or name)")
	importYAML := fs.String("import", "", "Start from the variables in this YAML file (as written by dump)")
	trace := fs.Bool("trace", false, "Log every statement")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("run: no files given")
	}

	w := &stringWriter{w: out}
	vm := bytecode.NewVM(w)
	vm.MaxFieldDepth = opts.manifest.Runtime.MaxFieldDepth
	vm.Trace = *trace

	ctx := context.Background()
	var store *image.Store
	if *save != "" || *load != "" {
		var err error
		if store, err = image.Open(ctx, opts.manifest.ImagePath()); err != nil {
			return err
		}
		defer store.Close()
	}

	if *load != "" {
		_, vars, err := store.Load(ctx, *load)
		if err != nil {
			return err
		}
		for _, b := range vars {
			vm.Bind(b.Name, b.Value)
		}
	}

	if *importYAML != "" {
		data, err := os.ReadFile(*importYAML)
		if err != nil {
			return err
		}
		vars, err := export.UnmarshalBindings(data)
		if err != nil {
			return fmt.Errorf("%s: %w", *importYAML, err)
		}
		for _, b := range vars {
			vm.Bind(b.Name, b.Value)
		}
	}

	for _, path := range fs.Args() {
		c, err := loadChunk(path)
		if err != nil {
			return err
		}
		if err := vm.Execute(c); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if w.err != nil {
			return w.err
		}
	}

	if *save != "" {
		snap, err := store.Save(ctx, *save, vmBindings(vm))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved snapshot %s (%s)\n", snap.ID, snap.Name)
	}
	return nil
}

// vmBindings lists the VM's globals in creation order.
func vmBindings(vm *bytecode.VM) []image.Binding {
	var vars []image.Binding
	for _, name := range vm.VarNames() {
		v, _ := vm.Lookup(name)
		vars = append(vars, image.Binding{Name: name, Value: v})
	}
	return vars
}

func handleAsmCommand(args []string) error {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	output := fs.String("o", "", "Output file (default: input with .udsb or .cbor extension)")
	useCBOR := fs.Bool("cbor", false, "Write CBOR instead of the binary format")
	debug := fs.Bool("g", false, "Include source line information")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("asm: expected one listing")
	}
	in := fs.Arg(0)

	src, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	c, err := bytecode.Assemble(string(src), *debug)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	var data []byte
	ext := ".udsb"
	if *useCBOR {
		ext = ".cbor"
		data, err = bytecode.MarshalChunk(c)
	} else {
		data, err = c.Serialize()
	}
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ext
	}
	return os.WriteFile(out, data, 0644)
}

func handleDisasmCommand(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("disasm: expected one file")
	}
	c, err := loadChunk(args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, c.DisassembleWithName(filepath.Base(args[0])))
	return err
}

// stringWriter adapts an io.Writer for the VM and remembers the first error.
type stringWriter struct {
	w   io.Writer
	err error
}

func (s *stringWriter) WriteString(str string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := io.WriteString(s.w, str)
	s.err = err
	return n, err
}
