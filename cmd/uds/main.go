// uds CLI - assemble, run and inspect programs over associative variables
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/uds/manifest"
	"github.com/chazu/uds/pkg/variant"

	_ "github.com/tliron/commonlog/simple"
)

// options are the global flags shared by every subcommand.
type options struct {
	verbosity int
	logPath   string
	dir       string
	manifest  *manifest.Manifest
}

func main() {
	opts := &options{}
	flag.IntVar(&opts.verbosity, "v", -1, "Log verbosity (0-2); overrides uds.toml")
	flag.StringVar(&opts.logPath, "log", "", "Log file (default stderr)")
	flag.StringVar(&opts.dir, "C", ".", "Look for uds.toml starting in this directory")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: uds [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  init [name]           Write a uds.toml in the current directory\n")
		fmt.Fprintf(os.Stderr, "  run [flags] files...  Execute listings (.uasm) or compiled chunks\n")
		fmt.Fprintf(os.Stderr, "  asm [flags] file      Assemble a listing into a chunk\n")
		fmt.Fprintf(os.Stderr, "  disasm file           Disassemble a listing or chunk\n")
		fmt.Fprintf(os.Stderr, "  snapshots             List saved snapshots\n")
		fmt.Fprintf(os.Stderr, "  dump [flags] ref      Print the variables of a snapshot\n")
		fmt.Fprintf(os.Stderr, "  rm ref                Delete a snapshot\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  uds run src/main.uasm              # Run a listing\n")
		fmt.Fprintf(os.Stderr, "  uds run -save demo src/main.uasm   # Run and snapshot the variables\n")
		fmt.Fprintf(os.Stderr, "  uds dump -format yaml demo         # Show the latest 'demo' snapshot\n")
		fmt.Fprintf(os.Stderr, "  uds run -import vars.yaml main.uasm # Start from variables in a YAML file\n")
		fmt.Fprintf(os.Stderr, "  uds asm -o main.udsb src/main.uasm # Compile to binary bytecode\n")
	}
	flag.Parse()

	if err := setup(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		if opts.manifest != nil && opts.manifest.EntryPath() != "" {
			args = []string{"run", opts.manifest.EntryPath()}
		} else {
			flag.Usage()
			os.Exit(2)
		}
	}

	var err error
	switch args[0] {
	case "init":
		err = handleInitCommand(args[1:])
	case "run":
		err = handleRunCommand(args[1:], opts, os.Stdout)
	case "asm":
		err = handleAsmCommand(args[1:])
	case "disasm":
		err = handleDisasmCommand(args[1:], os.Stdout)
	case "snapshots":
		err = handleSnapshotsCommand(args[1:], opts, os.Stdout)
	case "dump":
		err = handleDumpCommand(args[1:], opts, os.Stdout)
	case "rm":
		err = handleRmCommand(args[1:], opts)
	case "help":
		flag.Usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads uds.toml (if any) and configures logging and the runtime.
func setup(opts *options) error {
	m, err := manifest.FindAndLoad(opts.dir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		m = manifest.Default("")
		m.Dir = opts.dir
	}
	opts.manifest = m

	verbosity := m.Log.Verbosity
	if opts.verbosity >= 0 {
		verbosity = opts.verbosity
	}
	logPath := m.LogPath()
	if opts.logPath != "" {
		logPath = opts.logPath
	}
	if logPath != "" {
		commonlog.Configure(verbosity, &logPath)
	} else {
		commonlog.Configure(verbosity, nil)
	}

	variant.SetCollation(m.Collation())
	return nil
}

func handleInitCommand(args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = filepath.Base(wd)
	}
	if err := manifest.Write(wd, manifest.Default(name)); err != nil {
		return err
	}
	fmt.Printf("Wrote %s for project %q\n", manifest.FileName, name)
	return nil
}
