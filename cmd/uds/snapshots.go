package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/chazu/uds/image"
	"github.com/chazu/uds/pkg/export"
	"github.com/chazu/uds/pkg/variant"
)

func openImage(ctx context.Context, opts *options) (*image.Store, error) {
	return image.Open(ctx, opts.manifest.ImagePath())
}

func handleSnapshotsCommand(args []string, opts *options, out io.Writer) error {
	ctx := context.Background()
	store, err := openImage(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tVARS\tCOLLATION\tDIGEST")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.12s\n", s.ID, s.Name, s.CreatedAt.Local().Format(time.DateTime), s.Vars, s.Collation, s.Digest)
	}
	return tw.Flush()
}

// isTerminal reports whether out is an interactive terminal.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func handleDumpCommand(args []string, opts *options, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	format := fs.String("format", "", "Output format: text or yaml (default text on a terminal, yaml otherwise)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("dump: expected one snapshot ID or name")
	}

	ctx := context.Background()
	store, err := openImage(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	_, vars, err := store.Load(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	mode := *format
	if mode == "" {
		mode = "yaml"
		if isTerminal(out) {
			mode = "text"
		}
	}
	return writeVars(out, vars, mode)
}

func writeVars(out io.Writer, vars []image.Binding, mode string) error {
	switch mode {
	case "yaml":
		bindings := make([]export.Binding, len(vars))
		for i, b := range vars {
			bindings[i] = export.Binding{Name: b.Name, Value: b.Value}
		}
		return export.Encode(out, bindings)
	case "text":
		for _, b := range vars {
			summary := ""
			if b.Value.IsHash() {
				summary = "  ; " + variant.Summary(b.Value)
			}
			if _, err := fmt.Fprintf(out, "%s = %s%s\n", b.Name, b.Value, summary); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", mode)
	}
}

func handleRmCommand(args []string, opts *options) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: expected one snapshot ID or name")
	}
	ctx := context.Background()
	store, err := openImage(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(ctx, args[0])
}
