package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lzd/internal/disasm"
	"lzd/internal/emit"
	"lzd/internal/pool"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <binary>",
	Short: "disassemble .text and print the instruction stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	workers, tuple, _, err := commonOpts(cmd)
	if err != nil {
		return err
	}

	ctx, err := emit.Load(args[0], tuple)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	ctx.ScanText()

	p := pool.New(workers)
	defer p.Destroy()

	var mu sync.Mutex
	var batches []*disasm.Batch
	publish := func(b *disasm.Batch) {
		mu.Lock()
		batches = append(batches, b)
		mu.Unlock()
	}
	if err := ctx.PostAll(p, publish); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	p.Drain()

	// Batches complete in arbitrary order; print them by base address.
	sort.Slice(batches, func(i, j int) bool { return batches[i].Base < batches[j].Base })

	fmt.Printf("%s: %s, %d code ranges\n", args[0], ctx.Tuple, ctx.Ranges.Len())
	for _, b := range batches {
		for _, in := range b.Insns.All() {
			fmt.Println(instLine(in))
		}
	}
	return nil
}

func instLine(in *disasm.Inst) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "0x%08x:  ", in.Addr)
	for i := 0; i < disasm.MaxBytes; i++ {
		if i < int(in.Size) {
			fmt.Fprintf(&sb, "%02x ", in.Bytes[i])
		} else {
			sb.WriteString("   ")
		}
	}
	fmt.Fprintf(&sb, " %s", in.Mnemonic)
	if in.Operands != "" {
		fmt.Fprintf(&sb, " %s", in.Operands)
	}
	return sb.String()
}

var stringsCmd = &cobra.Command{
	Use:   "strings <binary>",
	Short: "extract printable strings from the data sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, tuple, minStr, err := commonOpts(cmd)
		if err != nil {
			return err
		}
		ctx, err := emit.Load(args[0], tuple)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		strs := ctx.ExtractStrings(minStr)
		for _, s := range strs.All() {
			fmt.Fprintln(os.Stdout, s)
		}
		return nil
	},
}
