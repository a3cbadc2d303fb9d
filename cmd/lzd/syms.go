package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lzd/internal/elfx"
	"lzd/internal/emit"
)

var symsCmd = &cobra.Command{
	Use:   "syms <binary>",
	Short: "print the symbol tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyms,
}

func runSyms(cmd *cobra.Command, args []string) error {
	_, tuple, _, err := commonOpts(cmd)
	if err != nil {
		return err
	}
	ctx, err := emit.Load(args[0], tuple)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	syms := ctx.ExtractSymbols()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Value", "Size", "Bind", "Type", "Shndx", "Name"})
	for _, s := range syms.All() {
		table.Append([]string{
			fmt.Sprintf("0x%x", s.Value),
			fmt.Sprintf("%d", s.Size),
			elfx.BindName(s.Bind),
			elfx.SymTypeName(s.SymType),
			fmt.Sprintf("%d", s.Shndx),
			s.Name,
		})
	}
	table.Render()
	fmt.Printf("%d symbols\n", syms.Len())
	return nil
}
