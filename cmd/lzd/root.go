package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lzd/internal/disasm"
	"lzd/internal/logging"
	"lzd/internal/pool"
	"lzd/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "lzd [binary]",
	Short: "lzd - lazy terminal ELF disassembly explorer",
	Long: `lzd parses an ELF binary, disassembles its .text section on a worker
pool and presents instructions, extracted strings and symbols in a
scrollable terminal view driven by a small command language
(open, goto, view, refresh, quit).`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().IntP("workers", "w", 4, "disassembly worker threads")
	rootCmd.PersistentFlags().StringP("arch", "a", "auto", "architecture override: x86, x86_64, arm, aarch64")
	rootCmd.PersistentFlags().IntP("min-str", "m", 4, "minimum extracted string length")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")

	rootCmd.AddCommand(dumpCmd, symsCmd, stringsCmd, psCmd, mapsCmd, regionCmd)
}

// commonOpts resolves the flags shared by the root and the dump-style
// subcommands.
func commonOpts(cmd *cobra.Command) (workers int, tuple disasm.Tuple, minStr int, err error) {
	workers, _ = cmd.Flags().GetInt("workers")
	minStr, _ = cmd.Flags().GetInt("min-str")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetLevel(logging.DEBUG)
	}
	archName, _ := cmd.Flags().GetString("arch")
	tuple, ok := disasm.ParseTuple(archName)
	if !ok {
		return 0, tuple, 0, fmt.Errorf("unknown architecture %q", archName)
	}
	return workers, tuple, minStr, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal; use the dump subcommand instead")
	}
	workers, tuple, minStr, err := commonOpts(cmd)
	if err != nil {
		return err
	}
	if err := logging.InitFile(); err != nil {
		// Keep going with stderr logging; the view will overdraw it.
		logging.Warnf("lzd: %v", err)
	}

	p := pool.New(workers)
	defer p.Destroy()

	model := ui.NewModel("lzd - lazy disassembler", "")
	sess := ui.NewSession(model, p, tuple, minStr)
	if len(args) == 1 {
		// A load failure lands on the status line, same as the open command.
		sess.Open(args[0])
	}
	return ui.Run(sess)
}
