package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"lzd/internal/mapp"
	"lzd/internal/reg"
	"lzd/internal/targ"
)

var psCmd = &cobra.Command{
	Use:   "ps <name>",
	Short: "find a process id by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := targ.SearchByName(args[0])
		if err != nil {
			return err
		}
		fmt.Println(pid)
		return nil
	},
}

var mapsCmd = &cobra.Command{
	Use:   "maps <pid>",
	Short: "print the memory maps of a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad pid %q", args[0])
		}
		maps, err := mapp.Parse(pid)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Start", "End", "Perms", "Offset", "Path"})
		for _, m := range maps.All() {
			table.Append([]string{
				fmt.Sprintf("0x%x", m.Start),
				fmt.Sprintf("0x%x", m.End),
				m.Perms(),
				fmt.Sprintf("0x%x", m.Offset),
				m.Path,
			})
		}
		table.Render()
		return nil
	},
}

var regionCmd = &cobra.Command{
	Use:   "region <pid> <start> <end>",
	Short: "hexdump a live memory region of a process",
	Args:  cobra.ExactArgs(3),
	RunE:  runRegion,
}

func runRegion(cmd *cobra.Command, args []string) error {
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad pid %q", args[0])
	}
	start, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("bad start address %q", args[1])
	}
	end, err := strconv.ParseUint(args[2], 0, 64)
	if err != nil {
		return fmt.Errorf("bad end address %q", args[2])
	}

	r, err := reg.New(pid, start, end)
	if err != nil {
		return err
	}
	read := r.Read()
	fmt.Fprintf(os.Stderr, "%d of %d pages readable\n", read, r.Pages())

	const width = 16
	for page := 0; page < r.Pages(); page++ {
		if !r.Present[page] {
			fmt.Printf("0x%016x: page not readable\n", r.Base+uint64(page)*0x1000)
			continue
		}
		pageOff := uint64(page) * 0x1000
		pageEnd := pageOff + 0x1000
		if pageEnd > r.Size {
			pageEnd = r.Size
		}
		for off := pageOff; off < pageEnd; off += width {
			row := r.Data[off:min(off+width, pageEnd)]
			fmt.Printf("0x%016x: ", r.Base+off)
			for _, b := range row {
				fmt.Printf("%02x ", b)
			}
			fmt.Println()
		}
	}
	return nil
}
