// Package targ locates processes by name. It is a helper for the ps
// subcommand and is not part of the disassembly pipeline.
package targ

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

var ErrNotFound = errors.New("targ: process not found")

// SearchByName returns the pid of the first process whose comm or argv0
// basename equals name exactly.
func SearchByName(name string) (int32, error) {
	if name == "" {
		return 0, errors.New("targ: empty process name")
	}
	procs, err := process.Processes()
	if err != nil {
		return 0, fmt.Errorf("targ: list processes: %w", err)
	}
	for _, p := range procs {
		if comm, err := p.Name(); err == nil && comm == name {
			return p.Pid, nil
		}
		// cmdline may be empty (kernel threads) or unreadable; skip those.
		args, err := p.CmdlineSlice()
		if err != nil || len(args) == 0 || args[0] == "" {
			continue
		}
		if filepath.Base(args[0]) == name {
			return p.Pid, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
}
