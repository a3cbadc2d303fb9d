// Package reg reads live process memory page by page, tracking which pages
// were actually readable. It prefers process_vm_readv and falls back to
// /proc/<pid>/mem.
package reg

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const pageSize = 0x1000

var ErrEmptyRegion = errors.New("reg: empty region")

// Region is a page-aligned window [Base, Base+Size) of a process's memory.
type Region struct {
	PID     int
	Base    uint64
	Size    uint64
	Data    []byte
	Present []bool
}

// New builds a region covering [start, end), widened to page boundaries.
func New(pid int, start, end uint64) (*Region, error) {
	if start >= end {
		return nil, ErrEmptyRegion
	}
	base := start &^ (pageSize - 1)
	endUp := (end + pageSize - 1) &^ uint64(pageSize-1)
	span := endUp - base
	return &Region{
		PID:     pid,
		Base:    base,
		Size:    span,
		Data:    make([]byte, span),
		Present: make([]bool, span/pageSize),
	}, nil
}

// Pages returns the number of pages the region spans.
func (r *Region) Pages() int { return len(r.Present) }

// Read fills the region one page at a time, marking each page's present
// bit. A partial page read still counts as present. Returns the number of
// readable pages.
func (r *Region) Read() int {
	read := 0
	for i := range r.Present {
		off := uint64(i) * pageSize
		n := pageSize
		if off+uint64(n) > r.Size {
			n = int(r.Size - off)
		}
		buf := r.Data[off : off+uint64(n)]
		got, err := readMem(r.PID, r.Base+off, buf)
		if err != nil || got <= 0 {
			r.Present[i] = false
			continue
		}
		r.Present[i] = true
		read++
	}
	return read
}

// readMem reads remote memory via process_vm_readv, falling back to a
// pread on /proc/<pid>/mem when the syscall is denied.
func readMem(pid int, addr uint64, buf []byte) (int, error) {
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}
	n, err := unix.ProcessVMReadv(pid, local, remote, 0)
	if err == nil {
		return n, nil
	}

	f, ferr := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if ferr != nil {
		return 0, fmt.Errorf("reg: read pid %d at %#x: %w", pid, addr, err)
	}
	defer f.Close()
	n, err = f.ReadAt(buf, int64(addr))
	if n > 0 {
		return n, nil
	}
	return 0, fmt.Errorf("reg: pread pid %d at %#x: %w", pid, addr, err)
}
