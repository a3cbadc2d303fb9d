// Package mapp parses /proc/<pid>/maps records.
package mapp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"lzd/internal/seq"
)

// Map is one mapped region of a process.
type Map struct {
	Start  uint64
	End    uint64
	Offset uint64
	R      bool
	W      bool
	X      bool
	P      bool
	Path   string
}

// Perms renders the region's permission string.
func (m *Map) Perms() string {
	out := []byte("----")
	if m.R {
		out[0] = 'r'
	}
	if m.W {
		out[1] = 'w'
	}
	if m.X {
		out[2] = 'x'
	}
	if m.P {
		out[3] = 'p'
	} else {
		out[3] = 's'
	}
	return string(out)
}

// Parse reads the maps of a target process.
func Parse(pid int) (*seq.Seq[*Map], error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, fmt.Errorf("mapp: open maps: %w", err)
	}
	defer f.Close()
	return parseAll(f), nil
}

// parseAll scans maps lines, skipping ones that do not parse.
func parseAll(r io.Reader) *seq.Seq[*Map] {
	out := seq.New[*Map]()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if m := parseLine(sc.Text()); m != nil {
			out.Push(m)
		}
	}
	return out
}

// parseLine parses one record:
//
//	start-end perms offset dev inode [path]
func parseLine(line string) *Map {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return nil
	}
	start, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return nil
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return nil
	}
	perms := fields[1]
	if len(perms) < 4 {
		return nil
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return nil
	}
	m := &Map{
		Start:  start,
		End:    end,
		Offset: offset,
		R:      perms[0] == 'r',
		W:      perms[1] == 'w',
		X:      perms[2] == 'x',
		P:      perms[3] == 'p',
	}
	if len(fields) >= 6 {
		m.Path = strings.Join(fields[5:], " ")
	}
	return m
}
