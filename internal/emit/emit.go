// Package emit coordinates disassembly of a loaded ELF: it owns the parsed
// container and a copy of the .text bytes, carves the section into code
// ranges, and posts one byte-window job per range to a worker pool.
package emit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"lzd/internal/disasm"
	"lzd/internal/elfx"
	"lzd/internal/logging"
	"lzd/internal/pool"
	"lzd/internal/seq"
)

var (
	ErrNoText = errors.New("emit: no .text section")
	ErrNoJobs = errors.New("emit: no jobs posted")
)

// Range is a contiguous non-padding window of .text.
type Range struct {
	Vaddr uint64
	Off   int
	Len   int
}

// Ctx owns everything needed to disassemble one binary: the ELF model, the
// resolved tuple, the .text copy and its code ranges. Single owner; not
// shared.
type Ctx struct {
	ELF       *elfx.File
	Tuple     disasm.Tuple
	Text      []byte
	TextVaddr uint64
	Ranges    *seq.Seq[*Range]
}

// Load parses the ELF at path, resolves the tuple (auto-detecting from the
// machine field when tuple is zero), locates .text and copies its bytes.
func Load(path string, tuple disasm.Tuple) (*Ctx, error) {
	elf, err := elfx.Parse(path)
	if err != nil {
		return nil, err
	}
	if tuple.IsZero() {
		tuple = disasm.TupleForMachine(elf.Machine)
	}

	text := elf.SectionByName(".text")
	if text == nil {
		return nil, ErrNoText
	}

	data, err := readSection(path, text)
	if err != nil {
		return nil, fmt.Errorf("emit: read .text: %w", err)
	}

	return &Ctx{
		ELF:       elf,
		Tuple:     tuple,
		Text:      data,
		TextVaddr: text.Addr,
		Ranges:    seq.New[*Range](),
	}, nil
}

// readSection reads one section's bytes from the file.
func readSection(path string, s *elfx.Section) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data := make([]byte, s.Size)
	if _, err := f.ReadAt(data, int64(s.Off)); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}

// ScanText carves the .text copy into code ranges, replacing any previous
// scan result. Idempotent for the same bytes.
func (c *Ctx) ScanText() {
	c.Ranges = scanRanges(c.Text, c.TextVaddr)
}

// PostAll posts one byte-window job per code range.
func (c *Ctx) PostAll(p *pool.Pool, publish disasm.Publish) error {
	for _, r := range c.Ranges.All() {
		if err := disasm.PostBytes(p, c.Tuple, c.Text[r.Off:r.Off+r.Len], r.Vaddr, publish); err != nil {
			logging.Errorf("emit: post range %#x+%d: %v", r.Vaddr, r.Len, err)
			return err
		}
	}
	return nil
}

// PostRange posts one job per code range intersecting [vstart, vend),
// clipped to the intersection. Fails unless at least one job was posted;
// the log distinguishes no-intersection from post failure.
func (c *Ctx) PostRange(p *pool.Pool, publish disasm.Publish, vstart, vend uint64) error {
	posted, failed := 0, false
	for _, r := range c.Ranges.All() {
		rend := r.Vaddr + uint64(r.Len)
		if r.Vaddr >= vend || rend <= vstart {
			continue
		}
		jobStart := max(r.Vaddr, vstart)
		jobEnd := min(rend, vend)
		off := r.Off + int(jobStart-r.Vaddr)
		n := int(jobEnd - jobStart)
		if err := disasm.PostBytes(p, c.Tuple, c.Text[off:off+n], jobStart, publish); err != nil {
			logging.Errorf("emit: post window %#x+%d: %v", jobStart, n, err)
			failed = true
			continue
		}
		posted++
	}
	if posted == 0 {
		if !failed {
			logging.Warnf("emit: no code range intersects [%#x, %#x)", vstart, vend)
		}
		return ErrNoJobs
	}
	return nil
}
