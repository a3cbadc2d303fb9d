package emit

import (
	"bytes"

	"lzd/internal/elfx"
	"lzd/internal/logging"
	"lzd/internal/seq"
)

var stringSections = []string{".rodata", ".data", ".dynstr", ".strtab"}

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

func isAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// keepString applies the junk filter: at least half the bytes alphanumeric
// and not every byte a space.
func keepString(run []byte) bool {
	if len(run) == 0 {
		return false
	}
	alnum, space := 0, 0
	for _, b := range run {
		if isAlnum(b) {
			alnum++
		} else if b == ' ' {
			space++
		}
	}
	return alnum*2 >= len(run) && space < len(run)
}

// ExtractStrings scans the data-carrying sections for printable runs of at
// least minLen bytes that pass the junk filter. Section read failures are
// logged and skipped.
func (c *Ctx) ExtractStrings(minLen int) *seq.Seq[string] {
	out := seq.New[string]()
	for _, s := range c.ELF.Sections.All() {
		name, ok := c.ELF.SectionName(s)
		if !ok || s.Size == 0 {
			continue
		}
		wanted := false
		for _, w := range stringSections {
			if name == w {
				wanted = true
				break
			}
		}
		if !wanted {
			continue
		}

		data, err := readSection(c.ELF.Path, s)
		if err != nil {
			logging.Warnf("emit: read %s: %v", name, err)
			continue
		}
		scanStrings(data, minLen, out)
	}
	return out
}

// scanStrings appends every qualifying printable run in data to out.
func scanStrings(data []byte, minLen int, out *seq.Seq[string]) {
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		run := data[start:end]
		if len(run) >= minLen && keepString(run) {
			out.Push(string(run))
		}
		start = -1
	}
	for i, b := range data {
		if isPrintable(b) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(data))
}

var symbolSections = []string{".symtab", ".dynsym"}

// ExtractSymbols walks the symbol-table sections, resolving each entry's
// name against the table named by sh_link. Entries with no name, an
// out-of-range name offset or an unterminated name are skipped; section
// failures are logged and skipped.
func (c *Ctx) ExtractSymbols() *seq.Seq[*elfx.Symbol] {
	out := seq.New[*elfx.Symbol]()
	elf := c.ELF
	for _, symhdr := range elf.Sections.All() {
		name, ok := elf.SectionName(symhdr)
		if !ok || symhdr.Size == 0 {
			continue
		}
		wanted := false
		for _, w := range symbolSections {
			if name == w {
				wanted = true
				break
			}
		}
		if !wanted {
			continue
		}

		if int(symhdr.Link) >= elf.Sections.Len() {
			logging.Warnf("emit: %s: bad string table link %d", name, symhdr.Link)
			continue
		}
		strhdr := elf.Sections.At(int(symhdr.Link))
		if strhdr.Type != elfx.SHTStrtab || strhdr.Size == 0 {
			logging.Warnf("emit: %s: linked section is not a string table", name)
			continue
		}

		symData, err := readSection(elf.Path, symhdr)
		if err != nil {
			logging.Warnf("emit: read %s: %v", name, err)
			continue
		}
		strData, err := readSection(elf.Path, strhdr)
		if err != nil {
			logging.Warnf("emit: read strtab for %s: %v", name, err)
			continue
		}

		entsize := int(symhdr.Entsize)
		if entsize == 0 {
			entsize = elf.Class.SymSize()
		}
		count := len(symData) / entsize
		for i := 0; i < count; i++ {
			raw, ok := elf.DecodeSym(symData[i*entsize : i*entsize+entsize])
			if !ok || raw.NameOff == 0 {
				continue
			}
			if uint64(raw.NameOff) >= uint64(len(strData)) {
				continue
			}
			rest := strData[raw.NameOff:]
			end := bytes.IndexByte(rest, 0)
			if end <= 0 {
				continue
			}
			out.Push(&elfx.Symbol{
				Name:    string(rest[:end]),
				Value:   raw.Value,
				Size:    raw.Size,
				Info:    raw.Info,
				Other:   raw.Other,
				Shndx:   raw.Shndx,
				Bind:    raw.Info >> 4,
				SymType: raw.Info & 0xf,
			})
		}
	}
	return out
}
