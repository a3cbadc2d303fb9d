// Package elfx parses 32- and 64-bit ELF containers into a widened model:
// header fields, program headers, section headers and the section-header
// string table, with 64-bit fields regardless of class. Unlike debug/elf it
// is deliberately lenient — header tables that fall outside the file are
// treated as empty, and name lookups that miss the string table resolve to
// "no name" instead of failing the parse.
package elfx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"lzd/internal/seq"
)

var (
	ErrBadMagic  = errors.New("elfx: bad magic")
	ErrTruncated = errors.New("elfx: truncated header")
	ErrBadClass  = errors.New("elfx: unsupported ELF class")
)

// Class is the ELF file class (EI_CLASS).
type Class byte

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

// Data is the ELF data encoding (EI_DATA).
type Data byte

const (
	DataNone Data = 0
	DataLSB  Data = 1
	DataMSB  Data = 2
)

// Type is the ELF object file type (e_type).
type Type uint16

const (
	TypeNone Type = 0
	TypeRel  Type = 1
	TypeExec Type = 2
	TypeDyn  Type = 3
	TypeCore Type = 4
)

// Machine is the target architecture (e_machine).
type Machine uint16

const (
	EM386     Machine = 3
	EMARM     Machine = 40
	EMX8664   Machine = 62
	EMAArch64 Machine = 183
)

// Section header types used here.
const (
	SHTSymtab uint32 = 2
	SHTStrtab uint32 = 3
	SHTDynsym uint32 = 11
)

// Prog is a program header, widened to 64-bit fields.
type Prog struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Section is a section header, widened to 64-bit fields.
type Section struct {
	NameOff   uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// File is a parsed ELF container. Immutable after Parse.
type File struct {
	Class    Class
	Data     Data
	Type     Type
	Machine  Machine
	Entry    uint64
	Phoff    uint64
	Phnum    int
	Shoff    uint64
	Shnum    int
	Shstrndx int

	Progs    *seq.Seq[*Prog]
	Sections *seq.Seq[*Section]
	Shstrtab []byte
	Path     string

	order binary.ByteOrder
}

// Fixed layout sizes.
const (
	identSize  = 16
	ehdr32Size = 52
	ehdr64Size = 64
	phdr32Size = 32
	phdr64Size = 56
	shdr32Size = 40
	shdr64Size = 64
)

// e_ident indices.
const (
	eiClass = 4
	eiData  = 5
)

type ehdr32 struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type ehdr64 struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type phdr32 struct {
	Type   uint32
	Off    uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

type phdr64 struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

type shdr32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Off       uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

type shdr64 struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// Parse reads the whole file at path and parses it as ELF32 or ELF64,
// honoring the file's own byte order. No partial model escapes on error.
func Parse(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: read %s: %w", path, err)
	}
	if len(buf) < identSize {
		return nil, ErrTruncated
	}
	if buf[0] != 0x7f || buf[1] != 'E' || buf[2] != 'L' || buf[3] != 'F' {
		return nil, ErrBadMagic
	}

	var order binary.ByteOrder = binary.LittleEndian
	if Data(buf[eiData]) == DataMSB {
		order = binary.BigEndian
	}

	var f *File
	switch Class(buf[eiClass]) {
	case Class32:
		f, err = parse32(buf, order)
	case Class64:
		f, err = parse64(buf, order)
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadClass, buf[eiClass])
	}
	if err != nil {
		return nil, err
	}
	f.Data = Data(buf[eiData])
	f.Path = path
	f.order = order
	return f, nil
}

// read decodes a fixed-layout struct at off. Returns false when the window
// falls outside buf.
func read[T any](buf []byte, off uint64, size int, order binary.ByteOrder, v *T) bool {
	if off > uint64(len(buf)) || uint64(size) > uint64(len(buf))-off {
		return false
	}
	return binary.Read(bytes.NewReader(buf[off:off+uint64(size)]), order, v) == nil
}

func parse32(buf []byte, order binary.ByteOrder) (*File, error) {
	var h ehdr32
	if !read(buf, identSize, ehdr32Size-identSize, order, &h) {
		return nil, ErrTruncated
	}
	f := &File{
		Class:    Class32,
		Type:     Type(h.Type),
		Machine:  Machine(h.Machine),
		Entry:    uint64(h.Entry),
		Phoff:    uint64(h.Phoff),
		Phnum:    int(h.Phnum),
		Shoff:    uint64(h.Shoff),
		Shnum:    int(h.Shnum),
		Shstrndx: int(h.Shstrndx),
		Progs:    seq.New[*Prog](),
		Sections: seq.New[*Section](),
	}

	if tableInBounds(buf, f.Phoff, f.Phnum, phdr32Size) {
		for i := 0; i < f.Phnum; i++ {
			var p phdr32
			read(buf, f.Phoff+uint64(i)*phdr32Size, phdr32Size, order, &p)
			f.Progs.Push(&Prog{
				Type:   p.Type,
				Flags:  p.Flags,
				Off:    uint64(p.Off),
				Vaddr:  uint64(p.Vaddr),
				Paddr:  uint64(p.Paddr),
				Filesz: uint64(p.Filesz),
				Memsz:  uint64(p.Memsz),
				Align:  uint64(p.Align),
			})
		}
	}

	if tableInBounds(buf, f.Shoff, f.Shnum, shdr32Size) {
		for i := 0; i < f.Shnum; i++ {
			var s shdr32
			read(buf, f.Shoff+uint64(i)*shdr32Size, shdr32Size, order, &s)
			f.Sections.Push(&Section{
				NameOff:   s.Name,
				Type:      s.Type,
				Flags:     uint64(s.Flags),
				Addr:      uint64(s.Addr),
				Off:       uint64(s.Off),
				Size:      uint64(s.Size),
				Link:      s.Link,
				Info:      s.Info,
				Addralign: uint64(s.Addralign),
				Entsize:   uint64(s.Entsize),
			})
		}
	}

	f.loadShstrtab(buf)
	return f, nil
}

func parse64(buf []byte, order binary.ByteOrder) (*File, error) {
	var h ehdr64
	if !read(buf, identSize, ehdr64Size-identSize, order, &h) {
		return nil, ErrTruncated
	}
	f := &File{
		Class:    Class64,
		Type:     Type(h.Type),
		Machine:  Machine(h.Machine),
		Entry:    h.Entry,
		Phoff:    h.Phoff,
		Phnum:    int(h.Phnum),
		Shoff:    h.Shoff,
		Shnum:    int(h.Shnum),
		Shstrndx: int(h.Shstrndx),
		Progs:    seq.New[*Prog](),
		Sections: seq.New[*Section](),
	}

	if tableInBounds(buf, f.Phoff, f.Phnum, phdr64Size) {
		for i := 0; i < f.Phnum; i++ {
			var p phdr64
			read(buf, f.Phoff+uint64(i)*phdr64Size, phdr64Size, order, &p)
			f.Progs.Push(&Prog{
				Type:   p.Type,
				Flags:  p.Flags,
				Off:    p.Off,
				Vaddr:  p.Vaddr,
				Paddr:  p.Paddr,
				Filesz: p.Filesz,
				Memsz:  p.Memsz,
				Align:  p.Align,
			})
		}
	}

	if tableInBounds(buf, f.Shoff, f.Shnum, shdr64Size) {
		for i := 0; i < f.Shnum; i++ {
			var s shdr64
			read(buf, f.Shoff+uint64(i)*shdr64Size, shdr64Size, order, &s)
			f.Sections.Push(&Section{
				NameOff:   s.Name,
				Type:      s.Type,
				Flags:     s.Flags,
				Addr:      s.Addr,
				Off:       s.Off,
				Size:      s.Size,
				Link:      s.Link,
				Info:      s.Info,
				Addralign: s.Addralign,
				Entsize:   s.Entsize,
			})
		}
	}

	f.loadShstrtab(buf)
	return f, nil
}

// tableInBounds reports whether a header table of count entries of entSize
// bytes starting at off lies wholly inside buf.
func tableInBounds(buf []byte, off uint64, count, entSize int) bool {
	if count <= 0 {
		return false
	}
	need := uint64(count) * uint64(entSize)
	return off <= uint64(len(buf)) && need <= uint64(len(buf))-off
}

func (f *File) loadShstrtab(buf []byte) {
	if f.Shstrndx < 0 || f.Shstrndx >= f.Sections.Len() {
		return
	}
	s := f.Sections.At(f.Shstrndx)
	if s.Size == 0 || s.Off > uint64(len(buf)) || s.Size > uint64(len(buf))-s.Off {
		return
	}
	f.Shstrtab = make([]byte, s.Size)
	copy(f.Shstrtab, buf[s.Off:s.Off+s.Size])
}

// ByteOrder returns the byte order selected by EI_DATA.
func (f *File) ByteOrder() binary.ByteOrder {
	if f.order == nil {
		return binary.LittleEndian
	}
	return f.order
}

// SectionName resolves a section's name against the section-header string
// table. Returns false when the offset is out of range or the name is not
// NUL-terminated within the table.
func (f *File) SectionName(s *Section) (string, bool) {
	off := uint64(s.NameOff)
	if off >= uint64(len(f.Shstrtab)) {
		return "", false
	}
	end := bytes.IndexByte(f.Shstrtab[off:], 0)
	if end < 0 {
		return "", false
	}
	return string(f.Shstrtab[off : off+uint64(end)]), true
}

// SectionByName returns the first section whose resolved name equals name,
// or nil.
func (f *File) SectionByName(name string) *Section {
	for _, s := range f.Sections.All() {
		if n, ok := f.SectionName(s); ok && n == name {
			return s
		}
	}
	return nil
}
