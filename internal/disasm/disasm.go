// Package disasm decodes byte windows into instruction records. Each pool
// worker caches one Decoder in its TLS slot, keyed by tuple; a job whose
// tuple differs from the cached decoder's rebuilds it.
package disasm

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"

	"lzd/internal/seq"
)

var ErrBadTuple = errors.New("disasm: unsupported architecture tuple")

// Record field bounds.
const (
	MaxBytes    = 16
	MaxMnemonic = 31
	MaxOperands = 127
)

// Inst is one decoded instruction. Display is attached by the presentation
// model when the batch is published.
type Inst struct {
	Addr     uint64
	Size     uint8
	Bytes    [MaxBytes]byte
	Mnemonic string
	Operands string
	Display  string
}

// Batch carries one job's decoded output to the presentation model.
// Ownership of Insns transfers to the model on publication.
type Batch struct {
	Base   uint64
	Length int
	Read   int
	PID    int
	Insns  *seq.Seq[*Inst]
}

// Publish hands a finished batch to its consumer.
type Publish func(*Batch)

// Decoder decodes windows for a single tuple.
type Decoder struct {
	tuple Tuple
	bits  int // x86 operand size
}

// NewDecoder validates the tuple and returns a decoder for it.
func NewDecoder(t Tuple) (*Decoder, error) {
	switch t.Arch {
	case ArchX86:
		switch t.Mode {
		case Mode32:
			return &Decoder{tuple: t, bits: 32}, nil
		case Mode64:
			return &Decoder{tuple: t, bits: 64}, nil
		}
	case ArchARM, ArchAArch64:
		if t.Mode == ModeA32 {
			return &Decoder{tuple: t}, nil
		}
	}
	return nil, fmt.Errorf("%w: %d/%d", ErrBadTuple, t.Arch, t.Mode)
}

// Tuple returns the tuple the decoder was opened for.
func (d *Decoder) Tuple() Tuple { return d.tuple }

// Window decodes data sequentially from vaddr. Undecodable bytes become
// raw pseudo-instructions so addresses stay monotonic. ARM-family windows
// stop at the last full 4-byte word.
func (d *Decoder) Window(data []byte, vaddr uint64) *seq.Seq[*Inst] {
	out := seq.New[*Inst]()
	switch d.tuple.Arch {
	case ArchX86:
		d.windowX86(out, data, vaddr)
	case ArchARM:
		d.windowARM(out, data, vaddr)
	case ArchAArch64:
		d.windowARM64(out, data, vaddr)
	}
	return out
}

func (d *Decoder) windowX86(out *seq.Seq[*Inst], data []byte, vaddr uint64) {
	off := 0
	for off < len(data) {
		inst, err := x86asm.Decode(data[off:], d.bits)
		size := inst.Len
		if err != nil || size == 0 || inst.Op == 0 {
			out.Push(record(vaddr+uint64(off), data[off:off+1],
				".byte", fmt.Sprintf("0x%02x", data[off])))
			off++
			continue
		}
		text := x86asm.IntelSyntax(inst, vaddr+uint64(off), nil)
		mnem, ops := splitText(text)
		out.Push(record(vaddr+uint64(off), data[off:off+size], mnem, ops))
		off += size
	}
}

func (d *Decoder) windowARM(out *seq.Seq[*Inst], data []byte, vaddr uint64) {
	for off := 0; off+4 <= len(data); off += 4 {
		word := data[off : off+4]
		inst, err := armasm.Decode(word, armasm.ModeARM)
		if err != nil || inst.Op == 0 {
			out.Push(record(vaddr+uint64(off), word, ".word", wordHex(word)))
			continue
		}
		mnem, ops := splitText(inst.String())
		out.Push(record(vaddr+uint64(off), word, mnem, ops))
	}
}

func (d *Decoder) windowARM64(out *seq.Seq[*Inst], data []byte, vaddr uint64) {
	for off := 0; off+4 <= len(data); off += 4 {
		word := data[off : off+4]
		inst, err := arm64asm.Decode(word)
		if err != nil || inst.Op == 0 {
			out.Push(record(vaddr+uint64(off), word, ".word", wordHex(word)))
			continue
		}
		mnem, ops := splitText(inst.String())
		out.Push(record(vaddr+uint64(off), word, mnem, ops))
	}
}

func wordHex(word []byte) string {
	raw := uint32(word[0]) | uint32(word[1])<<8 | uint32(word[2])<<16 | uint32(word[3])<<24
	return fmt.Sprintf("0x%08x", raw)
}

func splitText(text string) (mnemonic, operands string) {
	parts := strings.SplitN(text, " ", 2)
	mnemonic = parts[0]
	if len(parts) > 1 {
		operands = strings.TrimSpace(parts[1])
	}
	return mnemonic, operands
}

func record(addr uint64, raw []byte, mnemonic, operands string) *Inst {
	in := &Inst{Addr: addr}
	n := len(raw)
	if n > MaxBytes {
		n = MaxBytes
	}
	in.Size = uint8(n)
	copy(in.Bytes[:], raw[:n])
	if len(mnemonic) > MaxMnemonic {
		mnemonic = mnemonic[:MaxMnemonic]
	}
	if len(operands) > MaxOperands {
		operands = operands[:MaxOperands]
	}
	in.Mnemonic = mnemonic
	in.Operands = operands
	return in
}
