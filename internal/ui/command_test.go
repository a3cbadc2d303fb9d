package ui

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lzd/internal/disasm"
	"lzd/internal/pool"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	p := pool.New(2)
	t.Cleanup(p.Destroy)
	return NewSession(NewModel("lzd", ""), p, disasm.Tuple{}, 4)
}

func loadInstructions(s *Session, addrs ...uint64) {
	batch := instSeq()
	for _, a := range addrs {
		batch.Push(inst(a, []byte{0x90}, "nop", ""))
	}
	s.Model.AddInstructions(batch)
}

func TestParseAddr(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"42", 42, true},
		{"0x1f", 0x1f, true},
		{"0X10", 0x10, true},
		{"0x", 0, false},
		{"zz", 0, false},
		{"-1", 0, false},
	}
	for _, c := range cases {
		got, err := parseAddr(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("parseAddr(%q) = %d, %v", c.in, got, err)
		}
	}
}

func TestGotoNearest(t *testing.T) {
	s := newTestSession(t)
	loadInstructions(s, 0x1000, 0x1003, 0x100a, 0x1012)

	s.Exec("goto 0x1005")
	if sel, scr := s.Model.Selection(); sel != 2 || scr != 2 {
		t.Errorf("goto 0x1005: selected/scroll = %d/%d, want 2/2", sel, scr)
	}
	if !strings.Contains(s.Model.Status(), "0x100a") {
		t.Errorf("status = %q, want effective address", s.Model.Status())
	}

	s.Exec("goto 0x1012")
	if sel, _ := s.Model.Selection(); sel != 3 {
		t.Errorf("goto 0x1012: selected = %d, want 3", sel)
	}

	// Exact first address.
	s.Exec("goto 4096")
	if sel, _ := s.Model.Selection(); sel != 0 {
		t.Errorf("goto 4096: selected = %d, want 0", sel)
	}
}

func TestGotoRejectsOutOfRange(t *testing.T) {
	s := newTestSession(t)
	loadInstructions(s, 0x1000, 0x1003, 0x100a, 0x1012)
	s.Exec("goto 0x1003")

	s.Exec("goto 0x0fff")
	if sel, _ := s.Model.Selection(); sel != 1 {
		t.Errorf("rejected goto moved selection to %d", sel)
	}
	if !strings.Contains(s.Model.Status(), "outside") {
		t.Errorf("status = %q", s.Model.Status())
	}

	s.Exec("goto 0x2000")
	if sel, _ := s.Model.Selection(); sel != 1 {
		t.Errorf("rejected goto moved selection to %d", sel)
	}
}

func TestGotoWrongView(t *testing.T) {
	s := newTestSession(t)
	loadInstructions(s, 0x1000)
	s.Model.SetView(ViewStrings)
	s.Exec("goto 0x1000")
	if !strings.Contains(s.Model.Status(), "instructions view") {
		t.Errorf("status = %q", s.Model.Status())
	}
}

func TestGotoEmpty(t *testing.T) {
	s := newTestSession(t)
	s.Exec("goto 0x1000")
	if !strings.Contains(s.Model.Status(), "no instructions") {
		t.Errorf("status = %q", s.Model.Status())
	}
}

func TestViewSwitching(t *testing.T) {
	s := newTestSession(t)
	s.Exec("view strings")
	if s.Model.View() != ViewStrings {
		t.Errorf("view = %v", s.Model.View())
	}
	s.Exec("view instructions")
	if s.Model.View() != ViewInstructions {
		t.Errorf("view = %v", s.Model.View())
	}
	s.Exec("view symbols")
	if s.Model.View() != ViewSymbols {
		t.Errorf("view = %v", s.Model.View())
	}
}

func TestViewRejectsJunkSuffix(t *testing.T) {
	s := newTestSession(t)
	s.Exec("view strings")
	s.Exec("view stringsXYZ")
	if s.Model.View() != ViewStrings {
		t.Error("junk view name changed the mode")
	}
	if !strings.Contains(s.Model.Status(), "unknown view") {
		t.Errorf("status = %q", s.Model.Status())
	}
}

func TestQuitRefreshUnknown(t *testing.T) {
	s := newTestSession(t)
	if act := s.Exec("quit"); act != ActQuit {
		t.Errorf("quit = %v", act)
	}
	if act := s.Exec("refresh"); act != ActRefresh {
		t.Errorf("refresh = %v", act)
	}
	if act := s.Exec(""); act != ActNone {
		t.Errorf("empty = %v", act)
	}
	s.Exec("frobnicate")
	if !strings.Contains(s.Model.Status(), "unknown command") {
		t.Errorf("status = %q", s.Model.Status())
	}
}

func TestOpenMissingFile(t *testing.T) {
	s := newTestSession(t)
	if err := s.Open("/does/not/exist"); err == nil {
		t.Fatal("Open succeeded on missing file")
	}
	if s.Model.Status() == "" {
		t.Error("no status for failed open")
	}
}

// minimalELF writes an ELF64 with a two-byte .text section.
func minimalELF(t *testing.T) string {
	t.Helper()
	le := binary.LittleEndian

	// push rbp; ret — no padding bytes, so the scanner keeps one range.
	text := []byte{0x55, 0xc3}
	strtab := []byte("\x00.text\x00.shstrtab\x00")
	textOff := uint64(64)
	strOff := textOff + uint64(len(text))
	shoff := strOff + uint64(len(strtab))

	var out bytes.Buffer
	out.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	binary.Write(&out, le, uint16(2))  // ET_EXEC
	binary.Write(&out, le, uint16(62)) // EM_X86_64
	binary.Write(&out, le, uint32(1))
	binary.Write(&out, le, uint64(0x401000))
	binary.Write(&out, le, uint64(0))
	binary.Write(&out, le, shoff)
	binary.Write(&out, le, uint32(0))
	binary.Write(&out, le, uint16(64))
	binary.Write(&out, le, uint16(0))
	binary.Write(&out, le, uint16(0))
	binary.Write(&out, le, uint16(64))
	binary.Write(&out, le, uint16(3))
	binary.Write(&out, le, uint16(2))
	out.Write(text)
	out.Write(strtab)

	shdr := func(name, typ uint32, addr, off, size uint64) {
		binary.Write(&out, le, name)
		binary.Write(&out, le, typ)
		binary.Write(&out, le, uint64(0))
		binary.Write(&out, le, addr)
		binary.Write(&out, le, off)
		binary.Write(&out, le, size)
		binary.Write(&out, le, uint32(0))
		binary.Write(&out, le, uint32(0))
		binary.Write(&out, le, uint64(0))
		binary.Write(&out, le, uint64(0))
	}
	shdr(0, 0, 0, 0, 0)
	shdr(1, 1, 0x401000, textOff, uint64(len(text)))
	shdr(7, 3, 0, strOff, uint64(len(strtab)))

	p := filepath.Join(t.TempDir(), "tiny.elf")
	if err := os.WriteFile(p, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpenLoadsAndPublishes(t *testing.T) {
	s := newTestSession(t)
	path := minimalELF(t)
	if err := s.Open(path); err != nil {
		t.Fatal(err)
	}
	s.Pool.Drain()

	ni, _, _ := s.Model.Counts()
	if ni != 2 {
		t.Fatalf("instructions = %d, want 2", ni)
	}
	s.Model.mu.Lock()
	subtitle := s.Model.subtitle
	s.Model.mu.Unlock()
	if !strings.Contains(subtitle, path) || !strings.Contains(subtitle, "x86_64") {
		t.Errorf("subtitle = %q", subtitle)
	}

	// Re-open replaces contents rather than appending.
	if err := s.Open(path); err != nil {
		t.Fatal(err)
	}
	s.Pool.Drain()
	ni, _, _ = s.Model.Counts()
	if ni != 2 {
		t.Fatalf("instructions after reopen = %d, want 2", ni)
	}
}
