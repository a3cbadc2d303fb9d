package ui

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"lzd/internal/disasm"
	"lzd/internal/emit"
	"lzd/internal/pool"
	"lzd/internal/seq"
)

// Action is the command interpreter's verdict for the view loop.
type Action int

const (
	ActNone Action = iota
	ActQuit
	ActRefresh
)

// Session binds the model, the worker pool and the currently loaded binary.
// The foreground thread is its only caller.
type Session struct {
	Model     *Model
	Pool      *pool.Pool
	Tuple     disasm.Tuple // preferred tuple; zero means auto-detect
	MinStrLen int

	ctx *emit.Ctx
}

// NewSession returns a session with no binary loaded.
func NewSession(m *Model, p *pool.Pool, tuple disasm.Tuple, minStrLen int) *Session {
	if minStrLen <= 0 {
		minStrLen = 4
	}
	return &Session{Model: m, Pool: p, Tuple: tuple, MinStrLen: minStrLen}
}

// Ctx returns the currently loaded emit context, or nil.
func (s *Session) Ctx() *emit.Ctx { return s.ctx }

// Exec interprets one command line. Commands are matched exactly on
// whitespace-delimited tokens; a rejected command only touches the status
// line.
func (s *Session) Exec(line string) Action {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ActNone
	}
	switch fields[0] {
	case "quit":
		return ActQuit
	case "refresh":
		return ActRefresh
	case "view":
		s.execView(fields)
	case "goto":
		s.execGoto(fields)
	case "open":
		if len(fields) < 2 {
			s.Model.Statusf("open: missing path")
			return ActNone
		}
		s.Open(strings.Join(fields[1:], " "))
	default:
		s.Model.Statusf("unknown command: %s", fields[0])
	}
	return ActNone
}

func (s *Session) execView(fields []string) {
	if len(fields) != 2 {
		s.Model.Statusf("view: want one of strings, instructions, symbols")
		return
	}
	switch fields[1] {
	case "strings":
		s.Model.SetView(ViewStrings)
	case "instructions":
		s.Model.SetView(ViewInstructions)
	case "symbols":
		s.Model.SetView(ViewSymbols)
	default:
		s.Model.Statusf("view: unknown view %q", fields[1])
	}
}

// execGoto moves the selection to the first instruction at or above the
// requested address. Only valid in a non-empty instructions view.
func (s *Session) execGoto(fields []string) {
	m := s.Model
	if len(fields) != 2 {
		m.Statusf("goto: want an address")
		return
	}
	addr, err := parseAddr(fields[1])
	if err != nil {
		m.Statusf("goto: bad address %q", fields[1])
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != ViewInstructions {
		m.status = "goto: only valid in instructions view"
		return
	}
	n := m.insns.Len()
	if n == 0 {
		m.status = "goto: no instructions loaded"
		return
	}
	first := m.insns.At(0).Addr
	last := m.insns.At(n - 1).Addr
	if addr < first || addr > last {
		m.status = truncate(fmt.Sprintf("goto: 0x%x outside [0x%x, 0x%x]", addr, first, last), bufMax)
		return
	}
	idx := sort.Search(n, func(i int) bool { return m.insns.At(i).Addr >= addr })
	m.selected = idx
	m.scroll = idx
	m.status = truncate(fmt.Sprintf("goto 0x%x", m.insns.At(idx).Addr), bufMax)
}

// parseAddr accepts decimal, or hex with a 0x/0X prefix.
func parseAddr(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// Open loads a binary: prior contents are released, the emitter posts one
// job per code range, and strings/symbols are extracted and appended. On
// failure the model is left empty and the status line carries the error.
func (s *Session) Open(path string) error {
	m := s.Model
	m.mu.Lock()
	defer m.mu.Unlock()

	// Release prior contents, display strings included.
	m.insns = seq.New[*disasm.Inst]()
	m.strs = seq.New[string]()
	m.syms = seq.New[string]()
	m.selected = 0
	m.scroll = 0

	f, err := os.Open(path)
	if err != nil {
		m.status = truncate(fmt.Sprintf("open: %v", err), bufMax)
		return err
	}
	f.Close()

	ctx, err := emit.Load(path, s.Tuple)
	if err != nil {
		m.status = truncate(fmt.Sprintf("open: %v", err), bufMax)
		return err
	}
	ctx.ScanText()
	if err := ctx.PostAll(s.Pool, m.Publish); err != nil {
		m.status = truncate(fmt.Sprintf("open: post jobs: %v", err), bufMax)
		return err
	}

	for _, str := range ctx.ExtractStrings(s.MinStrLen).All() {
		m.strs.Push(str)
	}
	for _, sym := range ctx.ExtractSymbols().All() {
		m.syms.Push(symbolLine(sym))
	}

	s.ctx = ctx
	m.subtitle = truncate(fmt.Sprintf("%s | %s", path, ctx.Tuple.String()), bufMax)
	m.status = truncate(fmt.Sprintf("loaded %s (%d ranges)", path, ctx.Ranges.Len()), bufMax)
	return nil
}
