// Package ui holds the presentation model shared between the worker pool's
// publication callbacks and the foreground view, the command interpreter
// that mutates it, and the terminal view loop that renders it.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"lzd/internal/disasm"
	"lzd/internal/elfx"
	"lzd/internal/seq"
)

// ViewMode selects which sequence the list shows.
type ViewMode int

const (
	ViewInstructions ViewMode = iota
	ViewStrings
	ViewSymbols
)

func (v ViewMode) String() string {
	switch v {
	case ViewStrings:
		return "strings"
	case ViewSymbols:
		return "symbols"
	}
	return "instructions"
}

// Command and status line bound.
const bufMax = 256

// Model is the thread-safe bag of decoded instructions, extracted strings
// and symbol lines. Batch publication appends from worker context; the
// foreground reads under the same lock to render.
type Model struct {
	mu       sync.Mutex
	title    string
	subtitle string
	insns    *seq.Seq[*disasm.Inst]
	strs     *seq.Seq[string]
	syms     *seq.Seq[string]
	view     ViewMode
	selected int
	scroll   int
	cmd      []rune
	status   string
	page     int // last drawn list height
}

// NewModel returns an empty model in the instructions view.
func NewModel(title, subtitle string) *Model {
	return &Model{
		title:    title,
		subtitle: truncate(subtitle, bufMax),
		insns:    seq.New[*disasm.Inst](),
		strs:     seq.New[string](),
		syms:     seq.New[string](),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// display renders the fixed-width instruction line: 8-hex-digit address,
// the raw bytes padded to 16 slots, then mnemonic and operands.
func display(in *disasm.Inst) string {
	var b strings.Builder
	fmt.Fprintf(&b, "0x%08x:  ", in.Addr)
	for i := 0; i < disasm.MaxBytes; i++ {
		if i < int(in.Size) {
			fmt.Fprintf(&b, "%02x ", in.Bytes[i])
		} else {
			b.WriteString("   ")
		}
	}
	b.WriteByte(' ')
	b.WriteString(in.Mnemonic)
	if in.Operands != "" {
		b.WriteByte(' ')
		b.WriteString(in.Operands)
	}
	return b.String()
}

// Publish merges one batch into the model, attaching display strings. The
// model takes ownership of the batch's instruction sequence; the wrapper
// is dropped here.
func (m *Model) Publish(b *disasm.Batch) {
	if b == nil || b.Insns == nil {
		return
	}
	m.AddInstructions(b.Insns)
}

// AddInstructions appends decoded instructions, attaching their display
// strings.
func (m *Model) AddInstructions(insns *seq.Seq[*disasm.Inst]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range insns.All() {
		in.Display = display(in)
		m.insns.Push(in)
	}
}

// Clear drops all instructions and resets the cursor.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insns = seq.New[*disasm.Inst]()
	m.selected = 0
	m.scroll = 0
}

// AddStrings appends extracted strings.
func (m *Model) AddStrings(ss *seq.Seq[string]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range ss.All() {
		m.strs.Push(s)
	}
}

// AddSymbols formats and appends symbol records. Symbols without a value
// are shown as external.
func (m *Model) AddSymbols(ss *seq.Seq[*elfx.Symbol]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sym := range ss.All() {
		m.syms.Push(symbolLine(sym))
	}
}

func symbolLine(sym *elfx.Symbol) string {
	if sym.Value != 0 {
		return fmt.Sprintf("0x%x:\t%s", sym.Value, sym.Name)
	}
	return fmt.Sprintf("(lib./ext.):\t%s", sym.Name)
}

// SetView switches the active view, resets the cursor and reports the
// switch on the status line.
func (m *Model) SetView(v ViewMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
	m.selected = 0
	m.scroll = 0
	m.status = truncate(fmt.Sprintf("switched to %s view", v), bufMax)
}

// View returns the active view mode.
func (m *Model) View() ViewMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Statusf replaces the status line.
func (m *Model) Statusf(format string, a ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = truncate(fmt.Sprintf(format, a...), bufMax)
}

// Status returns the status line.
func (m *Model) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Selection returns the selected and scroll indices.
func (m *Model) Selection() (selected, scroll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected, m.scroll
}

// Counts returns the lengths of the three sequences.
func (m *Model) Counts() (insns, strs, syms int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insns.Len(), m.strs.Len(), m.syms.Len()
}

// activeLen returns the length of the active view's sequence. Caller holds
// the lock.
func (m *Model) activeLen() int {
	switch m.view {
	case ViewStrings:
		return m.strs.Len()
	case ViewSymbols:
		return m.syms.Len()
	}
	return m.insns.Len()
}

// activeLine returns the display line at index i of the active view.
// Caller holds the lock.
func (m *Model) activeLine(i int) string {
	switch m.view {
	case ViewStrings:
		if s, ok := m.strs.Get(i); ok {
			return s
		}
	case ViewSymbols:
		if s, ok := m.syms.Get(i); ok {
			return s
		}
	default:
		if in, ok := m.insns.Get(i); ok {
			return in.Display
		}
	}
	return ""
}

// moveSelection adjusts the selected line by delta, clamped to the active
// view.
func (m *Model) moveSelection(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.activeLen()
	if n == 0 {
		m.selected = 0
		m.scroll = 0
		return
	}
	m.selected = clamp(m.selected+delta, 0, n-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// appendCmd adds a printable rune to the command buffer, bounded.
func (m *Model) appendCmd(r rune) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cmd) < bufMax-1 {
		m.cmd = append(m.cmd, r)
	}
}

// backspaceCmd removes the last command rune.
func (m *Model) backspaceCmd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cmd) > 0 {
		m.cmd = m.cmd[:len(m.cmd)-1]
	}
}

// takeCmd returns the command line and clears the buffer.
func (m *Model) takeCmd() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := string(m.cmd)
	m.cmd = m.cmd[:0]
	return line
}

// Cmd returns the command buffer contents.
func (m *Model) Cmd() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.cmd)
}
