package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Fixed chrome heights; the list takes the rest.
const (
	headerH = 3
	footerH = 4
	minList = 3
)

var (
	styleDefault  = tcell.StyleDefault
	styleBold     = tcell.StyleDefault.Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
)

// Run drives the terminal view until a command or key asks to quit.
func Run(s *Session) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("ui: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("ui: init screen: %w", err)
	}
	defer screen.Fini()

	for {
		draw(screen, s.Model)
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			switch s.handleKey(ev) {
			case ActQuit:
				return nil
			case ActRefresh:
				screen.Sync()
			}
		}
	}
}

// handleKey routes navigation keys to the model and Enter to the command
// interpreter. Printable runes grow the command buffer.
func (s *Session) handleKey(ev *tcell.EventKey) Action {
	m := s.Model
	switch ev.Key() {
	case tcell.KeyUp:
		m.moveSelection(-1)
	case tcell.KeyDown:
		m.moveSelection(1)
	case tcell.KeyPgUp:
		m.moveSelection(-m.pageSize())
	case tcell.KeyPgDn:
		m.moveSelection(m.pageSize())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		m.backspaceCmd()
	case tcell.KeyEnter:
		return s.Exec(m.takeCmd())
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActQuit
	case tcell.KeyRune:
		m.appendCmd(ev.Rune())
	}
	return ActNone
}

// pageSize returns the last drawn list height, for page up/down.
func (m *Model) pageSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page < 1 {
		return 10
	}
	return m.page
}

func draw(screen tcell.Screen, m *Model) {
	screen.Clear()
	w, h := screen.Size()
	listH := h - headerH - footerH
	if listH < minList {
		listH = minList
	}

	drawHeader(screen, m, 0, w)
	drawList(screen, m, headerH, w, listH)
	drawFooter(screen, m, headerH+listH, w)
	screen.Show()
}

func drawHeader(screen tcell.Screen, m *Model, y, w int) {
	drawBox(screen, 0, y, w, headerH)
	m.mu.Lock()
	title, subtitle := m.title, m.subtitle
	m.mu.Unlock()
	if title != "" {
		drawText(screen, 2, y, w-4, " "+title+" ", styleBold)
	}
	if subtitle != "" {
		drawText(screen, 2, y+1, w-4, subtitle, styleDefault)
	}
}

func drawList(screen tcell.Screen, m *Model, y, w, h int) {
	drawBox(screen, 0, y, w, h)
	innerH := h - 2
	innerW := w - 2

	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = innerH

	count := m.activeLen()
	if count > 0 {
		m.selected = clamp(m.selected, 0, count-1)
	} else {
		m.selected = 0
	}
	maxScroll := 0
	if count > innerH {
		maxScroll = count - innerH
	}
	m.scroll = clamp(m.scroll, 0, maxScroll)
	// Keep the selection visible.
	if m.selected < m.scroll {
		m.scroll = m.selected
	}
	if m.selected >= m.scroll+innerH {
		m.scroll = m.selected - innerH + 1
	}

	drawText(screen, 2, y, w-4, fmt.Sprintf(" %s (%d) ", m.view, count), styleDefault)

	for row := 0; row < innerH; row++ {
		idx := m.scroll + row
		if idx >= count {
			break
		}
		style := styleDefault
		if idx == m.selected {
			style = styleSelected
		}
		drawText(screen, 1, y+1+row, innerW-1, " "+m.activeLine(idx), style)
	}

	// Scrollbar marker.
	if count > innerH && maxScroll > 0 {
		pos := clamp(m.scroll*innerH/maxScroll, 0, innerH-1)
		screen.SetContent(w-2, y+1+pos, tcell.RuneCkBoard, nil, styleDefault)
	}
}

func drawFooter(screen tcell.Screen, m *Model, y, w int) {
	drawBox(screen, 0, y, w, footerH)
	m.mu.Lock()
	status := m.status
	cmd := string(m.cmd)
	m.mu.Unlock()
	if status == "" {
		status = "'open ./binary'  quit  refresh  arrows=move  'view strings'"
	}
	drawText(screen, 2, y+1, w-4, status, styleDefault)
	drawText(screen, 2, y+2, w-5, ":"+cmd, styleBold)
	screen.ShowCursor(clamp(3+len(cmd), 3, w-2), y+2)
}

func drawBox(screen tcell.Screen, x, y, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	for cx := x + 1; cx < x+w-1; cx++ {
		screen.SetContent(cx, y, tcell.RuneHLine, nil, styleDefault)
		screen.SetContent(cx, y+h-1, tcell.RuneHLine, nil, styleDefault)
	}
	for cy := y + 1; cy < y+h-1; cy++ {
		screen.SetContent(x, cy, tcell.RuneVLine, nil, styleDefault)
		screen.SetContent(x+w-1, cy, tcell.RuneVLine, nil, styleDefault)
	}
	screen.SetContent(x, y, tcell.RuneULCorner, nil, styleDefault)
	screen.SetContent(x+w-1, y, tcell.RuneURCorner, nil, styleDefault)
	screen.SetContent(x, y+h-1, tcell.RuneLLCorner, nil, styleDefault)
	screen.SetContent(x+w-1, y+h-1, tcell.RuneLRCorner, nil, styleDefault)
}

func drawText(screen tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	cx := x
	for _, r := range text {
		if cx >= x+maxW {
			break
		}
		screen.SetContent(cx, y, r, nil, style)
		cx++
	}
}
