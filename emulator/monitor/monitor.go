/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell"

	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/stpc"
)

// Source is the chipset being inspected.
type Source interface {
	Name() string
	Snapshot() stpc.State
	Regions() []stpc.Region
	ShadowBIOS() (read, write bool)
}

type Page int

const (
	PageRegisters Page = iota
	PageMemory
	PageHostBus
	PageLocalBus
	PageNorthBridge
	PageSouthBridge
	PageIDE
	numPages
)

var pageTitles = [numPages]string{
	"Configuration registers (22h/23h)",
	"Memory decoding",
	"Host bus window",
	"Local bus window",
	"PCI north bridge",
	"PCI south bridge",
	"PCI IDE",
}

func (p Page) String() string {
	if p < 0 || p >= numPages {
		return fmt.Sprintf("Page(%d)", int(p))
	}
	return pageTitles[p]
}

var (
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	textStyle   = tcell.StyleDefault
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// Monitor is a terminal viewer of the chipset state.
type Monitor struct {
	src  Source
	page Page
}

func New(src Source) *Monitor {
	return &Monitor{src: src}
}

func (m *Monitor) Page() Page {
	return m.page
}

func (m *Monitor) NextPage() {
	m.page = (m.page + 1) % numPages
}

func (m *Monitor) PrevPage() {
	m.page = (m.page + numPages - 1) % numPages
}

func hexDump(regs *[256]byte, index byte) []string {
	var sb strings.Builder
	sb.WriteString("    ")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&sb, " %X ", i)
	}
	lines := []string{sb.String()}

	for row := 0; row < 16; row++ {
		sb.Reset()
		fmt.Fprintf(&sb, "%02X: ", row*16)
		for col := 0; col < 16; col++ {
			reg := row*16 + col
			sep := ' '
			if reg == int(index) {
				sep = '*'
			}
			fmt.Fprintf(&sb, "%02X%c", regs[reg], sep)
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}

func (m *Monitor) lines(p Page) []string {
	s := m.src.Snapshot()

	switch p {
	case PageRegisters:
		return append(hexDump(&s.ISARegisters, s.ISAIndex), fmt.Sprintf("Index: %02X", s.ISAIndex))
	case PageMemory:
		var lines []string
		for _, r := range m.src.Regions() {
			lines = append(lines, fmt.Sprintf("%05X-%05X  %-11v  reg %02X bits %d-%d",
				uint32(r.Base), uint32(r.End()), r.State, r.Register, r.Pair*2, r.Pair*2+1))
		}
		read, write := m.src.ShadowBIOS()
		lines = append(lines,
			fmt.Sprintf("Shadow BIOS: read=%v write=%v", read, write),
			fmt.Sprintf("SMRAM A0000-BFFFF: %v", s.ISARegisters[0x28]&0x80 != 0))
		return lines
	case PageHostBus:
		return windowLines(s.HostBase, s.HostIndex, &s.HostRegisters)
	case PageLocalBus:
		return windowLines(s.LocalBase, s.LocalIndex, &s.LocalRegisters)
	case PageNorthBridge, PageSouthBridge, PageIDE:
		return hexDump(&s.PCI[p-PageNorthBridge], 0xFF)
	}
	return nil
}

func windowLines(base uint16, index byte, regs *[256]byte) []string {
	if base == 0 {
		return []string{"Disabled"}
	}
	lines := []string{fmt.Sprintf("Ports: %04X-%04X", base, base+4)}
	return append(lines, hexDump(regs, index)...)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// Draw renders the current page.
func (m *Monitor) Draw(s tcell.Screen) {
	s.Clear()
	_, h := s.Size()

	drawText(s, 0, 0, titleStyle, fmt.Sprintf("%s - %v", m.src.Name(), m.page))
	for i, line := range m.lines(m.page) {
		drawText(s, 0, i+2, textStyle, line)
	}
	drawText(s, 0, h-1, statusStyle, fmt.Sprintf(" [%d/%d] Tab: next page  Q/Esc: quit ", int(m.page)+1, int(numPages)))
	s.Show()
}

// Run draws the monitor and handles keys until the user quits. The screen
// must be initialized by the caller.
func (m *Monitor) Run(s tcell.Screen) error {
	m.Draw(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return nil
			case tcell.KeyTab, tcell.KeyRight:
				m.NextPage()
			case tcell.KeyBacktab, tcell.KeyLeft:
				m.PrevPage()
			case tcell.KeyRune:
				if r := ev.Rune(); r == 'q' || r == 'Q' {
					return nil
				}
			}
			m.Draw(s)
		case *tcell.EventResize:
			s.Sync()
			m.Draw(s)
		case *tcell.EventInterrupt:
			m.Draw(s)
		}
	}
}

// Dump writes every page as plain text.
func Dump(w io.Writer, src Source) error {
	m := New(src)
	if _, err := fmt.Fprintf(w, "%s\n", src.Name()); err != nil {
		return err
	}
	for p := Page(0); p < numPages; p++ {
		if _, err := fmt.Fprintf(w, "\n%v\n%s\n", p, strings.Join(m.lines(p), "\n")); err != nil {
			return err
		}
	}
	return nil
}
