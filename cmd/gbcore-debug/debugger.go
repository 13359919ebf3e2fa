package main

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"gbcore/cpu"
	"gbcore/mem"
)

// model drives a cpu.Cpu by hand, one half-cycle at a time, against a flat
// mem.Bus — the interactive analogue of the canonical drive loop documented
// on cpu.Cpu.Step. Adapted from the teacher's 6502 TUI: the page table and
// status panel survive, but every field they read now comes from the
// Step/BusOp protocol instead of a tick()-per-instruction model.
type model struct {
	c   *cpu.Cpu
	bus *mem.Bus

	offset uint16 // only for drawing pageTable
	ticked bool   // true after a Tick, awaiting its matching Tock
	pending *cpu.BusOp
	ifReg  byte

	lastOp string
	error  error
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (m model) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.step()
		}
	}
	return m, nil
}

// step advances exactly one half-cycle, servicing whatever BusOp the
// previous Tick requested before driving the matching Tock.
func (m *model) step() {
	defer func() {
		if r := recover(); r != nil {
			m.error = fmt.Errorf("%v", r)
		}
	}()

	if !m.ticked {
		op := m.c.Step(cpu.Input{IF: m.ifReg})
		m.ticked = true
		m.pending = op
		m.lastOp = describeOp(op)
		return
	}

	var data *byte
	if addr, ok := m.pending.ReadOp(); ok {
		v := m.bus.Read(addr)
		data = &v
	} else if addr, v, ok := m.pending.WriteOp(); ok {
		m.bus.Write(addr, v)
	}
	m.c.Step(cpu.Input{Data: data, IF: m.ifReg})
	m.ticked = false
	m.pending = nil
}

func describeOp(op *cpu.BusOp) string {
	if addr, ok := op.ReadOp(); ok {
		return fmt.Sprintf("read  %#04x", addr)
	}
	if addr, v, ok := op.WriteOp(); ok {
		return fmt.Sprintf("write %#04x <- %#02x", addr, v)
	}
	if bit, ok := op.InterruptAck(); ok {
		return fmt.Sprintf("interrupt ack bit %d", bit)
	}
	return "-"
}

// renderPage renders a single page as a line. The current PC is highlighted.
func (m model) renderPage(start uint16) string {
	if start%16 != 0 {
		panic("start must be a multiple of 16")
	}
	s := fmt.Sprintf("%04x | ", start)
	for i := uint16(0); i < 16; i++ {
		b := m.bus.Read(start + i)
		if start+i == m.c.PC() {
			s += fmt.Sprintf("[%02x] ", b)
		} else {
			s += fmt.Sprintf(" %02x  ", b)
		}
	}
	return s
}

func (m model) status() string {
	f := m.c.GetFlags()
	var flags string
	for _, flag := range []bool{f.Zero, f.Subtract, f.HalfCarry, f.Carry} {
		if flag {
			flags += "/ "
		} else {
			flags += "  "
		}
	}
	phaseStr := "tick"
	if m.ticked {
		phaseStr = "tock (pending: " + m.lastOp + ")"
	}
	return fmt.Sprintf(`
PC: %04x  SP: %04x
 A: %02x  F: %02x
 B: %02x  C: %02x
 D: %02x  E: %02x
 H: %02x  L: %02x
IE: %02x  IF: %02x  IME: %v
phase: %s
Z N H C
`,
		m.c.PC(), m.c.SP(),
		m.c.A(), m.c.F(),
		m.c.B(), m.c.C(),
		m.c.D(), m.c.E(),
		m.c.H(), m.c.L(),
		m.c.IE, m.ifReg, m.c.IME,
		phaseStr,
	) + flags
}

func (m model) pageTable() string {
	header := "page | "
	for b := range 16 {
		header += fmt.Sprintf("  %01x  ", b)
	}

	pages := []string{header}

	pc := m.c.PC() &^ 0xf
	offsets := []uint16{
		0, 16, 32, 48,
		m.offset,
		pc,
	}
	for _, i := range offsets {
		pages = append(pages, m.renderPage(i))
	}
	return strings.Join(pages, "\n")
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	if m.error != nil {
		return fmt.Sprintf("halted: %v\n", m.error)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.pageTable(),
			m.status(),
		),
		"",
		spew.Sdump(m.c.Opcode()),
	)
}

// runDebugger loads program into bus at offset, points PC at it, and starts
// an interactive TUI: space/j drives one half-cycle at a time.
func runDebugger(program []byte, offset uint16) error {
	bus := mem.NewBus()
	bus.LoadAt(offset, program)

	c := cpu.New()
	c.SetPC(offset)

	m, err := tea.NewProgram(model{c: c, bus: bus, offset: offset}).Run()
	if err != nil {
		return err
	}
	if x, ok := m.(model); ok && x.error != nil {
		log.Printf("gbcore-debug: halted at pc=%#04x: %v", x.c.PC(), x.error)
		return x.error
	}
	return nil
}
