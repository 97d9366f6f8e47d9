package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roofpi/internal/model"
)

// Screen is what the preview draws; lcd.Emulator satisfies it.
type Screen interface {
	Rows() [2]string
}

// Model renders an emulated display next to the last cycle's details.
type Model struct {
	screen Screen
	latest model.Sample
	stream <-chan model.Sample
	cancel func()
	err    error
	width  int
	height int
}

// New builds a preview fed by stream. cancel is called when the user quits.
func New(screen Screen, stream <-chan model.Sample, cancel func()) *Model {
	return &Model{
		screen: screen,
		latest: model.Zero(),
		stream: stream,
		cancel: cancel,
		width:  80,
		height: 12,
	}
}

// Messages
type (
	tickMsg struct{}
	// ErrMsg stops the preview with an error.
	ErrMsg struct{ Err error }
)

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit()
			return m, tea.Quit
		}
	case ErrMsg:
		m.err = msg.Err
		m.quit()
		return m, tea.Quit
	case tickMsg:
		select {
		case samp, ok := <-m.stream:
			if ok {
				m.latest = samp
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) quit() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Err is the error that ended the preview, if any.
func (m *Model) Err() error { return m.err }

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	lcdStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("28")).
			Background(lipgloss.Color("22")).
			Foreground(lipgloss.Color("120")).
			Padding(0, 1)
	gaugeFill  = "█"
	gaugeEmpty = "░"
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("roofpi display preview") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006"))

	rows := m.screen.Rows()
	display := lcdStyle.Render(rows[0] + "\n" + rows[1])

	details := card("Last cycle",
		fmt.Sprintf("addr  %s\ncpu   %s\nevery %s",
			s.Address, gaugeBar(s.CPULevel, 10), s.Interval))

	body := lipgloss.JoinHorizontal(lipgloss.Top, display, " ", details)
	footer := subtleStyle.Render("q to quit")
	if m.err != nil {
		footer = errStyle.Render(m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Helpers
func gaugeBar(level, width int) string {
	if level < 0 {
		level = 0
	}
	if level > width {
		level = width
	}
	return fmt.Sprintf("[%s%s] %2d/%d",
		strings.Repeat(gaugeFill, level),
		strings.Repeat(gaugeEmpty, width-level),
		level, width)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

// NewProgram wraps m in a full-screen program. Callers may Send an ErrMsg
// from other goroutines to end it.
func NewProgram(m *Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
