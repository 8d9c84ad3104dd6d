package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/volhours/internal/models"
	"github.com/balkashynov/volhours/internal/parser"
)

// CheckOutFunc closes the session the timer is showing
type CheckOutFunc func() (*models.HourSession, error)

// TimerModel shows a running check-in
type TimerModel struct {
	width   int
	height  int
	session *models.HourSession
	event   *models.Event

	elapsed time.Duration
	spinner spinner.Model

	stopping bool // s pressed: check out after the program exits
	exiting  bool // esc/q pressed: leave the session open
}

// timerTickMsg is sent every second to update the clock
type timerTickMsg struct{}

func tickEverySecond() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })
}

// NewTimerModel creates a timer for an open session
func NewTimerModel(session *models.HourSession, event *models.Event) TimerModel {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Points),
		spinner.WithStyle(fg(ColorAccentBright).Bold(true)),
	)
	m := TimerModel{
		session: session,
		event:   event,
		spinner: sp,
	}
	m.elapsed = m.since()
	return m
}

func (m TimerModel) since() time.Duration {
	if m.session.StartTime == nil {
		return 0
	}
	return time.Since(*m.session.StartTime)
}

// Init starts the clock and the spinner
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickEverySecond())
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsed = m.since()
		if m.stopping || m.exiting {
			return m, nil
		}
		return m, tickEverySecond()

	case spinner.TickMsg:
		if m.stopping || m.exiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s", "S":
			m.stopping = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the timer
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderEventPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func (m TimerModel) renderTimerPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)

	var components []string
	header := fmt.Sprintf("%s CHECKED IN %s", m.spinner.View(), m.spinner.View())
	components = append(components, center.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).Render(header))

	name := m.eventName()
	if width > 8 && len(name) > width-4 {
		name = name[:width-7] + "..."
	}
	components = append(components, center.Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).Render(name))

	var clock []string
	for _, line := range strings.Split(renderBigClock(m.elapsed), "\n") {
		clock = append(clock, center.Render(line))
	}
	components = append(components, strings.Join(clock, "\n"))

	if m.session.StartTime != nil {
		started := fmt.Sprintf("Checked in at %s", m.session.StartTime.Local().Format("15:04:05"))
		components = append(components, center.Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render(started))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

func (m TimerModel) renderEventPanel(width, height int) string {
	var b strings.Builder
	inner := width - 8

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1)
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(m.eventName()))
	b.WriteString("\n\n")

	line := lipgloss.NewStyle().Align(lipgloss.Center).Width(inner)
	for _, field := range m.eventFields() {
		color := ColorAccentBright
		if field[1] == "none" {
			color = ColorDisabledText
		}
		b.WriteString(line.Render(fmt.Sprintf("%s %s", fg(ColorSecondaryText).Render(field[0]+":"), fg(color).Render(field[1]))))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

func (m TimerModel) eventName() string {
	if m.event != nil && m.event.Name != "" {
		return m.event.Name
	}
	return "Event " + m.session.EventID
}

func (m TimerModel) eventFields() [][2]string {
	value := func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	}

	fields := [][2]string{{"Session", m.session.ID}}
	if m.event == nil {
		return fields
	}
	fields = append(fields,
		[2]string{"Date", m.event.Date.Local().Format("Jan 02, 2006 15:04")},
		[2]string{"Location", value(m.event.Location)},
	)
	if m.event.Capacity != nil {
		fields = append(fields, [2]string{"Capacity", fmt.Sprintf("%d", *m.event.Capacity)})
	}
	return fields
}

func (m TimerModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("s check out & save · esc/q exit (stay checked in) · ctrl+c force quit")
}

// clockGlyphs are 5-row block digits for the big clock
var clockGlyphs = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// renderBigClock renders d as block digits, mm:ss below an hour
func renderBigClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d", minutes, seconds)
	if hours > 0 {
		timeStr = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	var lines [5]strings.Builder
	for _, r := range timeStr {
		glyph := clockGlyphs[r]
		for i := range lines {
			lines[i].WriteString(glyph[i])
			lines[i].WriteString(" ")
		}
	}

	style := fg(ColorAccentBright).Bold(true)
	rows := make([]string, len(lines))
	for i := range lines {
		rows[i] = style.Render(lines[i].String())
	}
	return strings.Join(rows, "\n")
}

// RunTimerTUI shows the timer for an open session and checks out when the
// user asks to
func RunTimerTUI(session *models.HourSession, event *models.Event, checkOut CheckOutFunc) error {
	p := tea.NewProgram(NewTimerModel(session, event), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	timer := finalModel.(TimerModel)
	switch {
	case timer.stopping:
		closed, err := checkOut()
		if err != nil {
			return fmt.Errorf("failed to check out: %w", err)
		}
		fmt.Printf("⏹️  Checked out of %s\n", timer.eventName())
		fmt.Printf("📊 Hours recorded: %s (%.2fh), pending approval\n", parser.FormatHours(closed.Hours()), closed.Hours())
	case timer.exiting:
		fmt.Printf("\n💡 Still checked in to %s (%s so far)\n", timer.eventName(), parser.FormatDuration(timer.since()))
		fmt.Printf("   Use 'volhours status' to check or 'volhours checkout %s' to check out.\n", session.EventID)
	}

	return nil
}
