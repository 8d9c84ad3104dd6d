package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/models"
	"github.com/balkashynov/volhours/internal/parser"
)

// Step is the current step of the manual entry wizard
type Step int

const (
	StepEmail Step = iota
	StepEvent
	StepHours
	StepStart
	StepEnd
	StepApprove
	StepSave
)

var stepLabels = []string{"Volunteer email", "Event ID", "Hours", "Start time", "End time", "Approve now", "Save"}

// SubmitFunc stores a manual entry
type SubmitFunc func(ledger.ManualEntry) (*models.HourSession, error)

// ManualEntryModel is a wizard for back-filling a volunteer's hours
type ManualEntryModel struct {
	currentStep Step
	inputs      []textinput.Model // one per step before StepApprove
	approve     bool
	width       int
	height      int

	submit SubmitFunc

	validationErr string
	completed     bool
	cancelled     bool
	created       *models.HourSession
}

// NewManualEntryModel creates the wizard. prefilled may carry "email",
// "event", "hours", "start", "end" and "approve" ("true").
func NewManualEntryModel(prefilled map[string]string, submit SubmitFunc) ManualEntryModel {
	placeholders := []string{
		"volunteer@example.org (required)",
		"Event ID (required)",
		"1.5, 90m, 1h30m (Enter to compute from times)",
		"dd/mm/yyyy hh:mm (Enter to skip)",
		"dd/mm/yyyy hh:mm (Enter to skip)",
	}
	keys := []string{"email", "event", "hours", "start", "end"}

	inputs := make([]textinput.Model, len(placeholders))
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 50
		inputs[i].CharLimit = 120
		inputs[i].Placeholder = placeholders[i]
		inputs[i].TextStyle = fg(ColorPrimaryText)
		inputs[i].PlaceholderStyle = fg(ColorPlaceholder)
		inputs[i].Cursor.Style = fg(ColorAccentBright)
		if v, ok := prefilled[keys[i]]; ok {
			inputs[i].SetValue(v)
		}
	}
	inputs[0].Focus()

	return ManualEntryModel{
		inputs:  inputs,
		approve: prefilled["approve"] == "true",
		submit:  submit,
	}
}

// Init starts the cursor blinking
func (m ManualEntryModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m ManualEntryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "tab", "down":
			if err := m.validateStep(m.currentStep); err != "" {
				m.validationErr = err
				return m, nil
			}
			return m.moveTo(m.currentStep + 1)
		case "shift+tab", "up":
			return m.moveTo(m.currentStep - 1)
		}

		if m.currentStep == StepApprove {
			switch msg.String() {
			case "y", "Y":
				m.approve = true
			case "n", "N":
				m.approve = false
			case " ", "left", "right":
				m.approve = !m.approve
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.currentStep < StepApprove {
		m.inputs[m.currentStep], cmd = m.inputs[m.currentStep].Update(msg)
		m.validationErr = ""
	}
	return m, cmd
}

func (m ManualEntryModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.currentStep != StepSave {
		if err := m.validateStep(m.currentStep); err != "" {
			m.validationErr = err
			return m, nil
		}
		return m.moveTo(m.currentStep + 1)
	}

	entry, err := m.Entry()
	if err != nil {
		m.validationErr = err.Error()
		return m, nil
	}
	session, err := m.submit(entry)
	if err != nil {
		m.validationErr = ledger.Message(err)
		return m, nil
	}
	m.created = session
	m.completed = true
	return m, tea.Quit
}

func (m ManualEntryModel) moveTo(step Step) (tea.Model, tea.Cmd) {
	if step < StepEmail || step > StepSave {
		return m, nil
	}
	if m.currentStep < StepApprove {
		m.inputs[m.currentStep].Blur()
	}
	m.currentStep = step
	m.validationErr = ""
	if step < StepApprove {
		return m, m.inputs[step].Focus()
	}
	return m, nil
}

func (m ManualEntryModel) value(step Step) string {
	return strings.TrimSpace(m.inputs[step].Value())
}

// validateStep returns a message when the value of step cannot be used
func (m ManualEntryModel) validateStep(step Step) string {
	switch step {
	case StepEmail:
		if !strings.Contains(m.value(StepEmail), "@") {
			return "A volunteer email is required"
		}
	case StepEvent:
		if m.value(StepEvent) == "" {
			return "An event ID is required"
		}
	case StepHours:
		if v := m.value(StepHours); v != "" {
			if _, err := parser.ParseHours(v); err != nil {
				return err.Error()
			}
		}
	case StepStart, StepEnd:
		if v := m.value(step); v != "" {
			if _, err := parser.ParseTimestamp(v, time.Local); err != nil {
				return err.Error()
			}
		}
	}
	return ""
}

// Entry builds the manual entry from the wizard's fields
func (m ManualEntryModel) Entry() (ledger.ManualEntry, error) {
	for step := StepEmail; step < StepApprove; step++ {
		if err := m.validateStep(step); err != "" {
			return ledger.ManualEntry{}, fmt.Errorf("%s: %s", stepLabels[step], err)
		}
	}

	entry := ledger.ManualEntry{
		UserEmail:    m.value(StepEmail),
		EventID:      m.value(StepEvent),
		MarkApproved: m.approve,
	}
	if v := m.value(StepHours); v != "" {
		hours, _ := parser.ParseHours(v)
		entry.HoursWorked = &hours
	}
	if v := m.value(StepStart); v != "" {
		t, _ := parser.ParseTimestamp(v, time.Local)
		entry.StartTime = &t
	}
	if v := m.value(StepEnd); v != "" {
		t, _ := parser.ParseTimestamp(v, time.Local)
		entry.EndTime = &t
	}
	return entry, nil
}

// View renders the wizard
func (m ManualEntryModel) View() string {
	if m.cancelled || m.completed {
		return ""
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("📝 Log hours for a volunteer"))
	b.WriteString("\n")

	for i, label := range stepLabels {
		step := Step(i)
		marker, style := "  ", fg(ColorSecondaryText)
		if step == m.currentStep {
			marker, style = "▶ ", fg(ColorAccentBright).Bold(true)
		}
		if step == StepSave {
			b.WriteString("\n")
		}
		b.WriteString(style.Render(marker + label))
		b.WriteString("\n")

		switch {
		case step < StepApprove:
			if step == m.currentStep {
				b.WriteString("    " + m.inputs[step].View() + "\n")
			} else if v := m.value(step); v != "" {
				b.WriteString("    " + fg(ColorPrimaryText).Render(v) + "\n")
			}
		case step == StepApprove:
			choice := fg(ColorWarning).Render("no, leave pending")
			if m.approve {
				choice = fg(ColorSuccess).Render("yes")
			}
			b.WriteString("    " + choice + "\n")
		}
	}

	if m.validationErr != "" {
		b.WriteString("\n")
		b.WriteString(fg(ColorError).Render("✗ " + m.validationErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).
		Render("enter next/save · tab/shift+tab move · y/n approve · esc cancel"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
