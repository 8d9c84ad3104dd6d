package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/volhours/internal/parser"
)

// RunManualEntryTUI starts the interactive manual entry wizard
func RunManualEntryTUI(prefilled map[string]string, submit SubmitFunc) error {
	model := NewManualEntryModel(prefilled, submit)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(ManualEntryModel); ok {
		switch {
		case m.cancelled:
			fmt.Println("❌ Manual entry cancelled.")
		case m.completed && m.created != nil:
			state := "pending approval"
			if m.created.Approved {
				state = "approved"
			}
			fmt.Printf("✅ Logged %s for %s (%s) - ID: %s\n",
				parser.FormatHours(m.created.Hours()), m.inputs[StepEmail].Value(), state, m.created.ID)
		}
	}

	return nil
}
