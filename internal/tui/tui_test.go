package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/models"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m ManualEntryModel, keys ...string) ManualEntryModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		var ok bool
		m, ok = next.(ManualEntryModel)
		require.True(t, ok)
	}
	return m
}

func openSession() (*models.HourSession, *models.Event) {
	start := time.Now().Add(-75 * time.Minute)
	return &models.HourSession{
			ID:        "s-1",
			EventID:   "e-1",
			StartTime: &start,
			Status:    models.StatusOpen,
		}, &models.Event{
			ID:       "e-1",
			Name:     "Beach cleanup",
			Date:     start,
			Location: "North pier",
		}
}

func TestTimerModel_Keys(t *testing.T) {
	session, event := openSession()
	m := NewTimerModel(session, event)
	assert.GreaterOrEqual(t, m.elapsed, 75*time.Minute)

	next, cmd := m.Update(key("s"))
	assert.True(t, next.(TimerModel).stopping)
	assert.NotNil(t, cmd)

	next, cmd = m.Update(key("esc"))
	assert.True(t, next.(TimerModel).exiting)
	assert.False(t, next.(TimerModel).stopping)
	assert.NotNil(t, cmd)
}

func TestTimerModel_View(t *testing.T) {
	session, event := openSession()
	m := NewTimerModel(session, event)
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	view := next.View()
	assert.Contains(t, view, "Beach cleanup")
	assert.Contains(t, view, "North pier")
	assert.Contains(t, view, "check out & save")
}

func TestRenderBigClock(t *testing.T) {
	short := renderBigClock(5 * time.Minute)
	long := renderBigClock(2*time.Hour + 5*time.Minute)

	assert.Len(t, strings.Split(short, "\n"), 5)
	assert.Greater(t, len(long), len(short), "hours add a group of digits")
	assert.Equal(t, renderBigClock(0), renderBigClock(-time.Second))
}

func TestManualEntryModel_Flow(t *testing.T) {
	var got ledger.ManualEntry
	submit := func(e ledger.ManualEntry) (*models.HourSession, error) {
		got = e
		hours := *e.HoursWorked
		return &models.HourSession{ID: "s-9", HoursWorked: &hours, Approved: e.MarkApproved}, nil
	}

	m := NewManualEntryModel(map[string]string{
		"email": "ann@example.com",
		"event": "e-1",
		"hours": "90m",
	}, submit)

	m = press(t, m, "enter", "enter", "enter", "enter", "enter")
	require.Equal(t, StepApprove, m.currentStep)

	m = press(t, m, "y", "enter")
	require.Equal(t, StepSave, m.currentStep)

	m = press(t, m, "enter")
	assert.True(t, m.completed)
	require.NotNil(t, m.created)
	assert.Equal(t, "s-9", m.created.ID)

	assert.Equal(t, "ann@example.com", got.UserEmail)
	assert.Equal(t, "e-1", got.EventID)
	require.NotNil(t, got.HoursWorked)
	assert.Equal(t, 1.5, *got.HoursWorked)
	assert.True(t, got.MarkApproved)
	assert.Nil(t, got.StartTime)
}

func TestManualEntryModel_Validation(t *testing.T) {
	m := NewManualEntryModel(nil, nil)

	m = press(t, m, "enter")
	assert.Equal(t, StepEmail, m.currentStep)
	assert.Contains(t, m.validationErr, "email")

	m = NewManualEntryModel(map[string]string{"email": "ann@example.com", "event": "e-1", "hours": "lots"}, nil)
	m = press(t, m, "enter", "enter", "enter")
	assert.Equal(t, StepHours, m.currentStep)
	assert.NotEmpty(t, m.validationErr)
}

func TestManualEntryModel_SubmitErrorStays(t *testing.T) {
	submit := func(ledger.ManualEntry) (*models.HourSession, error) {
		return nil, &ledger.Error{Kind: ledger.ErrNotFound, Message: "User with that email not found"}
	}
	m := NewManualEntryModel(map[string]string{"email": "x@example.com", "event": "e-1", "hours": "2"}, submit)

	m = press(t, m, "enter", "enter", "enter", "enter", "enter", "enter", "enter")
	assert.False(t, m.completed)
	assert.Equal(t, "User with that email not found", m.validationErr)

	m = press(t, m, "esc")
	assert.True(t, m.cancelled)
}

func TestManualEntryModel_Entry(t *testing.T) {
	m := NewManualEntryModel(map[string]string{
		"email": "ann@example.com",
		"event": "e-1",
		"start": "2024-03-01T10:00:00Z",
		"end":   "2024-03-01T11:30:00Z",
	}, nil)

	entry, err := m.Entry()
	require.NoError(t, err)
	assert.Nil(t, entry.HoursWorked)
	require.NotNil(t, entry.StartTime)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *entry.StartTime)
	assert.Equal(t, time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC), *entry.EndTime)
}

func TestRenderMyStats(t *testing.T) {
	out := RenderMyStats(&ledger.MyStats{
		TotalHours:         5.75,
		EventsParticipated: 2,
		TotalSessions:      2,
		MostActiveMonth:    &ledger.MonthHours{Month: "2024-03", Hours: 5.75},
		MonthlyBreakdown:   []ledger.MonthHours{{Month: "2024-03", Hours: 5.75}},
	})
	assert.Contains(t, out, "5.75")
	assert.Contains(t, out, "2024-03")

	empty := RenderMyStats(&ledger.MyStats{MonthlyBreakdown: []ledger.MonthHours{}})
	assert.Contains(t, empty, "No approved hours yet")
}

func TestRenderDashboard(t *testing.T) {
	out := RenderDashboard(&ledger.Dashboard{
		TotalVolunteers: 3,
		TotalHours:      12.5,
		MonthlyHours:    []ledger.MonthlyTotal{{Year: 2024, Month: 3, TotalHours: 12.5}},
		TopVolunteersThisMonth: []ledger.VolunteerHours{
			{UserID: "u-1", Name: "Ann", Email: "ann@example.com", Hours: 8, Sessions: 2},
		},
	})
	assert.Contains(t, out, "2024-03")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "ann@example.com")
}

func TestRenderSessions(t *testing.T) {
	hours := 1.5
	sessions := []models.HourSession{
		{ID: "s-1", EventID: "e-1", Event: &models.Event{Name: "Beach cleanup"}, HoursWorked: &hours, Status: models.StatusClosed, Approved: true},
		{ID: "s-2", EventID: "e-2", Status: models.StatusOpen, User: &models.User{Email: "bob@example.com"}},
	}

	out := RenderSessions(sessions, true)
	assert.Contains(t, out, "Beach cleanup")
	assert.Contains(t, out, "1h 30m")
	assert.Contains(t, out, "approved")
	assert.Contains(t, out, "bob@example.com")
	assert.Contains(t, out, "open")

	assert.Contains(t, RenderSessions(nil, false), "No hours recorded")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "pending", statusLabel(models.HourSession{Status: models.StatusClosed}))
	assert.Equal(t, "approved", statusLabel(models.HourSession{Status: models.StatusClosed, Approved: true}))
	assert.Equal(t, "open", statusLabel(models.HourSession{Status: models.StatusOpen}))
}
