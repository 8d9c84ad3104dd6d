package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/models"
	"github.com/balkashynov/volhours/internal/parser"
)

const barWidth = 30

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAccentBright)).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 2).
			MarginRight(1)
)

// card renders one labelled figure
func card(label, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		fg(ColorSecondaryText).Render(label),
		fg(ColorPrimaryText).Bold(true).Render(value),
	))
}

// bar renders a horizontal bar of hours relative to peak
func bar(hours, peak float64) string {
	n := 0
	if peak > 0 {
		n = int(hours / peak * barWidth)
	}
	if n == 0 && hours > 0 {
		n = 1
	}
	return fg(ColorAccentMain).Render(strings.Repeat("█", n)) +
		fg(ColorBorder).Render(strings.Repeat("░", barWidth-n))
}

// RenderMyStats renders a volunteer's statistics
func RenderMyStats(stats *ledger.MyStats) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("📊 Your volunteer hours"))
	b.WriteString("\n")

	mostActive := "none"
	if stats.MostActiveMonth != nil {
		mostActive = fmt.Sprintf("%s (%.2fh)", stats.MostActiveMonth.Month, stats.MostActiveMonth.Hours)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total hours", fmt.Sprintf("%.2f", stats.TotalHours)),
		card("Last 30 days", fmt.Sprintf("%.2f", stats.RecentHours)),
		card("Events", fmt.Sprintf("%d", stats.EventsParticipated)),
		card("Sessions", fmt.Sprintf("%d", stats.TotalSessions)),
		card("Most active", mostActive),
	))
	b.WriteString("\n\n")

	if len(stats.MonthlyBreakdown) == 0 {
		b.WriteString(fg(ColorDisabledText).Render("No approved hours yet"))
		b.WriteString("\n")
		return b.String()
	}

	var peak float64
	for _, m := range stats.MonthlyBreakdown {
		if m.Hours > peak {
			peak = m.Hours
		}
	}
	for _, m := range stats.MonthlyBreakdown {
		fmt.Fprintf(&b, "%s  %s %6.2fh\n", fg(ColorSecondaryText).Render(m.Month), bar(m.Hours, peak), m.Hours)
	}
	return b.String()
}

// RenderDashboard renders the admin dashboard
func RenderDashboard(d *ledger.Dashboard) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("🗂  Volunteer dashboard"))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		card("Volunteers", fmt.Sprintf("%d (+%d)", d.TotalVolunteers, d.RecentVolunteers)),
		card("Events", fmt.Sprintf("%d (%d upcoming)", d.TotalEvents, d.UpcomingEvents)),
		card("Approved hours", fmt.Sprintf("%.1f", d.TotalHours)),
		card("Pending", fg(ColorWarning).Render(fmt.Sprintf("%d", d.PendingHours))),
		card("Registrations", fmt.Sprintf("%d", d.TotalRegistrations)),
	))
	b.WriteString("\n\n")

	if len(d.MonthlyHours) > 0 {
		b.WriteString(headingStyle.Render("Monthly approved hours"))
		b.WriteString("\n")
		var peak float64
		for _, m := range d.MonthlyHours {
			if m.TotalHours > peak {
				peak = m.TotalHours
			}
		}
		for _, m := range d.MonthlyHours {
			label := fmt.Sprintf("%04d-%02d", m.Year, m.Month)
			fmt.Fprintf(&b, "%s  %s %7.2fh\n", fg(ColorSecondaryText).Render(label), bar(m.TotalHours, peak), m.TotalHours)
		}
		b.WriteString("\n")
	}

	b.WriteString(headingStyle.Render("Top volunteers this month"))
	b.WriteString("\n")
	if len(d.TopVolunteersThisMonth) == 0 {
		b.WriteString(fg(ColorDisabledText).Render("No approved hours this month"))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([]table.Row, 0, len(d.TopVolunteersThisMonth))
	for i, v := range d.TopVolunteersThisMonth {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			v.Name,
			v.Email,
			fmt.Sprintf("%.2f", v.Hours),
			fmt.Sprintf("%d", v.Sessions),
		})
	}
	b.WriteString(renderTable([]table.Column{
		{Title: "#", Width: 3},
		{Title: "Name", Width: 20},
		{Title: "Email", Width: 28},
		{Title: "Hours", Width: 8},
		{Title: "Sessions", Width: 8},
	}, rows))
	b.WriteString("\n")
	return b.String()
}

// RenderSessions renders sessions as a table. showUser adds the volunteer
// column used by admin listings.
func RenderSessions(sessions []models.HourSession, showUser bool) string {
	if len(sessions) == 0 {
		return fg(ColorDisabledText).Render("No hours recorded") + "\n"
	}

	columns := []table.Column{{Title: "ID", Width: 36}}
	if showUser {
		columns = append(columns, table.Column{Title: "Volunteer", Width: 24})
	}
	columns = append(columns,
		table.Column{Title: "Event", Width: 24},
		table.Column{Title: "Started", Width: 16},
		table.Column{Title: "Hours", Width: 8},
		table.Column{Title: "Status", Width: 9},
	)

	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		row := table.Row{s.ID}
		if showUser {
			row = append(row, userLabel(s))
		}
		row = append(row, eventLabel(s), startedLabel(s), hoursLabel(s), statusLabel(s))
		rows = append(rows, row)
	}
	return renderTable(columns, rows) + "\n"
}

func renderTable(columns []table.Column, rows []table.Row) string {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright))
	// Static output: nothing is selected
	styles.Selected = lipgloss.NewStyle()

	// Styles first so the header height is known when sizing
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithStyles(styles),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
	)
	return t.View()
}

func userLabel(s models.HourSession) string {
	if s.User != nil {
		return s.User.Email
	}
	return s.UserID
}

func eventLabel(s models.HourSession) string {
	if s.Event != nil {
		return s.Event.Name
	}
	return s.EventID
}

func startedLabel(s models.HourSession) string {
	if s.StartTime == nil {
		return "-"
	}
	return s.StartTime.Local().Format("02/01/2006 15:04")
}

func hoursLabel(s models.HourSession) string {
	if s.HoursWorked == nil {
		return "-"
	}
	return parser.FormatHours(*s.HoursWorked)
}

func statusLabel(s models.HourSession) string {
	switch {
	case s.IsOpen():
		return "open"
	case s.Approved:
		return "approved"
	default:
		return "pending"
	}
}
