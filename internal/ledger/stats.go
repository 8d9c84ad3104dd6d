package ledger

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/balkashynov/volhours/internal/models"
)

const (
	recentWindowDays   = 30
	breakdownMonths    = 6
	topVolunteersLimit = 5
)

// MonthHours is the summed hours of one calendar month, keyed YYYY-MM
type MonthHours struct {
	Month string  `json:"month"`
	Hours float64 `json:"hours"`
}

// MyStats summarises one volunteer's approved hours
type MyStats struct {
	TotalHours         float64      `json:"totalHours"`
	EventsParticipated int          `json:"eventsParticipated"`
	MostActiveMonth    *MonthHours  `json:"mostActiveMonth"`
	RecentHours        float64      `json:"recentHours"`
	TotalSessions      int          `json:"totalSessions"`
	MonthlyBreakdown   []MonthHours `json:"monthlyBreakdown"`
}

// MonthlyTotal is the approved hours created in one (year, month)
type MonthlyTotal struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	TotalHours float64 `json:"totalHours"`
}

// VolunteerHours is one leaderboard row
type VolunteerHours struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Hours    float64 `json:"hours"`
	Sessions int64   `json:"sessions"`
}

// Dashboard is the admin-wide aggregate view
type Dashboard struct {
	TotalVolunteers        int64            `json:"totalVolunteers"`
	TotalEvents            int64            `json:"totalEvents"`
	TotalHours             float64          `json:"totalHours"`
	PendingHours           int64            `json:"pendingHours"`
	TotalRegistrations     int64            `json:"totalRegistrations"`
	RecentVolunteers       int64            `json:"recentVolunteers"`
	UpcomingEvents         int64            `json:"upcomingEvents"`
	MonthlyHours           []MonthlyTotal   `json:"monthlyHours"`
	TopVolunteersThisMonth []VolunteerHours `json:"topVolunteersThisMonth"`
}

// MyStats computes the statistics of a volunteer's approved sessions
func (s *Service) MyStats(ctx context.Context, userID string) (stats *MyStats, err error) {
	defer func() { s.observe(ctx, "my_stats", err) }()

	var sessions []models.HourSession
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND approved = ?", userID, true).
		Order("created_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, internal("Error calculating stats", err)
	}

	return summarize(sessions, s.clock()), nil
}

// summarize reduces approved sessions to MyStats. Month ties go to the month
// seen first while iterating sessions.
func summarize(sessions []models.HourSession, now time.Time) *MyStats {
	recentSince := now.AddDate(0, 0, -recentWindowDays)

	var total, recent float64
	events := make(map[string]struct{})
	monthTotals := make(map[string]float64)
	var monthOrder []string

	for _, h := range sessions {
		hours := h.Hours()
		total += hours
		events[h.EventID] = struct{}{}

		if h.StartTime == nil {
			continue
		}
		key := h.StartTime.UTC().Format("2006-01")
		if _, seen := monthTotals[key]; !seen {
			monthOrder = append(monthOrder, key)
		}
		monthTotals[key] += hours

		if !h.StartTime.Before(recentSince) {
			recent += hours
		}
	}

	stats := &MyStats{
		TotalHours:         round(total, 2),
		EventsParticipated: len(events),
		RecentHours:        round(recent, 2),
		TotalSessions:      len(sessions),
		MonthlyBreakdown:   []MonthHours{},
	}

	var bestHours float64
	for _, month := range monthOrder {
		if monthTotals[month] > bestHours {
			bestHours = monthTotals[month]
			stats.MostActiveMonth = &MonthHours{Month: month, Hours: round(bestHours, 2)}
		}
	}

	months := make([]string, 0, len(monthTotals))
	for month := range monthTotals {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > breakdownMonths {
		months = months[len(months)-breakdownMonths:]
	}
	for _, month := range months {
		stats.MonthlyBreakdown = append(stats.MonthlyBreakdown, MonthHours{
			Month: month,
			Hours: round(monthTotals[month], 2),
		})
	}

	return stats
}

// DashboardStats computes the admin-wide aggregates
func (s *Service) DashboardStats(ctx context.Context) (dash *Dashboard, err error) {
	defer func() { s.observe(ctx, "dashboard_stats", err) }()

	now := s.clock()
	dash = &Dashboard{
		MonthlyHours:           []MonthlyTotal{},
		TopVolunteersThisMonth: []VolunteerHours{},
	}

	if dash.TotalVolunteers, err = s.identity.CountVolunteers(ctx); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}
	if dash.TotalEvents, err = s.events.CountEvents(ctx); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}
	if s.registrations != nil {
		if dash.TotalRegistrations, err = s.registrations.CountRegistrations(ctx); err != nil {
			return nil, internal("Server error getting dashboard stats", err)
		}
	}
	if dash.RecentVolunteers, err = s.identity.CountVolunteersSince(ctx, now.AddDate(0, 0, -recentWindowDays)); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}
	if dash.UpcomingEvents, err = s.events.CountUpcomingEvents(ctx, now); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}

	var total sql.NullFloat64
	err = s.db.WithContext(ctx).Model(&models.HourSession{}).
		Select("SUM(hours_worked)").
		Where("approved = ? AND hours_worked IS NOT NULL", true).
		Row().Scan(&total)
	if err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}
	dash.TotalHours = round(total.Float64, 1)

	err = s.db.WithContext(ctx).Model(&models.HourSession{}).
		Where("approved = ? AND hours_worked IS NOT NULL", false).
		Count(&dash.PendingHours).Error
	if err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}

	if dash.MonthlyHours, err = s.monthlyHours(ctx, now.AddDate(0, -breakdownMonths, 0)); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}

	if dash.TopVolunteersThisMonth, err = s.topVolunteers(ctx, startOfMonth(now)); err != nil {
		return nil, internal("Server error getting dashboard stats", err)
	}

	return dash, nil
}

// monthlyHours buckets approved hours by the (year, month) they were created
// in, oldest first
func (s *Service) monthlyHours(ctx context.Context, since time.Time) ([]MonthlyTotal, error) {
	var sessions []models.HourSession
	err := s.db.WithContext(ctx).
		Select("created_at", "hours_worked").
		Where("approved = ? AND hours_worked IS NOT NULL AND created_at >= ?", true, since).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	type bucket struct{ year, month int }
	sums := make(map[bucket]float64)
	for _, h := range sessions {
		created := h.CreatedAt.UTC()
		sums[bucket{created.Year(), int(created.Month())}] += h.Hours()
	}

	out := make([]MonthlyTotal, 0, len(sums))
	for b, hours := range sums {
		out = append(out, MonthlyTotal{Year: b.year, Month: b.month, TotalHours: round(hours, 2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

type volunteerRow struct {
	UserID   string
	Hours    float64
	Sessions int64
}

// topVolunteers ranks users by approved hours that started at or after since
func (s *Service) topVolunteers(ctx context.Context, since time.Time) ([]VolunteerHours, error) {
	var rows []volunteerRow
	err := s.db.WithContext(ctx).Model(&models.HourSession{}).
		Select("user_id, SUM(hours_worked) AS hours, COUNT(*) AS sessions").
		Where("approved = ? AND hours_worked IS NOT NULL AND start_time >= ?", true, since).
		Group("user_id").
		Order("hours DESC, user_id ASC").
		Limit(topVolunteersLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := s.identity.UsersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]VolunteerHours, 0, len(rows))
	for _, r := range rows {
		u := users[r.UserID]
		out = append(out, VolunteerHours{
			UserID:   r.UserID,
			Name:     u.Name,
			Email:    u.Email,
			Hours:    round(r.Hours, 2),
			Sessions: r.Sessions,
		})
	}
	return out, nil
}

// startOfMonth returns the first instant of t's month in UTC
func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
