// Package followup buckets scheduled follow-ups by due date relative to a
// reference instant, and builds the per-agent reminder badge from them.
package followup

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/propline/leads-cli/internal/model"
	"github.com/propline/leads-cli/internal/store"
)

// DefaultWindowDays is how far ahead a follow-up counts as upcoming.
const DefaultWindowDays = 3

// Buckets groups follow-ups by due date: due today, due within the upcoming
// window, or past due. Each bucket is sorted by due time ascending.
type Buckets struct {
	Today    []model.FollowUp `json:"today"`
	Upcoming []model.FollowUp `json:"upcoming"`
	Overdue  []model.FollowUp `json:"overdue"`
}

// BadgeReport is the reminder badge shown against an agent: the badge count
// covers today plus upcoming, with overdue reported alongside.
type BadgeReport struct {
	TodayCount    int     `json:"todayCount"`
	UpcomingCount int     `json:"upcomingCount"`
	OverdueCount  int     `json:"overdueCount"`
	Badge         int     `json:"badge"`
	Items         Buckets `json:"items"`
}

// dayStart truncates t to midnight in t's location.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Classify buckets follow-ups against now. Comparisons are at day
// granularity in now's location, so a follow-up due at 23:59 today is still
// "today" and one due at 00:01 tomorrow is "upcoming". Everything due up to
// the window end lands in exactly one bucket regardless of status; callers
// that only want open follow-ups filter by status first, as ForAgent does.
// windowDays <= 0 falls back to DefaultWindowDays.
func Classify(fus []model.FollowUp, now time.Time, windowDays int) Buckets {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	today := dayStart(now)
	windowEnd := today.AddDate(0, 0, windowDays)

	var b Buckets
	for _, fu := range fus {
		due := dayStart(fu.DueAt.In(now.Location()))
		switch {
		case due.Equal(today):
			b.Today = append(b.Today, fu)
		case due.After(today) && !due.After(windowEnd):
			b.Upcoming = append(b.Upcoming, fu)
		case due.Before(today):
			b.Overdue = append(b.Overdue, fu)
		}
	}

	sortByDue(b.Today)
	sortByDue(b.Upcoming)
	sortByDue(b.Overdue)
	return b
}

func sortByDue(fus []model.FollowUp) {
	sort.Slice(fus, func(i, j int) bool { return fus[i].DueAt.Before(fus[j].DueAt) })
}

// Open reports whether a follow-up still needs attention.
func Open(fu model.FollowUp) bool {
	return fu.Status == model.FollowUpScheduled || fu.Status == model.FollowUpInProgress
}

// ForAgent loads an agent's open follow-ups and builds their badge report.
// Completed and cancelled follow-ups never count toward the badge.
func ForAgent(ctx context.Context, st store.Store, agentID string, now time.Time, windowDays int) (*BadgeReport, error) {
	if _, err := st.GetAgent(ctx, agentID); err != nil {
		return nil, eris.Wrapf(err, "followup: resolve agent %s", agentID)
	}

	fus, err := st.ListFollowUpsByAgent(ctx, agentID)
	if err != nil {
		return nil, eris.Wrapf(err, "followup: load follow-ups for agent %s", agentID)
	}

	open := fus[:0:0]
	for _, fu := range fus {
		if Open(fu) {
			open = append(open, fu)
		}
	}

	b := Classify(open, now, windowDays)
	return &BadgeReport{
		TodayCount:    len(b.Today),
		UpcomingCount: len(b.Upcoming),
		OverdueCount:  len(b.Overdue),
		Badge:         len(b.Today) + len(b.Upcoming),
		Items:         b,
	}, nil
}
