// Package stats computes the dashboard figures. Calendar boundaries (today,
// this month, the daily series) are taken in the configured time zone.
package stats

import (
	"context"
	"time"

	"github.com/jmehdipour/sms-panel/internal/repository"
)

const defaultSeriesDays = 7

type Service struct {
	accounts repository.AccountsRepository
	usage    repository.UsageRepository
	ledger   repository.LedgerRepository

	loc        *time.Location
	seriesDays int
	now        func() time.Time
}

func New(
	accounts repository.AccountsRepository,
	usage repository.UsageRepository,
	ledger repository.LedgerRepository,
	loc *time.Location,
	seriesDays int,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if seriesDays <= 0 {
		seriesDays = defaultSeriesDays
	}
	return &Service{
		accounts:   accounts,
		usage:      usage,
		ledger:     ledger,
		loc:        loc,
		seriesDays: seriesDays,
		now:        time.Now,
	}
}

// WithClock replaces the time source; tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type Dashboard struct {
	TotalCredits  int64 `json:"total_credits"`
	SentToday     int64 `json:"sent_today"`
	SentThisMonth int64 `json:"sent_this_month"`
}

// DashboardStats reports credits and send counts for one account, or for
// all accounts when accountID is nil.
func (s *Service) DashboardStats(ctx context.Context, accountID *int64) (Dashboard, error) {
	now := s.now().In(s.loc)
	today := midnight(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	var d Dashboard
	if accountID == nil {
		t, err := s.accounts.Totals(ctx, monthStart)
		if err != nil {
			return Dashboard{}, err
		}
		d.TotalCredits = t.Credits
	} else {
		bal, err := s.ledger.Balance(ctx, *accountID)
		if err != nil {
			return Dashboard{}, err
		}
		d.TotalCredits = bal
	}

	var err error
	if d.SentToday, err = s.usage.Count(ctx, accountID, today, today.AddDate(0, 0, 1)); err != nil {
		return Dashboard{}, err
	}
	if d.SentThisMonth, err = s.usage.Count(ctx, accountID, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

type Users struct {
	Total            int64   `json:"total"`
	Active           int64   `json:"active"`
	NewThisMonth     int64   `json:"new_this_month"`
	ActivePercentage float64 `json:"active_percentage"`
}

func (s *Service) UserStats(ctx context.Context) (Users, error) {
	now := s.now().In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)

	t, err := s.accounts.Totals(ctx, monthStart)
	if err != nil {
		return Users{}, err
	}
	u := Users{Total: t.Total, Active: t.Active, NewThisMonth: t.CreatedSince}
	if t.Total > 0 {
		u.ActivePercentage = float64(t.Active) / float64(t.Total) * 100
	}
	return u, nil
}

type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD in the stats time zone
	Count int64  `json:"count"`
}

// SMSTimeSeries returns daily send counts from midnight seriesDays days ago
// through today, oldest first. Days without sends are left out.
func (s *Service) SMSTimeSeries(ctx context.Context, accountID *int64) ([]DayCount, error) {
	now := s.now().In(s.loc)
	today := midnight(now)

	// Day starts are computed here, not as fixed 24h steps, so a DST change
	// inside the window still splits days at local midnight.
	bounds := make([]time.Time, 0, s.seriesDays+2)
	for d := s.seriesDays; d >= -1; d-- {
		bounds = append(bounds, today.AddDate(0, 0, -d))
	}

	counts, err := s.usage.CountBuckets(ctx, accountID, bounds)
	if err != nil {
		return nil, err
	}

	out := []DayCount{}
	for i, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, DayCount{Date: bounds[i].Format(time.DateOnly), Count: n})
	}
	return out, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
