package stats

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jmehdipour/sms-panel/internal/db/dbtest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	db       *sqlx.DB
	accounts *repository.AccountsRepositoryImpl
	usage    *repository.UsageRepositoryImpl
	svc      *Service
}

func newEnv(t *testing.T, loc *time.Location, now time.Time) *env {
	t.Helper()
	db := dbtest.Open(t)
	e := &env{
		db:       db,
		accounts: repository.NewAccountsRepository(db),
		usage:    repository.NewUsageRepository(db),
	}
	e.svc = New(e.accounts, e.usage, repository.NewLedgerRepository(db), loc, 7).
		WithClock(func() time.Time { return now })
	return e
}

func (e *env) account(t *testing.T, name string, credits int64, status model.AccountStatus) int64 {
	t.Helper()
	a := &model.Account{
		Name: name, Email: name + "@example.com", PasswordHash: "x", APIKey: util.NewAPIKey(),
		Role: model.RoleUser, Status: status, Credits: credits,
	}
	require.NoError(t, e.accounts.Create(context.Background(), a))
	return a.ID
}

func (e *env) sent(t *testing.T, accountID int64, at time.Time) {
	t.Helper()
	require.NoError(t, e.usage.Append(context.Background(), &model.UsageLogEntry{
		AccountID: accountID, Phone: "1", Message: "m", Status: model.ContactSent, CreatedAt: at,
	}))
}

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	e := newEnv(t, time.UTC, now)
	a := e.account(t, "a", 10, model.AccountActive)
	b := e.account(t, "b", 5, model.AccountActive)

	e.sent(t, a, now.Add(-time.Hour))
	e.sent(t, a, now.Add(-3*24*time.Hour))
	e.sent(t, b, now.Add(-time.Minute))
	e.sent(t, a, time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)) // last month

	all, err := e.svc.DashboardStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, Dashboard{TotalCredits: 15, SentToday: 2, SentThisMonth: 3}, all)

	mine, err := e.svc.DashboardStats(ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, Dashboard{TotalCredits: 10, SentToday: 1, SentThisMonth: 2}, mine)
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, time.UTC, time.Now())

	empty, err := e.svc.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Users{}, empty)

	e.account(t, "a", 0, model.AccountActive)
	e.account(t, "b", 0, model.AccountActive)
	e.account(t, "c", 0, model.AccountActive)
	e.account(t, "d", 0, model.AccountInactive)

	u, err := e.svc.UserStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.Total)
	assert.Equal(t, int64(3), u.Active)
	assert.Equal(t, int64(4), u.NewThisMonth)
	assert.InDelta(t, 75.0, u.ActivePercentage, 0.0001)
}

func TestSMSTimeSeries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	e := newEnv(t, time.UTC, now)
	a := e.account(t, "a", 0, model.AccountActive)

	e.sent(t, a, time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC)) // before the window
	e.sent(t, a, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC))   // first day of the window
	e.sent(t, a, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	e.sent(t, a, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC))
	e.sent(t, a, time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC))

	series, err := e.svc.SMSTimeSeries(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []DayCount{
		{Date: "2025-03-08", Count: 1},
		{Date: "2025-03-10", Count: 2},
		{Date: "2025-03-15", Count: 1},
	}, series)

	other := int64(999)
	series, err = e.svc.SMSTimeSeries(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestSMSTimeSeries_TimeZone(t *testing.T) {
	ctx := context.Background()
	tehran := time.FixedZone("IRST", 3*3600+1800)
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, tehran)
	e := newEnv(t, tehran, now)
	a := e.account(t, "a", 0, model.AccountActive)

	// 22:00 UTC on the 14th is already the 15th in Tehran.
	e.sent(t, a, time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC))

	series, err := e.svc.SMSTimeSeries(ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, []DayCount{{Date: "2025-03-15", Count: 1}}, series)

	d, err := e.svc.DashboardStats(ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.SentToday)
}

func TestSMSTimeSeries_DSTWindow(t *testing.T) {
	ctx := context.Background()
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// Clocks jump forward on 2025-03-30, so that day is 23 hours long.
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, berlin)
	e := newEnv(t, berlin, now)
	a := e.account(t, "a", 0, model.AccountActive)

	e.sent(t, a, time.Date(2025, 3, 30, 23, 30, 0, 0, berlin))
	e.sent(t, a, time.Date(2025, 3, 31, 0, 30, 0, 0, berlin))
	e.sent(t, a, time.Date(2025, 3, 31, 0, 45, 0, 0, berlin))

	series, err := e.svc.SMSTimeSeries(ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, []DayCount{
		{Date: "2025-03-30", Count: 1},
		{Date: "2025-03-31", Count: 2},
	}, series)
}
