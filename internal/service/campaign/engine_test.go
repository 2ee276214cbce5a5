package campaign

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmehdipour/sms-panel/internal/db/dbtest"
	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/ingest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeChannel records sends and fails for the phones listed in failFor.
// With gate set, every send announces its phone on entered and waits for a
// value on gate.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
	block   bool
	delay   time.Duration
	gate    chan struct{}
	entered chan string
}

func (c *fakeChannel) Send(ctx context.Context, sms model.SMS) error {
	if c.block {
		<-ctx.Done()
		return errors.Join(errs.ErrChannelFailure, ctx.Err())
	}
	if c.gate != nil {
		c.entered <- sms.Phone
		select {
		case <-c.gate:
		case <-ctx.Done():
			return errors.Join(errs.ErrChannelFailure, ctx.Err())
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFor[sms.Phone] {
		return errs.ErrChannelFailure
	}
	c.sent = append(c.sent, sms.Phone)
	return nil
}

func (c *fakeChannel) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// flakyLedger stops working after `ok` debits.
type flakyLedger struct {
	repository.LedgerRepository
	ok    int32
	count atomic.Int32
}

func (l *flakyLedger) Debit(ctx context.Context, accountID, amount int64) (int64, error) {
	if l.count.Add(1) > l.ok {
		return 0, errs.Store("debit", errors.New("connection refused"))
	}
	return l.LedgerRepository.Debit(ctx, accountID, amount)
}

// hookedContacts calls before ahead of every InsertBatch.
type hookedContacts struct {
	repository.ContactsRepository
	before func()
}

func (h *hookedContacts) InsertBatch(ctx context.Context, campaignID string, phones []string) (int, error) {
	h.before()
	return h.ContactsRepository.InsertBatch(ctx, campaignID, phones)
}

type fixture struct {
	engine    *Engine
	channel   *fakeChannel
	accounts  *repository.AccountsRepositoryImpl
	campaigns *repository.CampaignsRepositoryImpl
	contacts  *repository.ContactsRepositoryImpl
	usage     *repository.UsageRepositoryImpl
	ledger    repository.LedgerRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		channel:   &fakeChannel{failFor: map[string]bool{}},
		accounts:  repository.NewAccountsRepository(db),
		campaigns: repository.NewCampaignsRepository(db),
		contacts:  repository.NewContactsRepository(db),
		usage:     repository.NewUsageRepository(db),
		ledger:    repository.NewLedgerRepository(db),
	}
	f.engine = f.newEngine(f.ledger, time.Second)
	return f
}

func (f *fixture) newEngine(ledger repository.LedgerRepository, timeout time.Duration) *Engine {
	return New(Deps{
		Campaigns: f.campaigns,
		Contacts:  f.contacts,
		Usage:     f.usage,
		Ledger:    ledger,
		Channel:   f.channel,
		Log:       zap.NewNop(),
	}, Options{SendTimeout: timeout})
}

func (f *fixture) account(t *testing.T, name string, role model.Role, credits int64) model.Identity {
	t.Helper()
	a := &model.Account{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		APIKey:       util.NewAPIKey(),
		Role:         role,
		Status:       model.AccountActive,
		Credits:      credits,
	}
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return model.Identity{AccountID: a.ID, Role: role}
}

func (f *fixture) campaign(t *testing.T, id model.Identity, numbers string) string {
	t.Helper()
	cid, err := f.engine.CreateCampaign(context.Background(), id, CreateCampaignCmd{Message: "hi", Numbers: numbers})
	require.NoError(t, err)
	return cid
}

func (f *fixture) balance(t *testing.T, id model.Identity) int64 {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), id.AccountID)
	require.NoError(t, err)
	return bal
}

func (f *fixture) statuses(t *testing.T, cid string) []model.ContactStatus {
	t.Helper()
	list, err := f.contacts.ListByCampaign(context.Background(), cid)
	require.NoError(t, err)
	out := make([]model.ContactStatus, 0, len(list))
	for _, c := range list {
		out = append(out, c.Status)
	}
	return out
}

func (f *fixture) status(t *testing.T, cid string) model.CampaignStatus {
	t.Helper()
	c, err := f.campaigns.GetByID(context.Background(), cid)
	require.NoError(t, err)
	return c.Status
}

func (f *fixture) usageCount(t *testing.T, id model.Identity) int64 {
	t.Helper()
	n, err := f.usage.Count(context.Background(), &id.AccountID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return n
}

func TestDispatch_CreditRunsOutMidCampaign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 2)
	cid := f.campaign(t, user, "A\nB\nC")

	res, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 1}, res)

	assert.Equal(t, []model.ContactStatus{model.ContactSent, model.ContactSent, model.ContactFailed}, f.statuses(t, cid))
	assert.Equal(t, []string{"A", "B"}, f.channel.calls())
	assert.Equal(t, int64(0), f.balance(t, user))
	assert.Equal(t, int64(2), f.usageCount(t, user))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
}

func TestDispatch_ZeroBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 0)
	cid := f.campaign(t, user, "A\nB")

	res, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 2}, res)
	assert.Empty(t, f.channel.calls())
	assert.Equal(t, []model.ContactStatus{model.ContactFailed, model.ContactFailed}, f.statuses(t, cid))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
	assert.Zero(t, f.usageCount(t, user))
}

func TestDispatch_SecondCallIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 10)
	cid := f.campaign(t, user, "A\nB")

	_, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)

	_, err = f.engine.Dispatch(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)
	assert.Len(t, f.channel.calls(), 2)
	assert.Equal(t, int64(8), f.balance(t, user))
}

func TestDispatch_ConcurrentCallsSendOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 100)
	cid := f.campaign(t, user, "1\n2\n3\n4\n5\n6")

	var wg sync.WaitGroup
	var winners, losers atomic.Int32
	var sent atomic.Int32
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.engine.Dispatch(ctx, user, cid)
			if err == nil {
				winners.Add(1)
				sent.Add(int32(res.Sent))
				return
			}
			if assert.ErrorIs(t, err, errs.ErrAlreadyDispatched) {
				losers.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(5), losers.Load())
	assert.Equal(t, int32(6), sent.Load())
	assert.Len(t, f.channel.calls(), 6)
	assert.Equal(t, int64(94), f.balance(t, user))
}

func TestDispatch_ChannelFailureRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 5)
	cid := f.campaign(t, user, "A\nB\nC")
	f.channel.failFor["B"] = true

	res, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 1}, res)
	assert.Equal(t, []model.ContactStatus{model.ContactSent, model.ContactFailed, model.ContactSent}, f.statuses(t, cid))
	// initial balance == final balance + sent
	assert.Equal(t, int64(3), f.balance(t, user))
	assert.Equal(t, int64(2), f.usageCount(t, user))
}

func TestDispatch_LastContactFailsInChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 2)
	cid := f.campaign(t, user, "A\nB\nC")
	f.channel.failFor["C"] = true

	res, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 1}, res)
	assert.Equal(t, []model.ContactStatus{model.ContactSent, model.ContactSent, model.ContactFailed}, f.statuses(t, cid))
	assert.Equal(t, int64(0), f.balance(t, user))
	assert.Equal(t, int64(2), f.usageCount(t, user))
}

func TestDispatch_TimeoutCountsAsChannelFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 1)
	cid := f.campaign(t, user, "A")
	f.channel.block = true
	eng := f.newEngine(f.ledger, 20*time.Millisecond)

	res, err := eng.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.Equal(t, int64(1), f.balance(t, user))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
}

func TestDispatch_StoreFailureLeavesSendingThenResumes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 10)
	cid := f.campaign(t, user, "A\nB\nC\nD")

	broken := f.newEngine(&flakyLedger{LedgerRepository: f.ledger, ok: 2}, time.Second)
	res, err := broken.Dispatch(ctx, user, cid)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	assert.True(t, errs.Retryable(err))
	assert.Equal(t, Result{Sent: 2}, res)
	assert.Equal(t, model.CampaignSending, f.status(t, cid))

	_, err = f.engine.Dispatch(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)

	time.Sleep(5 * time.Millisecond)
	reset, err := f.engine.ResetStuck(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.Equal(t, cid, reset[0].ID)

	res, err = f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2}, res, "resume picks up the pending contacts only")
	assert.Equal(t, []string{"A", "B", "C", "D"}, f.channel.calls())
	assert.Equal(t, int64(6), f.balance(t, user))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
}

func TestDispatch_LongPassIsNotResetAsStuck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 20)
	cid := f.campaign(t, user, "0\n1\n2\n3\n4\n5\n6\n7\n8\n9")
	f.channel.delay = 10 * time.Millisecond

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.engine.Dispatch(ctx, user, cid)
		done <- outcome{res, err}
	}()

	// The pass runs longer than the sweep threshold but renews its lease
	// before each contact.
	time.Sleep(80 * time.Millisecond)
	reset, err := f.engine.ResetStuck(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, reset)

	_, err = f.engine.Dispatch(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, Result{Sent: 10}, first.res)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, f.channel.calls())
	assert.Equal(t, int64(10), f.balance(t, user))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
}

func TestDispatch_ResetPassStopsAtNextContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 10)
	cid := f.campaign(t, user, "A\nB\nC")
	f.channel.gate = make(chan struct{})
	f.channel.entered = make(chan string, 1)

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.engine.Dispatch(ctx, user, cid)
		done <- outcome{res, err}
	}()

	assert.Equal(t, "A", <-f.channel.entered)
	time.Sleep(5 * time.Millisecond)
	reset, err := f.engine.ResetStuck(ctx, 0)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	f.channel.gate <- struct{}{}

	first := <-done
	assert.ErrorIs(t, first.err, errs.ErrLeaseLost)
	assert.Equal(t, Result{Sent: 1}, first.res)
	assert.Equal(t, model.CampaignScheduled, f.status(t, cid), "the preempted pass leaves the status alone")

	f.channel.gate = nil
	res, err := f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2}, res)
	assert.Equal(t, []string{"A", "B", "C"}, f.channel.calls(), "every contact is delivered once")
	assert.Equal(t, int64(7), f.balance(t, user))
	assert.Equal(t, int64(3), f.usageCount(t, user))
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
}

func TestDispatch_MissingCreatorFailsCampaign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 3)
	cid := f.campaign(t, user, "A")
	require.NoError(t, f.accounts.Delete(ctx, user.AccountID))

	_, err := f.engine.Dispatch(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	assert.Equal(t, model.CampaignFailed, f.status(t, cid))
}

func TestDispatch_LookupAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.account(t, "owner", model.RoleUser, 5)
	other := f.account(t, "other", model.RoleUser, 5)
	admin := f.account(t, "root", model.RoleAdmin, 0)
	cid := f.campaign(t, owner, "A")

	_, err := f.engine.Dispatch(ctx, owner, "nope")
	assert.ErrorIs(t, err, errs.ErrCampaignNotFound)

	_, err = f.engine.Dispatch(ctx, other, cid)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	res, err := f.engine.Dispatch(ctx, admin, cid)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, int64(4), f.balance(t, owner), "the creator pays, not the admin who pressed send")
}

func TestCreateCampaign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 0)

	_, err := f.engine.CreateCampaign(ctx, user, CreateCampaignCmd{Message: ""})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.engine.CreateCampaign(ctx, user, CreateCampaignCmd{Message: "x", Media: []MediaInput{{Kind: "gif", Ref: "a"}}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.engine.CreateCampaign(ctx, user, CreateCampaignCmd{Message: "x", Table: ingest.Table{{"name"}, {"bob"}}})
	assert.ErrorIs(t, err, errs.ErrContactParse)

	list, err := f.engine.ListCampaigns(ctx, user, "")
	require.NoError(t, err)
	assert.Empty(t, list, "rejected commands create nothing")

	cid, err := f.engine.CreateCampaign(ctx, user, CreateCampaignCmd{
		Message: "promo",
		Media:   []MediaInput{{Kind: model.MediaImage, Ref: "media/x.png"}},
		Numbers: "123\n\n456 \n",
		Table:   ingest.Table{{"phone"}, {"789"}, {""}},
	})
	require.NoError(t, err)

	report, err := f.engine.GetReport(ctx, user, cid)
	require.NoError(t, err)
	require.Len(t, report, 3)
	assert.Equal(t, "123", report[0].Phone)
	assert.Equal(t, "456", report[1].Phone)
	assert.Equal(t, "789", report[2].Phone)

	sum, err := f.engine.GetCampaign(ctx, user, cid)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignScheduled, sum.Status)
	assert.Equal(t, int64(3), sum.Counts[model.ContactPending])
	assert.Equal(t, []model.MediaRef{{Kind: model.MediaImage, Ref: "media/x.png"}}, sum.Media)
}

func TestIngestContacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 5)
	other := f.account(t, "u2", model.RoleUser, 5)
	cid := f.campaign(t, user, "")

	n, err := f.engine.IngestContacts(ctx, user, cid, "1\n2", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.engine.IngestContacts(ctx, other, cid, "3", nil)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)

	_, err = f.engine.IngestContacts(ctx, user, cid, "3", nil)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)
}

func TestIngestContacts_LosesToDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 5)
	cid := f.campaign(t, user, "A")

	hooked := &hookedContacts{ContactsRepository: f.contacts}
	hooked.before = func() {
		_, err := f.engine.Dispatch(ctx, user, cid)
		require.NoError(t, err)
	}
	eng := New(Deps{
		Campaigns: f.campaigns,
		Contacts:  hooked,
		Usage:     f.usage,
		Ledger:    f.ledger,
		Channel:   f.channel,
		Log:       zap.NewNop(),
	}, Options{SendTimeout: time.Second})

	n, err := eng.IngestContacts(ctx, user, cid, "B\nC", nil)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)
	assert.Zero(t, n)
	assert.Equal(t, model.CampaignCompleted, f.status(t, cid))
	assert.Equal(t, []model.ContactStatus{model.ContactSent}, f.statuses(t, cid), "no pending contact is left on a completed campaign")
}

func TestListCampaigns_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "a", model.RoleUser, 0)
	b := f.account(t, "b", model.RoleUser, 0)
	admin := f.account(t, "root", model.RoleAdmin, 0)
	f.campaign(t, a, "1")
	f.campaign(t, b, "2")

	mine, err := f.engine.ListCampaigns(ctx, a, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.AccountID, mine[0].CreatorID)

	all, err := f.engine.ListCampaigns(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.engine.ListCampaigns(ctx, admin, "bogus")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestUpdateCampaignStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 5)
	cid := f.campaign(t, user, "1")

	assert.ErrorIs(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignCompleted), errs.ErrInvalidTransition)
	assert.ErrorIs(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignSending), errs.ErrInvalidTransition)

	require.NoError(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignFailed))
	_, err := f.engine.Dispatch(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrAlreadyDispatched)

	require.NoError(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignScheduled))
	require.NoError(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignScheduled), "no-op")
	_, err = f.engine.Dispatch(ctx, user, cid)
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.UpdateCampaignStatus(ctx, user, cid, model.CampaignScheduled), errs.ErrInvalidTransition)
}

func TestDeleteCampaign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 5)
	other := f.account(t, "u2", model.RoleUser, 5)
	cid := f.campaign(t, user, "1\n2")

	assert.ErrorIs(t, f.engine.DeleteCampaign(ctx, other, cid), errs.ErrForbidden)

	require.NoError(t, f.campaigns.UpdateStatus(ctx, cid, model.CampaignSending))
	assert.ErrorIs(t, f.engine.DeleteCampaign(ctx, user, cid), errs.ErrInvalidTransition)

	require.NoError(t, f.campaigns.UpdateStatus(ctx, cid, model.CampaignFailed))
	require.NoError(t, f.engine.DeleteCampaign(ctx, user, cid))
	_, err := f.engine.GetReport(ctx, user, cid)
	assert.ErrorIs(t, err, errs.ErrCampaignNotFound)
}

func TestQuickSend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 1)

	require.NoError(t, f.engine.QuickSend(ctx, user, QuickSendCmd{Phone: "09120000000", Message: "hi"}))
	assert.Equal(t, int64(0), f.balance(t, user))
	assert.Equal(t, int64(1), f.usageCount(t, user))

	err := f.engine.QuickSend(ctx, user, QuickSendCmd{Phone: "09120000000", Message: "hi"})
	assert.ErrorIs(t, err, errs.ErrInsufficientCredit)

	_, err = f.ledger.Credit(ctx, user.AccountID, 1)
	require.NoError(t, err)
	f.channel.failFor["09121111111"] = true
	err = f.engine.QuickSend(ctx, user, QuickSendCmd{Phone: "09121111111", Message: "hi"})
	assert.ErrorIs(t, err, errs.ErrChannelFailure)
	assert.Equal(t, int64(1), f.balance(t, user), "failed send is refunded")
	assert.Equal(t, int64(1), f.usageCount(t, user))

	err = f.engine.QuickSend(ctx, user, QuickSendCmd{Phone: "", Message: "hi"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestListAllContacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.account(t, "u1", model.RoleUser, 0)
	admin := f.account(t, "root", model.RoleAdmin, 0)
	f.campaign(t, user, "1\n2")
	f.campaign(t, admin, "3")

	_, err := f.engine.ListAllContacts(ctx, user, repository.ContactPage{})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.engine.ListAllContacts(ctx, admin, repository.ContactPage{Status: "queued"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	list, err := f.engine.ListAllContacts(ctx, admin, repository.ContactPage{Status: model.ContactPending})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "3", list[0].Phone)
	assert.Equal(t, "1", list[2].Phone)
}
