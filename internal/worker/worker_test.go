package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/kafka"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chanSource struct {
	in        chan kafka.Message
	mu        sync.Mutex
	committed int
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.in:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(context.Context, kafka.Message) error {
	s.mu.Lock()
	s.committed++
	s.mu.Unlock()
	return nil
}

func (s *chanSource) commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

type recordingEngine struct {
	mu    sync.Mutex
	calls []string
	ids   []model.Identity
	err   error
}

func (e *recordingEngine) Dispatch(_ context.Context, id model.Identity, campaignID string) (campaign.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, campaignID)
	e.ids = append(e.ids, id)
	return campaign.Result{Sent: 1}, e.err
}

func (e *recordingEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func request(t *testing.T, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(model.DispatchRequest{CampaignID: id, RequestedBy: 4, Role: model.RoleUser})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(id), Value: b}
}

func TestDispatchKafka_ProcessesAndCommits(t *testing.T) {
	src := &chanSource{in: make(chan kafka.Message, 4)}
	eng := &recordingEngine{err: nil}
	w := NewDispatchKafka(src, eng, 2, zap.NewNop())

	src.in <- request(t, "c1")
	src.in <- kafka.Message{Value: []byte("{not json")}
	src.in <- request(t, "c2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return src.commits() == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.ElementsMatch(t, []string{"c1", "c2"}, eng.calls)
	assert.Equal(t, model.Identity{AccountID: 4, Role: model.RoleUser}, eng.ids[0])
}

func TestDispatchKafka_CommitsOnEngineError(t *testing.T) {
	src := &chanSource{in: make(chan kafka.Message, 1)}
	eng := &recordingEngine{err: errs.Store("debit", errors.New("down"))}
	w := NewDispatchKafka(src, eng, 1, zap.NewNop())
	src.in <- request(t, "c1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool { return src.commits() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, eng.count())
}

type fakeDue struct{ due []model.Campaign }

func (f *fakeDue) ListDue(context.Context, time.Time, int) ([]model.Campaign, error) {
	return f.due, nil
}

type fakeResetter struct{ reset []model.Campaign }

func (f *fakeResetter) ResetStuck(context.Context, time.Duration) ([]model.Campaign, error) {
	return f.reset, nil
}

type memQueue struct{ reqs []model.DispatchRequest }

func (q *memQueue) EnqueueDispatch(_ context.Context, req model.DispatchRequest) error {
	q.reqs = append(q.reqs, req)
	return nil
}

func TestScheduler_Tick(t *testing.T) {
	c1 := model.Campaign{ID: "c1", CreatorID: 1, CreatorRole: model.RoleUser}
	c2 := model.Campaign{ID: "c2", CreatorID: 2, CreatorRole: model.RoleAdmin}
	q := &memQueue{}
	s := &Scheduler{
		Campaigns:  &fakeDue{due: []model.Campaign{c1, c2}},
		Resetter:   &fakeResetter{reset: []model.Campaign{c2}},
		Queue:      q,
		StuckAfter: time.Minute,
	}

	n, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a campaign both reset and due is enqueued once")
	assert.Equal(t, []model.DispatchRequest{
		{CampaignID: "c2", RequestedBy: 2, Role: model.RoleAdmin},
		{CampaignID: "c1", RequestedBy: 1, Role: model.RoleUser},
	}, q.reqs)

	q.reqs = nil
	s.StuckAfter = 0
	n, err = s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
