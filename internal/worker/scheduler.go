package worker

import (
	"context"
	"time"

	"github.com/jmehdipour/sms-panel/internal/model"
	"go.uber.org/zap"
)

type DueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Campaign, error)
}

type StuckResetter interface {
	ResetStuck(ctx context.Context, olderThan time.Duration) ([]model.Campaign, error)
}

type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, req model.DispatchRequest) error
}

// Scheduler periodically enqueues campaigns whose schedule time has passed.
// When StuckAfter is set it also resets campaigns stuck in sending and
// enqueues them again.
type Scheduler struct {
	Campaigns  DueLister
	Resetter   StuckResetter
	Queue      Enqueuer
	Interval   time.Duration
	BatchSize  int
	StuckAfter time.Duration
	Log        *zap.Logger
	Now        func() time.Time
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.Interval <= 0 {
		s.Interval = 30 * time.Second
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		if n, err := s.Tick(ctx); err != nil {
			s.Log.Error("scheduler tick failed", zap.Error(err))
		} else if n > 0 {
			s.Log.Info("scheduler enqueued campaigns", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

// Tick runs one scheduling round and returns how many requests it enqueued.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	var batch []model.Campaign
	if s.Resetter != nil && s.StuckAfter > 0 {
		reset, err := s.Resetter.ResetStuck(ctx, s.StuckAfter)
		if err != nil {
			return 0, err
		}
		batch = append(batch, reset...)
	}

	due, err := s.Campaigns.ListDue(ctx, now(), s.BatchSize)
	if err != nil {
		return 0, err
	}
	batch = append(batch, due...)

	seen := make(map[string]bool, len(batch))
	n := 0
	for _, c := range batch {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		req := model.DispatchRequest{CampaignID: c.ID, RequestedBy: c.CreatorID, Role: c.CreatorRole}
		if err := s.Queue.EnqueueDispatch(ctx, req); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
