package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/kafka"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"go.uber.org/zap"
)

// Source is satisfied by *kafka.Consumer.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Dispatcher is satisfied by *campaign.Engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, id model.Identity, campaignID string) (campaign.Result, error)
}

// DispatchKafka:
// - fetches dispatch requests from Kafka,
// - runs each campaign through the engine on a bounded pool,
// - commits every message once handled.
type DispatchKafka struct {
	Source  Source
	Engine  Dispatcher
	Workers int
	Log     *zap.Logger
}

func NewDispatchKafka(src Source, engine Dispatcher, workers int, log *zap.Logger) *DispatchKafka {
	if workers <= 0 {
		workers = 8
	}
	return &DispatchKafka{Source: src, Engine: engine, Workers: workers, Log: log}
}

// Run blocks until ctx is cancelled and every in-flight campaign has returned.
func (w *DispatchKafka) Run(ctx context.Context) error {
	if w.Engine == nil || w.Source == nil {
		return errors.New("dispatch-kafka: missing source or engine")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}

	msgCh := make(chan kafka.Message, w.Workers)

	go func() {
		defer close(msgCh)
		for {
			m, err := w.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (w *DispatchKafka) processOne(ctx context.Context, m kafka.Message) {
	defer func() {
		// At-most-once per request; a pass that died mid-way is picked up by the recovery sweep.
		if err := w.Source.Commit(context.WithoutCancel(ctx), m); err != nil {
			w.Log.Error("kafka commit failed", zap.Error(err))
		}
	}()

	var req model.DispatchRequest
	if err := json.Unmarshal(m.Value, &req); err != nil || req.CampaignID == "" {
		w.Log.Warn("dropping bad dispatch request", zap.ByteString("value", m.Value), zap.Error(err))
		return
	}

	id := model.Identity{AccountID: req.RequestedBy, Role: req.Role}
	log := w.Log.With(zap.String("campaign_id", req.CampaignID), zap.Int64("requested_by", req.RequestedBy))

	res, err := w.Engine.Dispatch(ctx, id, req.CampaignID)
	switch {
	case err == nil:
		log.Info("campaign dispatched", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	case errors.Is(err, errs.ErrAlreadyDispatched), errors.Is(err, errs.ErrCampaignNotFound):
		log.Info("dispatch request skipped", zap.Error(err))
	case errors.Is(err, errs.ErrLeaseLost):
		log.Warn("dispatch preempted by a reset", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	case errs.Retryable(err):
		log.Error("dispatch interrupted", zap.Error(err), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	default:
		log.Warn("dispatch rejected", zap.Error(err))
	}
}
