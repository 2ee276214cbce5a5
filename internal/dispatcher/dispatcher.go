package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/metrics"
	"github.com/jmehdipour/sms-panel/internal/model"
	"go.uber.org/zap"
)

// Channel delivers one message. Any returned error matches
// errs.ErrChannelFailure.
type Channel interface {
	Send(ctx context.Context, sms model.SMS) error
}

var (
	ErrNoHealthy = errors.New("no healthy providers")
	ErrNoAcquire = errors.New("provider not acquired")
)

// Dispatcher spreads sends round-robin over the providers that are ready and
// retries on another provider when one fails.
type Dispatcher struct {
	providers         []Provider
	roundRobinCounter atomic.Uint64
	maxAttempts       int
	log               *zap.Logger
}

var _ Channel = (*Dispatcher)(nil)

func NewDispatcher(provs []Provider, maxAttempts int, log *zap.Logger) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 2
	}
	return &Dispatcher{providers: provs, maxAttempts: maxAttempts, log: log}
}

// New builds the dispatcher from configuration: every enabled HTTP provider,
// plus the simulator when it is enabled.
func New(cfg *config.Config, log *zap.Logger) (*Dispatcher, error) {
	var provs []Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		provs = append(provs, NewHTTPProvider(pc))
	}
	if cfg.Simulator.Enabled {
		provs = append(provs, NewSimulatedProvider(log, cfg.Simulator.FailRate))
	}
	if len(provs) == 0 {
		return nil, fmt.Errorf("dispatcher: no enabled providers and simulator disabled")
	}
	return NewDispatcher(provs, cfg.Dispatcher.MaxRetryAttempts, log), nil
}

func (d *Dispatcher) selectProvider() (Provider, error) {
	healthy := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if p.Ready() {
			healthy = append(healthy, p)
		}
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	x := d.roundRobinCounter.Add(1)
	idx := int((x - 1) % uint64(len(healthy)))
	return healthy[idx], nil
}

func (d *Dispatcher) tryOnce(ctx context.Context, sms model.SMS) error {
	p, err := d.selectProvider()
	if err != nil {
		return err
	}
	if !p.Acquire() {
		return ErrNoAcquire
	}

	start := time.Now()
	if sms.IsMMS() {
		err = p.SendMMS(ctx, sms)
	} else {
		err = p.SendSMS(ctx, sms)
	}
	metrics.ObserveChannelSend(p.Name(), err, time.Since(start))

	if err != nil {
		d.log.Warn("provider send failed", zap.String("provider", p.Name()), zap.Error(err))
	}
	return err
}

// Send tries up to maxAttempts providers. Context cancellation or deadline
// ends the loop early and is reported as a channel failure too.
func (d *Dispatcher) Send(ctx context.Context, sms model.SMS) error {
	var last error
	for i := 0; i < d.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			last = err
			break
		}
		err := d.tryOnce(ctx, sms)
		if err == nil {
			return nil
		}
		last = err
	}
	return fmt.Errorf("%w: %v", errs.ErrChannelFailure, last)
}
