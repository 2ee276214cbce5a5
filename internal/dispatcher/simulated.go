package dispatcher

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/jmehdipour/sms-panel/internal/model"
	"go.uber.org/zap"
)

var errSimulatedFailure = errors.New("simulated delivery failure")

// SimulatedProvider only logs the message. FailRate in [0,1] makes a share of
// sends fail, for exercising the refund path.
type SimulatedProvider struct {
	log      *zap.Logger
	failRate float64
}

func NewSimulatedProvider(log *zap.Logger, failRate float64) *SimulatedProvider {
	return &SimulatedProvider{log: log, failRate: failRate}
}

func (p *SimulatedProvider) Name() string  { return "simulator" }
func (p *SimulatedProvider) Ready() bool   { return true }
func (p *SimulatedProvider) Acquire() bool { return true }

func (p *SimulatedProvider) SendSMS(ctx context.Context, sms model.SMS) error {
	return p.simulate(ctx, "sms", sms)
}

func (p *SimulatedProvider) SendMMS(ctx context.Context, sms model.SMS) error {
	return p.simulate(ctx, "mms", sms)
}

func (p *SimulatedProvider) simulate(ctx context.Context, kind string, sms model.SMS) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.failRate > 0 && rand.Float64() < p.failRate {
		p.log.Info("simulated send failed", zap.String("kind", kind), zap.String("phone", sms.Phone))
		return errSimulatedFailure
	}
	p.log.Info("simulated send",
		zap.String("kind", kind),
		zap.String("phone", sms.Phone),
		zap.String("text", sms.Text),
		zap.Int("media", len(sms.Media)),
	)
	return nil
}
