// Package campaign is the dispatch engine: it turns a campaign and its
// contact list into per-recipient sends with credit accounting.
package campaign

import (
	"context"
	"time"

	"github.com/jmehdipour/sms-panel/internal/dispatcher"
	"github.com/jmehdipour/sms-panel/internal/ingest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/validation"
	"go.uber.org/zap"
)

const defaultSendTimeout = 5 * time.Second

type Engine struct {
	campaigns repository.CampaignsRepository
	contacts  repository.ContactsRepository
	usage     repository.UsageRepository
	ledger    repository.LedgerRepository
	channel   dispatcher.Channel

	validate    *validation.Validator
	ingestOpts  ingest.Options
	sendTimeout time.Duration
	log         *zap.Logger
}

type Deps struct {
	Campaigns repository.CampaignsRepository
	Contacts  repository.ContactsRepository
	Usage     repository.UsageRepository
	Ledger    repository.LedgerRepository
	Channel   dispatcher.Channel
	Log       *zap.Logger
}

type Options struct {
	SendTimeout time.Duration
	Ingest      ingest.Options
}

func New(d Deps, opts Options) *Engine {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Engine{
		campaigns:   d.Campaigns,
		contacts:    d.Contacts,
		usage:       d.Usage,
		ledger:      d.Ledger,
		channel:     d.Channel,
		validate:    validation.New(),
		ingestOpts:  opts.Ingest,
		sendTimeout: opts.SendTimeout,
		log:         d.Log,
	}
}

// send runs one channel call under the configured timeout.
func (e *Engine) send(ctx context.Context, sms model.SMS) error {
	sctx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()
	return e.channel.Send(sctx, sms)
}
