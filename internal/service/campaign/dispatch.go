package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/metrics"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/util"
	"go.uber.org/zap"
)

// Result counts what one dispatch pass did.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatch runs a campaign to completion. Only a scheduled campaign can be
// dispatched; the scheduled to sending swap makes concurrent callers lose with
// errs.ErrAlreadyDispatched.
//
// Each pending contact costs the creator one credit. A contact the creator
// cannot pay for is marked failed and the pass moves on. A channel failure
// refunds the credit and marks the contact failed. A store failure stops the
// pass and leaves the campaign in sending so it can be reset and resumed.
//
// The pass holds the campaign under a lease and renews it before every
// contact. If an operator or the stuck sweep resets the campaign meanwhile,
// the pass stops with errs.ErrLeaseLost and leaves the status alone.
func (e *Engine) Dispatch(ctx context.Context, id model.Identity, campaignID string) (Result, error) {
	c, err := e.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return Result{}, err
	}
	if !c.OwnedBy(id) {
		return Result{}, errs.ErrForbidden
	}
	if c.Status != model.CampaignScheduled {
		metrics.DispatchPassesTotal.WithLabelValues("rejected").Inc()
		return Result{}, errs.ErrAlreadyDispatched
	}

	lease := util.NewID()
	won, err := e.campaigns.Claim(ctx, c.ID, lease)
	if err != nil {
		return Result{}, err
	}
	if !won {
		metrics.DispatchPassesTotal.WithLabelValues("rejected").Inc()
		return Result{}, errs.ErrAlreadyDispatched
	}

	log := e.log.With(zap.String("campaign_id", c.ID), zap.Int64("creator_id", c.CreatorID))
	log.Info("dispatch started")
	start := time.Now()

	res, err := e.run(ctx, c, lease)
	switch {
	case errors.Is(err, errs.ErrLeaseLost):
		metrics.DispatchPassesTotal.WithLabelValues("preempted").Inc()
		log.Warn("dispatch preempted, campaign was reset", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
		return res, err
	case errors.Is(err, errs.ErrAccountNotFound):
		// The creator is gone; nobody can pay for the rest.
		if _, relErr := e.campaigns.Release(context.WithoutCancel(ctx), c.ID, lease, model.CampaignFailed); relErr != nil {
			log.Error("mark campaign failed", zap.Error(relErr))
		}
		metrics.DispatchPassesTotal.WithLabelValues("failed").Inc()
		log.Warn("dispatch failed", zap.Error(err), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
		return res, err
	case err != nil:
		metrics.DispatchPassesTotal.WithLabelValues("aborted").Inc()
		log.Error("dispatch aborted, campaign left in sending", zap.Error(err), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
		return res, err
	}

	released, err := e.campaigns.Release(ctx, c.ID, lease, model.CampaignCompleted)
	if err != nil {
		metrics.DispatchPassesTotal.WithLabelValues("aborted").Inc()
		return res, err
	}
	if !released {
		metrics.DispatchPassesTotal.WithLabelValues("preempted").Inc()
		log.Warn("dispatch preempted before completion", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
		return res, errs.ErrLeaseLost
	}
	metrics.DispatchPassesTotal.WithLabelValues("completed").Inc()
	log.Info("dispatch completed",
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// run drains the pending contacts. It re-reads the pending set until it is
// empty so contacts that arrive mid-pass are not left behind.
func (e *Engine) run(ctx context.Context, c *model.Campaign, lease string) (Result, error) {
	var res Result
	for {
		pending, err := e.contacts.ListPending(ctx, c.ID)
		if err != nil {
			return res, err
		}
		if len(pending) == 0 {
			return res, nil
		}
		for _, ct := range pending {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			alive, err := e.campaigns.Heartbeat(ctx, c.ID, lease)
			if err != nil {
				return res, err
			}
			if !alive {
				return res, errs.ErrLeaseLost
			}
			out, err := e.deliver(ctx, c, ct)
			if err != nil {
				return res, err
			}
			switch out {
			case outcomeSent:
				res.Sent++
			case outcomeFailed:
				res.Failed++
			}
		}
	}
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeSkipped // settled by someone else
)

// deliver handles one contact.
func (e *Engine) deliver(ctx context.Context, c *model.Campaign, ct model.Contact) (outcome, error) {
	if _, err := e.ledger.Debit(ctx, c.CreatorID, 1); err != nil {
		if !errors.Is(err, errs.ErrInsufficientCredit) {
			return outcomeFailed, err
		}
		ok, err := e.contacts.UpdateStatus(ctx, ct.ID, model.ContactFailed)
		if err != nil {
			return outcomeFailed, err
		}
		if !ok {
			return outcomeSkipped, nil
		}
		metrics.ContactsTotal.WithLabelValues("no_credit").Inc()
		return outcomeFailed, nil
	}

	sendErr := e.send(ctx, model.SMS{Phone: ct.Phone, Text: c.Message, Media: c.Media})

	// The credit is already spent; finish the bookkeeping even if the caller
	// has gone away.
	bk := context.WithoutCancel(ctx)

	if sendErr != nil {
		e.log.Warn("send failed",
			zap.String("campaign_id", c.ID),
			zap.Int64("contact_id", ct.ID),
			zap.Error(sendErr),
		)
		if err := e.refund(bk, c.CreatorID); err != nil {
			return outcomeFailed, err
		}
		ok, err := e.contacts.UpdateStatus(bk, ct.ID, model.ContactFailed)
		if err != nil {
			return outcomeFailed, err
		}
		if !ok {
			return outcomeSkipped, nil
		}
		metrics.ContactsTotal.WithLabelValues("failed").Inc()
		return outcomeFailed, nil
	}

	campaignID := c.ID
	flipped, err := e.contacts.MarkSent(bk, ct.ID, model.UsageLogEntry{
		AccountID:  c.CreatorID,
		CampaignID: &campaignID,
		Phone:      ct.Phone,
		Message:    c.Message,
	})
	if err != nil {
		return outcomeFailed, err
	}
	if !flipped {
		// Another pass settled this contact first and paid for it.
		if err := e.refund(bk, c.CreatorID); err != nil {
			return outcomeFailed, err
		}
		return outcomeSkipped, nil
	}
	metrics.ContactsTotal.WithLabelValues("sent").Inc()
	return outcomeSent, nil
}

func (e *Engine) refund(ctx context.Context, accountID int64) error {
	if _, err := e.ledger.Credit(ctx, accountID, 1); err != nil {
		return fmt.Errorf("refund credit: %w", err)
	}
	return nil
}

// ResetStuck moves campaigns that have sat in sending since before
// now-olderThan back to scheduled, so the next dispatch resumes from the
// first pending contact. It returns the campaigns it reset.
//
// A live pass renews updated_at before each contact, so it is only reset when
// a single contact takes longer than olderThan. Keep olderThan well above the
// send timeout.
func (e *Engine) ResetStuck(ctx context.Context, olderThan time.Duration) ([]model.Campaign, error) {
	stuck, err := e.campaigns.ListStuck(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	var reset []model.Campaign
	for _, c := range stuck {
		ok, err := e.campaigns.CompareAndSwapStatus(ctx, c.ID, model.CampaignScheduled, model.CampaignSending)
		if err != nil {
			return reset, err
		}
		if ok {
			e.log.Info("reset stuck campaign", zap.String("campaign_id", c.ID), zap.Time("updated_at", c.UpdatedAt))
			c.Status = model.CampaignScheduled
			reset = append(reset, c)
		}
	}
	return reset, nil
}
