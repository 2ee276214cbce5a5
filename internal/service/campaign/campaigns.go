package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/ingest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/util"
	"go.uber.org/zap"
)

type MediaInput struct {
	Kind model.MediaKind `validate:"required,oneof=image video document"`
	Ref  string          `validate:"required"`
}

type CreateCampaignCmd struct {
	Message    string       `validate:"required,max=1600"`
	Media      []MediaInput `validate:"max=3,dive"`
	ScheduleAt *time.Time
	Numbers    string       // newline separated
	Table      ingest.Table // optional upload, header row first
}

// CreateCampaign stores a new scheduled campaign owned by id together with
// its contacts and returns the campaign id. The contact list may be empty;
// more can be added with IngestContacts before dispatch.
func (e *Engine) CreateCampaign(ctx context.Context, id model.Identity, cmd CreateCampaignCmd) (string, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return "", err
	}
	if strings.TrimSpace(cmd.Message) == "" {
		return "", fmt.Errorf("%w: Message is required", errs.ErrInvalidInput)
	}
	phones, err := ingest.Collect(cmd.Numbers, cmd.Table, e.ingestOpts)
	if err != nil {
		return "", err
	}

	c := &model.Campaign{
		ID:          util.NewID(),
		Message:     cmd.Message,
		CreatorID:   id.AccountID,
		CreatorRole: id.Role,
		ScheduleAt:  cmd.ScheduleAt,
		Status:      model.CampaignScheduled,
	}
	for _, m := range cmd.Media {
		c.Media = append(c.Media, model.MediaRef{Kind: m.Kind, Ref: m.Ref})
	}
	if _, err := e.campaigns.CreateWithContacts(ctx, c, phones); err != nil {
		return "", err
	}

	e.log.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.Int64("creator_id", c.CreatorID),
		zap.Int("contacts", len(phones)),
	)
	return c.ID, nil
}

// IngestContacts appends numbers to a campaign that has not been dispatched
// yet and returns how many were added. The store re-checks the status in the
// insert transaction, so a dispatch that starts in between makes this fail
// with errs.ErrAlreadyDispatched instead of stranding pending contacts.
func (e *Engine) IngestContacts(ctx context.Context, id model.Identity, campaignID, text string, table ingest.Table) (int, error) {
	c, err := e.owned(ctx, id, campaignID)
	if err != nil {
		return 0, err
	}
	if c.Status != model.CampaignScheduled {
		return 0, errs.ErrAlreadyDispatched
	}
	phones, err := ingest.Collect(text, table, e.ingestOpts)
	if err != nil {
		return 0, err
	}
	return e.contacts.InsertBatch(ctx, c.ID, phones)
}

// ReportRow is one line of a campaign delivery report.
type ReportRow struct {
	ID     int64               `json:"id"`
	Phone  string              `json:"phone_number"`
	Status model.ContactStatus `json:"status"`
}

// GetReport lists every contact of the campaign with its delivery status, in
// insertion order.
func (e *Engine) GetReport(ctx context.Context, id model.Identity, campaignID string) ([]ReportRow, error) {
	c, err := e.owned(ctx, id, campaignID)
	if err != nil {
		return nil, err
	}
	contacts, err := e.contacts.ListByCampaign(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	rows := make([]ReportRow, 0, len(contacts))
	for _, ct := range contacts {
		rows = append(rows, ReportRow{ID: ct.ID, Phone: ct.Phone, Status: ct.Status})
	}
	return rows, nil
}

// ListAllContacts pages through the contacts of every campaign, newest
// first. Only admins may read across campaigns.
func (e *Engine) ListAllContacts(ctx context.Context, id model.Identity, page repository.ContactPage) ([]model.Contact, error) {
	if !id.IsAdmin() {
		return nil, errs.ErrForbidden
	}
	if page.Status != "" && !page.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidInput, page.Status)
	}
	return e.contacts.ListAll(ctx, page)
}

// Summary is a campaign together with its contact tallies.
type Summary struct {
	model.Campaign
	Counts map[model.ContactStatus]int64 `json:"counts"`
}

func (e *Engine) GetCampaign(ctx context.Context, id model.Identity, campaignID string) (*Summary, error) {
	c, err := e.owned(ctx, id, campaignID)
	if err != nil {
		return nil, err
	}
	counts, err := e.contacts.CountByStatus(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &Summary{Campaign: *c, Counts: counts}, nil
}

// ListCampaigns returns campaigns newest first. Non-admins only see their own.
func (e *Engine) ListCampaigns(ctx context.Context, id model.Identity, status model.CampaignStatus) ([]model.Campaign, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidInput, status)
	}
	f := repository.CampaignFilter{Status: status}
	if !id.IsAdmin() {
		f.CreatorID = id.AccountID
		f.CreatorRole = id.Role
	}
	return e.campaigns.List(ctx, f)
}

// UpdateCampaignStatus lets an operator reset a campaign to scheduled, which
// re-opens it for dispatch, or abort it as failed. Sending and completed are
// set by the engine only.
func (e *Engine) UpdateCampaignStatus(ctx context.Context, id model.Identity, campaignID string, to model.CampaignStatus) error {
	var from []model.CampaignStatus
	switch to {
	case model.CampaignScheduled:
		from = []model.CampaignStatus{model.CampaignSending, model.CampaignFailed}
	case model.CampaignFailed:
		from = []model.CampaignStatus{model.CampaignScheduled, model.CampaignSending}
	default:
		return fmt.Errorf("%w: cannot set %q", errs.ErrInvalidTransition, to)
	}

	c, err := e.owned(ctx, id, campaignID)
	if err != nil {
		return err
	}
	if c.Status == to {
		return nil
	}
	ok, err := e.campaigns.CompareAndSwapStatus(ctx, c.ID, to, from...)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s to %s", errs.ErrInvalidTransition, c.Status, to)
	}
	e.log.Info("campaign status changed",
		zap.String("campaign_id", c.ID),
		zap.String("from", c.Status.String()),
		zap.String("to", to.String()),
		zap.Int64("by", id.AccountID),
	)
	return nil
}

// DeleteCampaign removes a campaign and its contacts. A campaign that is
// being sent must be reset or aborted first.
func (e *Engine) DeleteCampaign(ctx context.Context, id model.Identity, campaignID string) error {
	c, err := e.owned(ctx, id, campaignID)
	if err != nil {
		return err
	}
	if c.Status == model.CampaignSending {
		return fmt.Errorf("%w: campaign is sending", errs.ErrInvalidTransition)
	}
	return e.campaigns.Delete(ctx, c.ID)
}

func (e *Engine) owned(ctx context.Context, id model.Identity, campaignID string) (*model.Campaign, error) {
	c, err := e.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(id) {
		return nil, errs.ErrForbidden
	}
	return c, nil
}
