package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmoiron/sqlx"
)

// CampaignsRepository persists campaigns. A dispatch pass owns a campaign
// through a lease: Claim takes it on the scheduled to sending swap, Heartbeat
// keeps it fresh and Release hands the campaign to its final status. Any other
// status change drops the lease, which the pass notices on its next heartbeat.
type CampaignsRepository interface {
	Create(ctx context.Context, c *model.Campaign) error
	CreateWithContacts(ctx context.Context, c *model.Campaign, phones []string) (int, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, f CampaignFilter) ([]model.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error
	CompareAndSwapStatus(ctx context.Context, id string, to model.CampaignStatus, from ...model.CampaignStatus) (bool, error)
	Claim(ctx context.Context, id, lease string) (bool, error)
	Heartbeat(ctx context.Context, id, lease string) (bool, error)
	Release(ctx context.Context, id, lease string, to model.CampaignStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Campaign, error)
	ListStuck(ctx context.Context, updatedBefore time.Time) ([]model.Campaign, error)
}

// CampaignFilter narrows List. A zero CreatorID lists every campaign.
type CampaignFilter struct {
	CreatorID   int64
	CreatorRole model.Role
	Status      model.CampaignStatus
}

type CampaignsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCampaignsRepository(db *sqlx.DB) *CampaignsRepositoryImpl {
	return &CampaignsRepositoryImpl{db: db}
}

var _ CampaignsRepository = (*CampaignsRepositoryImpl)(nil)

type campaignRow struct {
	ID          string         `db:"id"`
	Message     string         `db:"message"`
	Media       sql.NullString `db:"media"`
	CreatorID   int64          `db:"creator_id"`
	CreatorRole string         `db:"creator_role"`
	ScheduleAt  sql.NullInt64  `db:"schedule_at"`
	Status      string         `db:"status"`
	CreatedAt   int64          `db:"created_at"`
	UpdatedAt   int64          `db:"updated_at"`
}

func (r campaignRow) toModel() (model.Campaign, error) {
	c := model.Campaign{
		ID:          r.ID,
		Message:     r.Message,
		CreatorID:   r.CreatorID,
		CreatorRole: model.Role(r.CreatorRole),
		Status:      model.CampaignStatus(r.Status),
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
	if r.ScheduleAt.Valid {
		t := fromMillis(r.ScheduleAt.Int64)
		c.ScheduleAt = &t
	}
	if r.Media.Valid && r.Media.String != "" {
		if err := json.Unmarshal([]byte(r.Media.String), &c.Media); err != nil {
			return model.Campaign{}, fmt.Errorf("decode media of campaign %s: %w", r.ID, err)
		}
	}
	return c, nil
}

func toCampaigns(rows []campaignRow) ([]model.Campaign, error) {
	out := make([]model.Campaign, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

const campaignColumns = `id, message, media, creator_id, creator_role, schedule_at, status, created_at, updated_at`

// Create inserts c. CreatedAt/UpdatedAt are set here; ID and Status must be set by the caller.
func (r *CampaignsRepositoryImpl) Create(ctx context.Context, c *model.Campaign) error {
	now := fromMillis(toMillis(time.Now()))
	if err := insertCampaign(ctx, r.db, c, now); err != nil {
		return err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// CreateWithContacts inserts c and its pending contacts in one transaction,
// so a campaign never becomes visible to the scheduler without its contacts.
func (r *CampaignsRepositoryImpl) CreateWithContacts(ctx context.Context, c *model.Campaign, phones []string) (int, error) {
	now := fromMillis(toMillis(time.Now()))
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertCampaign(ctx, tx, c, now); err != nil {
			return err
		}
		return insertContacts(ctx, tx, c.ID, phones, toMillis(now))
	})
	if err != nil {
		return 0, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return len(phones), nil
}

func insertCampaign(ctx context.Context, ex sqlx.ExecerContext, c *model.Campaign, now time.Time) error {
	var media sql.NullString
	if len(c.Media) > 0 {
		b, err := json.Marshal(c.Media)
		if err != nil {
			return fmt.Errorf("encode media: %w", err)
		}
		media = sql.NullString{String: string(b), Valid: true}
	}
	var schedule sql.NullInt64
	if c.ScheduleAt != nil {
		schedule = sql.NullInt64{Int64: toMillis(*c.ScheduleAt), Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO campaigns
		    (id, message, media, creator_id, creator_role, schedule_at, status, created_at, updated_at)
		VALUES
		    (?,  ?,       ?,     ?,          ?,            ?,           ?,      ?,          ?)
	`, c.ID, c.Message, media, c.CreatorID, c.CreatorRole.String(), schedule, c.Status.String(), toMillis(now), toMillis(now))
	if err != nil {
		return errs.Store("insert campaign", err)
	}
	return nil
}

// GetByID returns errs.ErrCampaignNotFound when no row matches.
func (r *CampaignsRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var row campaignRow
	err := r.db.GetContext(ctx, &row, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrCampaignNotFound
	}
	if err != nil {
		return nil, errs.Store("get campaign", err)
	}
	c, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns campaigns newest first.
func (r *CampaignsRepositoryImpl) List(ctx context.Context, f CampaignFilter) ([]model.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	var args []any
	if f.CreatorID > 0 {
		q += ` AND creator_id = ? AND creator_role = ?`
		args = append(args, f.CreatorID, f.CreatorRole.String())
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status.String())
	}
	q += ` ORDER BY created_at DESC, id DESC`

	var rows []campaignRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errs.Store("list campaigns", err)
	}
	return toCampaigns(rows)
}

// UpdateStatus sets status unconditionally.
func (r *CampaignsRepositoryImpl) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`,
		status.String(), toMillis(time.Now()), id)
	if err != nil {
		return errs.Store("update campaign status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("update campaign status", err)
	}
	if n == 0 {
		// MySQL reports zero changed rows when status already equals the target.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CompareAndSwapStatus moves the campaign to `to` only if its current status
// is one of `from`. It reports whether this call made the change. The
// dispatch lease, if any, is dropped.
func (r *CampaignsRepositoryImpl) CompareAndSwapStatus(ctx context.Context, id string, to model.CampaignStatus, from ...model.CampaignStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("compare and swap campaign %s: no source status", id)
	}
	src := make([]string, 0, len(from))
	for _, s := range from {
		src = append(src, s.String())
	}

	query, args, err := sqlx.In(
		`UPDATE campaigns SET status = ?, lease = NULL, revision = revision + 1, updated_at = ? WHERE id = ? AND status IN (?)`,
		to.String(), toMillis(time.Now()), id, src,
	)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, errs.Store("swap campaign status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store("swap campaign status", err)
	}
	return n == 1, nil
}

// Claim moves a scheduled campaign to sending under lease. It reports false
// when the campaign was not scheduled.
func (r *CampaignsRepositoryImpl) Claim(ctx context.Context, id, lease string) (bool, error) {
	return r.affectsOne(ctx, "claim campaign", `
		UPDATE campaigns
		   SET status = ?, lease = ?, revision = revision + 1, updated_at = ?
		 WHERE id = ? AND status = ?
	`, model.CampaignSending.String(), lease, toMillis(time.Now()), id, model.CampaignScheduled.String())
}

// Heartbeat refreshes updated_at of a campaign still sending under lease, so
// ListStuck does not pick it up. False means the lease is gone.
func (r *CampaignsRepositoryImpl) Heartbeat(ctx context.Context, id, lease string) (bool, error) {
	return r.affectsOne(ctx, "campaign heartbeat", `
		UPDATE campaigns
		   SET revision = revision + 1, updated_at = ?
		 WHERE id = ? AND status = ? AND lease = ?
	`, toMillis(time.Now()), id, model.CampaignSending.String(), lease)
}

// Release ends a pass: the campaign moves from sending to `to` only while
// lease still holds it.
func (r *CampaignsRepositoryImpl) Release(ctx context.Context, id, lease string, to model.CampaignStatus) (bool, error) {
	return r.affectsOne(ctx, "release campaign", `
		UPDATE campaigns
		   SET status = ?, lease = NULL, revision = revision + 1, updated_at = ?
		 WHERE id = ? AND status = ? AND lease = ?
	`, to.String(), toMillis(time.Now()), id, model.CampaignSending.String(), lease)
}

// affectsOne runs a conditional update. Every statement passed here bumps
// revision, so MySQL reports a matched row as changed.
func (r *CampaignsRepositoryImpl) affectsOne(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errs.Store(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store(op, err)
	}
	return n == 1, nil
}

// Delete removes the campaign and its contacts. Usage logs are kept.
func (r *CampaignsRepositoryImpl) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_contacts WHERE campaign_id = ?`, id); err != nil {
			return errs.Store("delete campaign contacts", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
		if err != nil {
			return errs.Store("delete campaign", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("delete campaign", err)
		}
		if n == 0 {
			return errs.ErrCampaignNotFound
		}
		return nil
	})
}

// ListDue returns scheduled campaigns whose schedule time is at or before now, oldest first.
func (r *CampaignsRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Campaign, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var rows []campaignRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+campaignColumns+`
		  FROM campaigns
		 WHERE status = ? AND schedule_at IS NOT NULL AND schedule_at <= ?
		 ORDER BY schedule_at, id
		 LIMIT ?
	`, model.CampaignScheduled.String(), toMillis(now), limit)
	if err != nil {
		return nil, errs.Store("list due campaigns", err)
	}
	return toCampaigns(rows)
}

// ListStuck returns campaigns left in sending since before updatedBefore.
func (r *CampaignsRepositoryImpl) ListStuck(ctx context.Context, updatedBefore time.Time) ([]model.Campaign, error) {
	var rows []campaignRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+campaignColumns+`
		  FROM campaigns
		 WHERE status = ? AND updated_at < ?
		 ORDER BY updated_at, id
	`, model.CampaignSending.String(), toMillis(updatedBefore))
	if err != nil {
		return nil, errs.Store("list stuck campaigns", err)
	}
	return toCampaigns(rows)
}
