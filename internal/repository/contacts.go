package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmoiron/sqlx"
)

// insertChunk bounds the number of rows per multi-row INSERT.
const insertChunk = 500

// ContactsRepository stores the recipients of a campaign. Contact status only
// ever leaves pending, so every status write is conditional on it.
type ContactsRepository interface {
	InsertBatch(ctx context.Context, campaignID string, phones []string) (int, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]model.Contact, error)
	ListPending(ctx context.Context, campaignID string) ([]model.Contact, error)
	UpdateStatus(ctx context.Context, contactID int64, status model.ContactStatus) (bool, error)
	MarkSent(ctx context.Context, contactID int64, entry model.UsageLogEntry) (bool, error)
	CountByStatus(ctx context.Context, campaignID string) (map[model.ContactStatus]int64, error)
	ListAll(ctx context.Context, p ContactPage) ([]model.Contact, error)
}

// ContactPage selects a page of contacts across all campaigns, newest first.
// BeforeID is the keyset cursor: only ids below it are returned.
type ContactPage struct {
	BeforeID int64
	Limit    int
	Status   model.ContactStatus
}

type ContactsRepositoryImpl struct {
	db *sqlx.DB
}

func NewContactsRepository(db *sqlx.DB) *ContactsRepositoryImpl {
	return &ContactsRepositoryImpl{db: db}
}

var _ ContactsRepository = (*ContactsRepositoryImpl)(nil)

type contactRow struct {
	ID         int64  `db:"id"`
	CampaignID string `db:"campaign_id"`
	Phone      string `db:"phone"`
	Status     string `db:"status"`
	UpdatedAt  int64  `db:"updated_at"`
}

func (r contactRow) toModel() model.Contact {
	return model.Contact{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		Phone:      r.Phone,
		Status:     model.ContactStatus(r.Status),
		UpdatedAt:  fromMillis(r.UpdatedAt),
	}
}

// InsertBatch adds phones as pending contacts of campaignID in the given
// order and returns how many rows were written. The rows are only written
// while the campaign is still scheduled: the guard and the inserts share one
// transaction, so a dispatch pass claiming the campaign either sees all of
// them or none. A campaign past scheduled gives errs.ErrAlreadyDispatched.
func (r *ContactsRepositoryImpl) InsertBatch(ctx context.Context, campaignID string, phones []string) (int, error) {
	if len(phones) == 0 {
		return 0, nil
	}
	now := toMillis(time.Now())

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// The bump takes the row lock the dispatch claim also needs.
		res, err := tx.ExecContext(ctx, `
			UPDATE campaigns
			   SET revision = revision + 1, updated_at = ?
			 WHERE id = ? AND status = ?
		`, now, campaignID, model.CampaignScheduled.String())
		if err != nil {
			return errs.Store("lock campaign", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("lock campaign", err)
		}
		if n == 0 {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM campaigns WHERE id = ?`, campaignID); err != nil {
				return errs.Store("lock campaign", err)
			}
			if exists == 0 {
				return errs.ErrCampaignNotFound
			}
			return errs.ErrAlreadyDispatched
		}
		return insertContacts(ctx, tx, campaignID, phones, now)
	})
	if err != nil {
		return 0, err
	}
	return len(phones), nil
}

// insertContacts writes phones as pending rows in chunks of insertChunk.
func insertContacts(ctx context.Context, tx *sqlx.Tx, campaignID string, phones []string, now int64) error {
	pending := model.ContactPending.String()
	for start := 0; start < len(phones); start += insertChunk {
		end := min(start+insertChunk, len(phones))

		var sb strings.Builder
		sb.WriteString(`INSERT INTO campaign_contacts (campaign_id, phone, status, updated_at) VALUES `)
		args := make([]any, 0, (end-start)*4)
		for i, phone := range phones[start:end] {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, campaignID, phone, pending, now)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return errs.Store("insert contacts", err)
		}
	}
	return nil
}

// ListByCampaign returns every contact of the campaign in insertion order.
func (r *ContactsRepositoryImpl) ListByCampaign(ctx context.Context, campaignID string) ([]model.Contact, error) {
	var rows []contactRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, campaign_id, phone, status, updated_at
		  FROM campaign_contacts
		 WHERE campaign_id = ?
		 ORDER BY id
	`, campaignID)
	if err != nil {
		return nil, errs.Store("list contacts", err)
	}
	return toContacts(rows), nil
}

// ListPending returns the contacts still waiting for a send, in insertion order.
func (r *ContactsRepositoryImpl) ListPending(ctx context.Context, campaignID string) ([]model.Contact, error) {
	var rows []contactRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, campaign_id, phone, status, updated_at
		  FROM campaign_contacts
		 WHERE campaign_id = ? AND status = ?
		 ORDER BY id
	`, campaignID, model.ContactPending.String())
	if err != nil {
		return nil, errs.Store("list pending contacts", err)
	}
	return toContacts(rows), nil
}

// ListAll pages through the contacts of every campaign, newest first.
func (r *ContactsRepositoryImpl) ListAll(ctx context.Context, p ContactPage) ([]model.Contact, error) {
	if p.Limit <= 0 || p.Limit > 1000 {
		p.Limit = 100
	}
	q := `SELECT id, campaign_id, phone, status, updated_at FROM campaign_contacts WHERE 1=1`
	var args []any
	if p.BeforeID > 0 {
		q += ` AND id < ?`
		args = append(args, p.BeforeID)
	}
	if p.Status != "" {
		q += ` AND status = ?`
		args = append(args, p.Status.String())
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, p.Limit)

	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errs.Store("list all contacts", err)
	}
	return toContacts(rows), nil
}

func toContacts(rows []contactRow) []model.Contact {
	out := make([]model.Contact, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}

// UpdateStatus moves a pending contact to status. It reports false when the
// contact was not pending any more.
func (r *ContactsRepositoryImpl) UpdateStatus(ctx context.Context, contactID int64, status model.ContactStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaign_contacts
		   SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?
	`, status.String(), toMillis(time.Now()), contactID, model.ContactPending.String())
	if err != nil {
		return false, errs.Store("update contact status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Store("update contact status", err)
	}
	return n == 1, nil
}

// MarkSent flips a pending contact to sent and appends its usage log entry in
// the same transaction. When the contact is no longer pending nothing is
// written and false is returned.
func (r *ContactsRepositoryImpl) MarkSent(ctx context.Context, contactID int64, entry model.UsageLogEntry) (bool, error) {
	var flipped bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now()
		res, err := tx.ExecContext(ctx, `
			UPDATE campaign_contacts
			   SET status = ?, updated_at = ?
			 WHERE id = ? AND status = ?
		`, model.ContactSent.String(), toMillis(now), contactID, model.ContactPending.String())
		if err != nil {
			return errs.Store("mark contact sent", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("mark contact sent", err)
		}
		if n == 0 {
			return nil
		}

		entry.ContactID = &contactID
		entry.Status = model.ContactSent
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if err := insertUsage(ctx, tx, &entry); err != nil {
			return err
		}
		flipped = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return flipped, nil
}

// CountByStatus tallies the campaign's contacts per status.
func (r *ContactsRepositoryImpl) CountByStatus(ctx context.Context, campaignID string) (map[model.ContactStatus]int64, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int64  `db:"n"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS n
		  FROM campaign_contacts
		 WHERE campaign_id = ?
		 GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, errs.Store("count contacts", err)
	}
	out := make(map[model.ContactStatus]int64, len(rows))
	for _, row := range rows {
		out[model.ContactStatus(row.Status)] = row.N
	}
	return out, nil
}
