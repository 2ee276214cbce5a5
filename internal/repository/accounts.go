package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmoiron/sqlx"
)

type AccountsRepository interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
	GetByLogin(ctx context.Context, login string) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) error
	UpdateStatus(ctx context.Context, id int64, status model.AccountStatus) error
	Delete(ctx context.Context, id int64) error
	Totals(ctx context.Context, createdSince time.Time) (AccountTotals, error)
}

// AccountTotals feeds the user statistics panel.
type AccountTotals struct {
	Total        int64 `db:"total"`
	Active       int64 `db:"active"`
	CreatedSince int64 `db:"created_since"`
	Credits      int64 `db:"credits"`
}

type AccountsRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountsRepository(db *sqlx.DB) *AccountsRepositoryImpl {
	return &AccountsRepositoryImpl{db: db}
}

var _ AccountsRepository = (*AccountsRepositoryImpl)(nil)

type accountRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	APIKey       string `db:"api_key"`
	Role         string `db:"role"`
	Status       string `db:"status"`
	Credits      int64  `db:"credits"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r accountRow) toModel() model.Account {
	return model.Account{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		APIKey:       r.APIKey,
		Role:         model.Role(r.Role),
		Status:       model.AccountStatus(r.Status),
		Credits:      r.Credits,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

const accountColumns = `id, name, email, password_hash, api_key, role, status, credits, created_at, updated_at`

// Create inserts a and fills in its ID and timestamps.
func (r *AccountsRepositoryImpl) Create(ctx context.Context, a *model.Account) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts
		    (name, email, password_hash, api_key, role, status, credits, created_at, updated_at)
		VALUES
		    (?,    ?,     ?,             ?,       ?,    ?,      ?,       ?,          ?)
	`, a.Name, a.Email, a.PasswordHash, a.APIKey, a.Role.String(), a.Status.String(), a.Credits, toMillis(now), toMillis(now))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", a.Name, errs.ErrDuplicate)
		}
		return errs.Store("insert account", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errs.Store("insert account id", err)
	}
	a.ID = id
	a.CreatedAt = fromMillis(toMillis(now))
	a.UpdatedAt = a.CreatedAt
	return nil
}

func (r *AccountsRepositoryImpl) get(ctx context.Context, where string, arg any) (*model.Account, error) {
	var row accountRow
	err := r.db.GetContext(ctx, &row, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Store("get account", err)
	}
	a := row.toModel()
	return &a, nil
}

// GetByID returns errs.ErrAccountNotFound when no row matches.
func (r *AccountsRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	a, err := r.get(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errs.ErrAccountNotFound
	}
	return a, nil
}

// GetByAPIKey returns (nil, nil) for unknown keys.
func (r *AccountsRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error) {
	return r.get(ctx, "api_key = ?", apiKey)
}

// GetByLogin matches either the account name or its email, like the panel login form.
func (r *AccountsRepositoryImpl) GetByLogin(ctx context.Context, login string) (*model.Account, error) {
	var row accountRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+accountColumns+` FROM accounts WHERE name = ? OR email = ? ORDER BY id LIMIT 1`, login, login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Store("get account by login", err)
	}
	a := row.toModel()
	return &a, nil
}

func (r *AccountsRepositoryImpl) List(ctx context.Context) ([]model.Account, error) {
	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+accountColumns+` FROM accounts ORDER BY id`); err != nil {
		return nil, errs.Store("list accounts", err)
	}
	out := make([]model.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *AccountsRepositoryImpl) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		name, email, toMillis(time.Now()), id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", name, errs.ErrDuplicate)
		}
		return errs.Store("update account", err)
	}
	return r.requireRow(ctx, res, id)
}

func (r *AccountsRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = ?, updated_at = ? WHERE id = ?`,
		status.String(), toMillis(time.Now()), id)
	if err != nil {
		return errs.Store("update account status", err)
	}
	return r.requireRow(ctx, res, id)
}

func (r *AccountsRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return errs.Store("delete account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("delete account", err)
	}
	if n == 0 {
		return errs.ErrAccountNotFound
	}
	return nil
}

// Totals aggregates account counts and the credit pool in one pass.
func (r *AccountsRepositoryImpl) Totals(ctx context.Context, createdSince time.Time) (AccountTotals, error) {
	var t AccountTotals
	err := r.db.GetContext(ctx, &t, `
		SELECT COUNT(*)                                                   AS total,
		       COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active,
		       COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)   AS created_since,
		       COALESCE(SUM(credits), 0)                                  AS credits
		  FROM accounts
	`, toMillis(createdSince))
	if err != nil {
		return AccountTotals{}, errs.Store("account totals", err)
	}
	return t, nil
}

// requireRow maps "no row touched" to ErrAccountNotFound. MySQL reports
// changed rows rather than matched ones, so an existence probe settles it.
func (r *AccountsRepositoryImpl) requireRow(ctx context.Context, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("rows affected", err)
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.GetContext(ctx, &one, `SELECT 1 FROM accounts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrAccountNotFound
	}
	if err != nil {
		return errs.Store("probe account", err)
	}
	return nil
}
