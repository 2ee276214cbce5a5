package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmoiron/sqlx"
)

// LedgerRepository owns account credit balances. Every mutation is one
// conditional UPDATE, so concurrent callers on the same account never lose
// an update and a balance never drops below zero.
type LedgerRepository interface {
	Debit(ctx context.Context, accountID, amount int64) (int64, error)
	Credit(ctx context.Context, accountID, amount int64) (int64, error)
	Balance(ctx context.Context, accountID int64) (int64, error)
}

type ledgerRepo struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository { return &ledgerRepo{db: db} }

// Debit takes amount credits if the balance covers it and returns the new
// balance. A refused debit leaves the row untouched and returns
// errs.ErrInsufficientCredit.
func (r *ledgerRepo) Debit(ctx context.Context, accountID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errs.ErrInvalidAmount
	}

	var bal int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET credits = credits - ?, updated_at = ?
			WHERE id = ? AND credits >= ?
		`, amount, toMillis(time.Now()), accountID, amount)
		if err != nil {
			return errs.Store("debit", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("debit", err)
		}
		if n == 0 {
			if _, err := balanceOf(ctx, tx, accountID); err != nil {
				return err
			}
			return errs.ErrInsufficientCredit
		}

		bal, err = balanceOf(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// Credit grants amount credits and returns the new balance.
func (r *ledgerRepo) Credit(ctx context.Context, accountID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errs.ErrInvalidAmount
	}

	var bal int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET credits = credits + ?, updated_at = ?
			WHERE id = ?
		`, amount, toMillis(time.Now()), accountID)
		if err != nil {
			return errs.Store("credit", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errs.Store("credit", err)
		}
		if n == 0 {
			return errs.ErrAccountNotFound
		}

		bal, err = balanceOf(ctx, tx, accountID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return bal, nil
}

func (r *ledgerRepo) Balance(ctx context.Context, accountID int64) (int64, error) {
	var bal int64
	err := r.db.GetContext(ctx, &bal, `SELECT credits FROM accounts WHERE id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errs.ErrAccountNotFound
	}
	if err != nil {
		return 0, errs.Store("balance", err)
	}
	return bal, nil
}

func balanceOf(ctx context.Context, tx *sqlx.Tx, accountID int64) (int64, error) {
	var bal int64
	err := tx.GetContext(ctx, &bal, `SELECT credits FROM accounts WHERE id = ?`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errs.ErrAccountNotFound
	}
	if err != nil {
		return 0, errs.Store("balance", err)
	}
	return bal, nil
}
