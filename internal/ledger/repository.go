package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

const pqUniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetOrCreateAccount(ctx context.Context, userID int) (*Account, error) {
	a := &Account{}
	err := r.db.GetContext(ctx, a, `SELECT * FROM accounts WHERE user_id = $1`, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO accounts (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = accounts.updated_at
		 RETURNING user_id, balance_cents, frozen_cents, created_at, updated_at`,
		userID,
	).StructScan(a)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Credit adds amountCents to the account balance exactly once per
// idempotency key. A replay returns the balance recorded by the first
// application without touching the account again.
func (r *Repository) Credit(ctx context.Context, userID int, amountCents int64, idempotencyKey string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	newBalance, err := r.CreditInTx(ctx, tx, userID, amountCents, idempotencyKey)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent call with the same key;
			// the committed entry carries the authoritative result.
			return r.replayedBalance(ctx, idempotencyKey)
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Debit subtracts amountCents if and only if the balance covers it, exactly
// once per idempotency key. The check and the write are a single conditional
// UPDATE, so two racing debits can never both succeed against a balance that
// covers only one.
func (r *Repository) Debit(ctx context.Context, userID int, amountCents int64, idempotencyKey string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	newBalance, err := r.DebitInTx(ctx, tx, userID, amountCents, idempotencyKey)
	if err != nil {
		if isUniqueViolation(err) {
			return r.replayedBalance(ctx, idempotencyKey)
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreditInTx applies a credit inside a caller-owned transaction so the
// balance change commits or rolls back together with the caller's own rows.
func (r *Repository) CreditInTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, idempotencyKey string) (int64, error) {
	if replayed, balance, err := priorEntry(ctx, tx, idempotencyKey); err != nil {
		return 0, err
	} else if replayed {
		return balance, nil
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return 0, err
	}

	var newBalance int64
	err = tx.QueryRowxContext(ctx,
		`UPDATE accounts
		 SET balance_cents = balance_cents + $1, updated_at = NOW()
		 WHERE user_id = $2
		 RETURNING balance_cents`,
		amountCents, userID,
	).Scan(&newBalance)
	if err != nil {
		return 0, err
	}

	if err := insertEntry(ctx, tx, userID, amountCents, newBalance, idempotencyKey); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// DebitInTx applies a conditional debit inside a caller-owned transaction.
func (r *Repository) DebitInTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64, idempotencyKey string) (int64, error) {
	if replayed, balance, err := priorEntry(ctx, tx, idempotencyKey); err != nil {
		return 0, err
	} else if replayed {
		return balance, nil
	}

	var newBalance int64
	err := tx.QueryRowxContext(ctx,
		`UPDATE accounts
		 SET balance_cents = balance_cents - $1, updated_at = NOW()
		 WHERE user_id = $2 AND balance_cents >= $1
		 RETURNING balance_cents`,
		amountCents, userID,
	).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the account does not exist or the balance does not cover
		// the amount; both read as insufficient funds to the caller.
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}

	if err := insertEntry(ctx, tx, userID, -amountCents, newBalance, idempotencyKey); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (r *Repository) ListEntries(ctx context.Context, userID int, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, amount_cents, balance_after, idempotency_key, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func priorEntry(ctx context.Context, tx *sqlx.Tx, idempotencyKey string) (bool, int64, error) {
	var balanceAfter int64
	err := tx.QueryRowxContext(ctx,
		`SELECT balance_after FROM ledger_entries WHERE idempotency_key = $1`,
		idempotencyKey,
	).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, balanceAfter, nil
}

func insertEntry(ctx context.Context, tx *sqlx.Tx, userID int, amountCents, balanceAfter int64, idempotencyKey string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (user_id, amount_cents, balance_after, idempotency_key)
		 VALUES ($1, $2, $3, $4)`,
		userID, amountCents, balanceAfter, idempotencyKey,
	)
	return err
}

func (r *Repository) replayedBalance(ctx context.Context, idempotencyKey string) (int64, error) {
	var balanceAfter int64
	err := r.db.GetContext(ctx, &balanceAfter,
		`SELECT balance_after FROM ledger_entries WHERE idempotency_key = $1`,
		idempotencyKey,
	)
	if err != nil {
		return 0, err
	}
	return balanceAfter, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
