package recharge

import (
	"context"
	"database/sql"
	"errors"

	"modelpay/internal/ledger"

	"github.com/jmoiron/sqlx"
)

var ErrRecordNotFound = errors.New("recharge record not found")

type Repository struct {
	db     *sqlx.DB
	ledger *ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

func (r *Repository) Create(ctx context.Context, id string, userID int, amountCents int64) (*Record, error) {
	rec := &Record{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO recharge_records (id, user_id, amount_cents, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id, user_id, amount_cents, status, payment_id, created_at, updated_at`,
		id, userID, amountCents,
	).StructScan(rec)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	rec := &Record{}
	err := r.db.GetContext(ctx, rec,
		`SELECT id, user_id, amount_cents, status, payment_id, created_at, updated_at
		 FROM recharge_records WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// SetPaymentID records the provider's checkout id on first contact. It only
// fills an empty slot so a late webhook cannot overwrite the correlation.
func (r *Repository) SetPaymentID(ctx context.Context, id, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recharge_records
		 SET payment_id = $2, updated_at = NOW()
		 WHERE id = $1 AND payment_id = ''`,
		id, paymentID,
	)
	return err
}

// Complete flips pending -> completed and credits the ledger in one
// transaction. The conditional update is the whole race story: whichever of
// the webhook and the poll gets here first wins; the loser sees zero rows,
// performs no credit, and reports newly=false.
func (r *Repository) Complete(ctx context.Context, id, paymentID string) (newly bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var userID int
	var amountCents int64
	err = tx.QueryRowxContext(ctx,
		`UPDATE recharge_records
		 SET status = 'completed', payment_id = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING user_id, amount_cents`,
		id, paymentID,
	).Scan(&userID, &amountCents)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Record id doubles as the credit's idempotency key, so even a replayed
	// completion of the same record can only move the balance once.
	if _, err := r.ledger.CreditInTx(ctx, tx, userID, amountCents, id); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Fail flips pending -> failed; terminal states are left untouched.
func (r *Repository) Fail(ctx context.Context, id, paymentID string) (newly bool, err error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recharge_records
		 SET status = 'failed', payment_id = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, paymentID,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var recs []Record
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, user_id, amount_cents, status, payment_id, created_at, updated_at
		FROM recharge_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return recs, nil
}
