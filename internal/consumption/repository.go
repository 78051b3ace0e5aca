package consumption

import (
	"context"

	"modelpay/internal/ledger"
	"modelpay/internal/metrics"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SpendRequest struct {
	AmountCents int64
	ProductType string
	ProductID   string
	Description string
}

type Repository struct {
	db     *sqlx.DB
	ledger *ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo *ledger.Repository) *Repository {
	return &Repository{db: db, ledger: ledgerRepo}
}

// Spend debits the account and appends the audit record in one transaction:
// a failure in either step leaves neither. The record id is also the debit's
// idempotency key.
func (r *Repository) Spend(ctx context.Context, userID int, req SpendRequest) (*Record, int64, error) {
	if req.AmountCents <= 0 {
		return nil, 0, ledger.ErrInvalidAmount
	}

	id := uuid.New().String()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	newBalance, err := r.ledger.DebitInTx(ctx, tx, userID, req.AmountCents, id)
	if err != nil {
		return nil, 0, err
	}

	rec, err := insertRecordInTx(ctx, tx, id, userID, req)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	metrics.RecordDebit(req.ProductType)
	return rec, newBalance, nil
}

// SpendInTx is Spend inside a caller-owned transaction, for callers that
// need the debit and record to commit together with their own rows.
func (r *Repository) SpendInTx(ctx context.Context, tx *sqlx.Tx, id string, userID int, req SpendRequest) (*Record, int64, error) {
	newBalance, err := r.ledger.DebitInTx(ctx, tx, userID, req.AmountCents, id)
	if err != nil {
		return nil, 0, err
	}

	rec, err := insertRecordInTx(ctx, tx, id, userID, req)
	if err != nil {
		return nil, 0, err
	}

	return rec, newBalance, nil
}

func insertRecordInTx(ctx context.Context, tx *sqlx.Tx, id string, userID int, req SpendRequest) (*Record, error) {
	rec := &Record{}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO consumption_records (id, user_id, amount_cents, product_type, product_id, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, amount_cents, product_type, product_id, description, created_at`,
		id, userID, req.AmountCents, req.ProductType, req.ProductID, req.Description,
	).StructScan(rec)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int, productType string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var recs []Record
	var err error
	if productType != "" {
		err = r.db.SelectContext(ctx, &recs, `
			SELECT id, user_id, amount_cents, product_type, product_id, description, created_at
			FROM consumption_records
			WHERE user_id = $1 AND product_type = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4
		`, userID, productType, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &recs, `
			SELECT id, user_id, amount_cents, product_type, product_id, description, created_at
			FROM consumption_records
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	return recs, nil
}
