package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modelpay/internal/consumption"
	"modelpay/internal/metrics"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrArtifactUnavailable = errors.New("artifact is not available for purchase")
	ErrPurchaseRequired    = errors.New("artifact requires purchase")
)

type Repository struct {
	db          *sqlx.DB
	consumption *consumption.Repository
}

func NewRepository(db *sqlx.DB, consumptionRepo *consumption.Repository) *Repository {
	return &Repository{db: db, consumption: consumptionRepo}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Artifact, error) {
	a := &Artifact{}
	err := r.db.GetContext(ctx, a, `SELECT * FROM artifacts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) ListPublished(ctx context.Context, limit, offset int) ([]Artifact, error) {
	if limit <= 0 {
		limit = 50
	}

	var artifacts []Artifact
	err := r.db.SelectContext(ctx, &artifacts, `
		SELECT id, owner_id, name, type, status, price_cents, downloads, created_at, updated_at
		FROM artifacts
		WHERE status = 'published'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}

	return artifacts, nil
}

// Purchase grants access to a priced artifact in one transaction: artifact
// availability check, conditional grant insert, ledger debit, consumption
// record, download counter. The grant insert decides everything downstream:
// if the (user, artifact) pair already exists, no debit and no counter
// bump happen, so concurrent duplicate purchases collapse into one.
func (r *Repository) Purchase(ctx context.Context, userID int, artifactID string) (*PurchaseResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	a, err := lockArtifact(ctx, tx, artifactID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPublished {
		return nil, ErrArtifactUnavailable
	}

	inserted, err := insertGrant(ctx, tx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return &PurchaseResult{AlreadyGranted: true}, nil
	}

	result := &PurchaseResult{}
	if !a.Free() {
		rec, newBalance, err := r.consumption.SpendInTx(ctx, tx, uuid.New().String(), userID, consumption.SpendRequest{
			AmountCents: a.PriceCents,
			ProductType: string(a.Type),
			ProductID:   a.ID,
			Description: fmt.Sprintf("purchase of %s", a.Name),
		})
		if err != nil {
			return nil, err
		}
		result.ConsumptionID = rec.ID
		result.NewBalanceCents = newBalance
	}

	if err := bumpDownloads(ctx, tx, artifactID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if !a.Free() {
		metrics.RecordDebit(string(a.Type))
	}
	return result, nil
}

// RegisterDownload is the free-artifact path: the counter increment is
// derived from the same conditional grant insert, so duplicate requests
// cannot drift the counter. Priced artifacts require a prior purchase.
func (r *Repository) RegisterDownload(ctx context.Context, userID int, artifactID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a, err := lockArtifact(ctx, tx, artifactID)
	if err != nil {
		return err
	}
	if a.Status != StatusPublished {
		return ErrArtifactUnavailable
	}

	if !a.Free() {
		granted, err := hasGrant(ctx, tx, userID, artifactID)
		if err != nil {
			return err
		}
		if !granted {
			return ErrPurchaseRequired
		}
		return tx.Commit()
	}

	inserted, err := insertGrant(ctx, tx, userID, artifactID)
	if err != nil {
		return err
	}
	if inserted {
		if err := bumpDownloads(ctx, tx, artifactID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) HasGrant(ctx context.Context, userID int, artifactID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM artifact_grants WHERE user_id = $1 AND artifact_id = $2)`,
		userID, artifactID,
	)
	return exists, err
}

func lockArtifact(ctx context.Context, tx *sqlx.Tx, artifactID string) (*Artifact, error) {
	a := &Artifact{}
	err := tx.QueryRowxContext(ctx,
		`SELECT id, owner_id, name, type, status, price_cents, downloads, created_at, updated_at
		 FROM artifacts
		 WHERE id = $1
		 FOR UPDATE`,
		artifactID,
	).StructScan(a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func insertGrant(ctx context.Context, tx *sqlx.Tx, userID int, artifactID string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO artifact_grants (user_id, artifact_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, artifact_id) DO NOTHING`,
		userID, artifactID,
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

func hasGrant(ctx context.Context, tx *sqlx.Tx, userID int, artifactID string) (bool, error) {
	var exists bool
	err := tx.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM artifact_grants WHERE user_id = $1 AND artifact_id = $2)`,
		userID, artifactID,
	).Scan(&exists)
	return exists, err
}

func bumpDownloads(ctx context.Context, tx *sqlx.Tx, artifactID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE artifacts
		 SET downloads = downloads + 1, updated_at = NOW()
		 WHERE id = $1`,
		artifactID,
	)
	return err
}
