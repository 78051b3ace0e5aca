package consumption

import "time"

// Product types a debit can be recorded against.
const (
	ProductTypeModel   = "model"
	ProductTypeDataset = "dataset"
)

// Record — append-only audit entry; exists iff the matching debit committed.
type Record struct {
	ID          string    `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	ProductType string    `db:"product_type" json:"product_type"`
	ProductID   string    `db:"product_id" json:"product_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
