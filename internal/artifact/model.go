package artifact

import "time"

type Type string
type Status string

const (
	TypeModel   Type = "model"
	TypeDataset Type = "dataset"

	StatusPublished Status = "published"
	StatusWithdrawn Status = "withdrawn"
)

// Artifact — платный или бесплатный артефакт каталога.
type Artifact struct {
	ID         string    `db:"id" json:"id"`
	OwnerID    int       `db:"owner_id" json:"owner_id"`
	Name       string    `db:"name" json:"name"`
	Type       Type      `db:"type" json:"type"`
	Status     Status    `db:"status" json:"status"`
	PriceCents int64     `db:"price_cents" json:"price_cents"` // 0 means free
	Downloads  int64     `db:"downloads" json:"downloads"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (a *Artifact) Free() bool {
	return a.PriceCents == 0
}

// Grant marks that a user may access an artifact. Granted once, never
// revoked.
type Grant struct {
	UserID     int       `db:"user_id" json:"user_id"`
	ArtifactID string    `db:"artifact_id" json:"artifact_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PurchaseResult reports what a purchase attempt did. AlreadyGranted is a
// success to the caller, not an error: the entitlement exists and no money
// moved.
type PurchaseResult struct {
	AlreadyGranted  bool   `json:"already_granted"`
	ConsumptionID   string `json:"consumption_id,omitempty"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}
