package artifact

import "context"

type Store interface {
	GetByID(ctx context.Context, id string) (*Artifact, error)
	ListPublished(ctx context.Context, limit, offset int) ([]Artifact, error)
	Purchase(ctx context.Context, userID int, artifactID string) (*PurchaseResult, error)
	RegisterDownload(ctx context.Context, userID int, artifactID string) error
	HasGrant(ctx context.Context, userID int, artifactID string) (bool, error)
}
