package ports

import (
	"context"

	"github.com/bnema/poolwallet-cli/internal/domain"
)

type SnapshotRepository interface {
	// Load returns domain.ErrSnapshotNotFound when nothing is stored.
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
	Delete(ctx context.Context) error
}
