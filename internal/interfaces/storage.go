package interfaces

import (
	"context"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// SnapshotStorage keeps undo snapshots outside the session so their document
// bytes can live in an embedded store
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error

	// GetSnapshot returns an error wrapping models.KindNotFound for unknown ids
	GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error)

	// DeleteSnapshot is a no-op for unknown ids
	DeleteSnapshot(ctx context.Context, id string) error

	DeleteSessionSnapshots(ctx context.Context, sessionID string) error
	Close() error
}
