package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements interfaces.SnapshotStorage on badgerhold
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot ID is required")
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(snapshot.ID, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Debug().
		Str("snapshot_id", snapshot.ID).
		Str("session_id", snapshot.SessionID).
		Int("document_bytes", len(snapshot.Document)).
		Msg("Snapshot saved")
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	err := s.db.Store().Get(id, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, models.NewError(models.KindNotFound, "get snapshot", fmt.Errorf("snapshot %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SnapshotStorage) DeleteSnapshot(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Snapshot{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStorage) DeleteSessionSnapshots(ctx context.Context, sessionID string) error {
	if err := s.db.Store().DeleteMatching(&models.Snapshot{}, badgerhold.Where("SessionID").Eq(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotStorage) Close() error {
	return s.db.Close()
}
