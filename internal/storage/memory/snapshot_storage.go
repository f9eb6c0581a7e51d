package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// SnapshotStorage keeps snapshots in a map. Used in tests and when the
// undo backend is "memory".
type SnapshotStorage struct {
	mu        sync.RWMutex
	snapshots map[string]*models.Snapshot
}

// NewSnapshotStorage creates an empty store
func NewSnapshotStorage() interfaces.SnapshotStorage {
	return &SnapshotStorage{snapshots: make(map[string]*models.Snapshot)}
}

func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("snapshot ID is required")
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	cp := *snapshot
	cp.Annotations = snapshot.Annotations.Clone()
	cp.Pages = snapshot.Pages.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.ID] = &cp
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "get snapshot", fmt.Errorf("snapshot %s not found", id))
	}
	cp := *snapshot
	cp.Annotations = snapshot.Annotations.Clone()
	cp.Pages = snapshot.Pages.Clone()
	return &cp, nil
}

func (s *SnapshotStorage) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

func (s *SnapshotStorage) DeleteSessionSnapshots(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snapshot := range s.snapshots {
		if snapshot.SessionID == sessionID {
			delete(s.snapshots, id)
		}
	}
	return nil
}

// Len returns the number of stored snapshots
func (s *SnapshotStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func (s *SnapshotStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string]*models.Snapshot)
	return nil
}
