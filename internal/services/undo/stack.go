package undo

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// DefaultCapacity is used when a non-positive capacity is given
const DefaultCapacity = 20

// Stack is a bounded LIFO of snapshots for one session. Snapshot bodies live in
// SnapshotStorage; the stack keeps their ids. When full, the oldest snapshot is
// evicted. Not safe for concurrent use.
type Stack struct {
	storage  interfaces.SnapshotStorage
	capacity int
	ids      []string
	logger   arbor.ILogger
}

// NewStack creates an empty stack
func NewStack(storage interfaces.SnapshotStorage, capacity int, logger arbor.ILogger) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{
		storage:  storage,
		capacity: capacity,
		logger:   logger,
	}
}

// Push stores a snapshot on top of the stack, assigning an id when missing
func (s *Stack) Push(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = common.NewSnapshotID()
	}
	if err := s.storage.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to push snapshot: %w", err)
	}
	s.ids = append(s.ids, snapshot.ID)

	for len(s.ids) > s.capacity {
		oldest := s.ids[0]
		s.ids = s.ids[1:]
		if err := s.storage.DeleteSnapshot(ctx, oldest); err != nil {
			s.logger.Warn().Err(err).Str("snapshot_id", oldest).Msg("Failed to delete evicted snapshot")
		}
		s.logger.Debug().Str("snapshot_id", oldest).Int("capacity", s.capacity).Msg("Evicted oldest snapshot")
	}
	return nil
}

// Pop removes and returns the most recent snapshot. An empty stack returns
// (nil, false, nil) and changes nothing.
func (s *Stack) Pop(ctx context.Context) (*models.Snapshot, bool, error) {
	if len(s.ids) == 0 {
		return nil, false, nil
	}
	id := s.ids[len(s.ids)-1]

	snapshot, err := s.storage.GetSnapshot(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	s.ids = s.ids[:len(s.ids)-1]
	if err := s.storage.DeleteSnapshot(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("snapshot_id", id).Msg("Failed to delete popped snapshot")
	}
	return snapshot, true, nil
}

// Len returns the number of snapshots on the stack
func (s *Stack) Len() int {
	return len(s.ids)
}

// Capacity returns the maximum depth
func (s *Stack) Capacity() int {
	return s.capacity
}

// CanUndo reports whether Pop would return a snapshot
func (s *Stack) CanUndo() bool {
	return len(s.ids) > 0
}

// Clear drops every snapshot
func (s *Stack) Clear(ctx context.Context) error {
	var firstErr error
	for _, id := range s.ids {
		if err := s.storage.DeleteSnapshot(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.ids = nil
	return firstErr
}
