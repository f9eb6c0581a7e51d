package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a unique editor session ID with the "ses_" prefix
func NewSessionID() string {
	return "ses_" + uuid.New().String()
}

// NewAnnotationID generates a unique annotation ID with the "ann_" prefix.
// IDs are random and never reused within a process.
func NewAnnotationID() string {
	return "ann_" + uuid.New().String()
}

// NewSnapshotID generates a unique undo snapshot ID with the "snap_" prefix
func NewSnapshotID() string {
	return "snap_" + uuid.New().String()
}
