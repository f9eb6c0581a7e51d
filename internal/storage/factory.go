package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/storage/badger"
	"github.com/ternarybob/pdfdesk/internal/storage/memory"
)

// NewSnapshotStorage creates the undo snapshot store selected by config
func NewSnapshotStorage(logger arbor.ILogger, config *common.UndoConfig) (interfaces.SnapshotStorage, error) {
	switch config.Backend {
	case "memory":
		logger.Debug().Msg("Using in-process map for undo snapshots")
		return memory.NewSnapshotStorage(), nil
	case "badger", "":
		db, err := badger.NewBadgerDB(logger, config)
		if err != nil {
			return nil, err
		}
		return badger.NewSnapshotStorage(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported undo backend: %s (expected 'badger' or 'memory')", config.Backend)
	}
}
