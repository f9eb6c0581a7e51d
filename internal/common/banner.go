package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the settings that
// change editing behaviour
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("PDFDesk", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("address", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)).
		Str("undo_backend", config.Undo.Backend).
		Int("undo_capacity", config.Undo.Capacity).
		Bool("renumber_after_delete", config.Editor.RenumberAfterDelete).
		Bool("snapshot_export_state", config.Editor.SnapshotExportState).
		Msg("PDFDesk starting")
}
