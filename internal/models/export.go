package models

import "time"

// ExportStatus is the state of the export pipeline
type ExportStatus string

const (
	ExportIdle       ExportStatus = "idle"
	ExportProcessing ExportStatus = "processing"
	ExportDone       ExportStatus = "done"
	ExportFailed     ExportStatus = "failed"
)

// ExportFormat selects the export output
type ExportFormat string

const (
	ExportPDF    ExportFormat = "pdf"
	ExportImages ExportFormat = "images" // one PNG, or a ZIP of PNGs for several pages
)

// ExportRequest describes one export run
type ExportRequest struct {
	Format   ExportFormat `json:"format" validate:"omitempty,oneof=pdf images"`
	Filename string       `json:"filename"`
	Pages    []int        `json:"pages,omitempty"`   // Current page numbers for image export; empty means all
	Flatten  *bool        `json:"flatten,omitempty"` // PDF only; nil flattens when there is something to flatten
}

// ExportResult is a finished export artifact
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// ExportState is the projection of the export pipeline for one session
type ExportState struct {
	Status      ExportStatus `json:"status"`
	Format      ExportFormat `json:"format,omitempty"`
	Filename    string       `json:"filename,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	Size        int          `json:"size,omitempty"`
	Error       string       `json:"error,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
}

// Busy reports whether an export is running
func (s ExportState) Busy() bool {
	return s.Status == ExportProcessing
}
