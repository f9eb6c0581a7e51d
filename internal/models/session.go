package models

import "time"

// TextRun is a positioned run of text extracted from a page, in PDF points
// measured from the top-left corner of the un-rotated page
type TextRun struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	FontSize float64 `json:"font_size"`
	Font     string  `json:"font,omitempty"`
}

// Viewport is the on-screen canvas a client reported for a page
type Viewport struct {
	CanvasWidth  float64     `json:"canvas_width"`
	CanvasHeight float64     `json:"canvas_height"`
	Box          BoundingBox `json:"box"`
}

// PageView describes one page in current display order
type PageView struct {
	Number      int             `json:"number"`   // 1-based position in the current order
	Original    int             `json:"original"` // 1-based index in the source document
	Rotation    int             `json:"rotation"`
	Size        PageSize        `json:"size"`
	Annotations PageAnnotations `json:"annotations"`
}

// SessionView is the read-only projection pushed to clients after every mutation
type SessionView struct {
	ID            string        `json:"id"`
	Filename      string        `json:"filename"`
	PageCount     int           `json:"page_count"`
	CurrentPage   int           `json:"current_page"`
	Pages         []PageView    `json:"pages"`
	Tool          Tool          `json:"tool"`
	Filter        FilterName    `json:"filter"`
	FilterPreview string        `json:"filter_preview,omitempty"` // CSS filter descriptor for the live view
	Gesture       GestureView   `json:"gesture"`
	CanUndo       bool          `json:"can_undo"`
	UndoDepth     int           `json:"undo_depth"`
	CanGoBack     bool          `json:"can_go_back"`
	CanGoForward  bool          `json:"can_go_forward"`
	Export        ExportState   `json:"export"`
	Version       uint64        `json:"version"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SessionSummary is a short listing entry
type SessionSummary struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	PageCount    int       `json:"page_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
