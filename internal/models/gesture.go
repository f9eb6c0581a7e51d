package models

// PointerEventType is the kind of pointer input forwarded by the client
type PointerEventType string

const (
	PointerDown        PointerEventType = "down"
	PointerMove        PointerEventType = "move"
	PointerUp          PointerEventType = "up"
	PointerClick       PointerEventType = "click"
	PointerContextMenu PointerEventType = "context_menu"
)

// PointerEvent is one pointer input in client coordinates. TargetID names the
// annotation under the pointer, when there is one.
type PointerEvent struct {
	Type       PointerEventType `json:"type" validate:"required,oneof=down move up click context_menu"`
	ClientX    float64          `json:"client_x"`
	ClientY    float64          `json:"client_y"`
	TargetID   string           `json:"target_id,omitempty"`
	TargetKind AnnotationKind   `json:"target_kind,omitempty"`
}

// GestureView is the in-progress gesture, exposed for live previews
type GestureView struct {
	Tool         ToolKind `json:"tool"`
	Active       bool     `json:"active"`
	Page         int      `json:"page,omitempty"`
	PendingText  *Point   `json:"pending_text,omitempty"`
	PreviewRect  *Rect    `json:"preview_rect,omitempty"`
	PreviewInk   []Point  `json:"preview_ink,omitempty"`
	MovingTarget string   `json:"moving_target,omitempty"`
}
