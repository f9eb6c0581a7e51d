package models

import "time"

// PageTransform is the page-edit state: display order of original page indices
// (1-based), clockwise rotation per original index and the current page pointer
type PageTransform struct {
	Order       []int       `json:"order"`
	Rotations   map[int]int `json:"rotations"`
	CurrentPage int         `json:"current_page"`
}

// IdentityTransform returns the transform of an unedited document with n pages
func IdentityTransform(n int) PageTransform {
	order := make([]int, n)
	for i := range order {
		order[i] = i + 1
	}
	current := 1
	if n == 0 {
		current = 0
	}
	return PageTransform{Order: order, Rotations: map[int]int{}, CurrentPage: current}
}

// Clone returns a deep copy
func (t PageTransform) Clone() PageTransform {
	out := PageTransform{
		Order:       append([]int(nil), t.Order...),
		Rotations:   make(map[int]int, len(t.Rotations)),
		CurrentPage: t.CurrentPage,
	}
	for k, v := range t.Rotations {
		out.Rotations[k] = v
	}
	return out
}

// Snapshot is a restorable copy of a session, taken before a destructive edit
type Snapshot struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	Reason      string        `json:"reason"`
	Base        []byte        `json:"-"` // Source document the transform indexes into
	Document    []byte        `json:"-"` // Page-edited document derived from Base
	Annotations AnnotationSet `json:"annotations"`
	Pages       PageTransform `json:"pages"`
	Filter      FilterName    `json:"filter"`
	CreatedAt   time.Time     `json:"created_at"`
}
