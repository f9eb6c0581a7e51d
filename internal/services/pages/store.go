package pages

import (
	"fmt"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// Store tracks the display order of original pages, their rotations and the
// current page. Page numbers passed in are 1-based positions in the current
// order; original indices are 1-based positions in the source document.
// Not safe for concurrent use.
type Store struct {
	order     []int
	rotations map[int]int
	current   int
}

// NewStore creates the identity transform for a document with pageCount pages
func NewStore(pageCount int) *Store {
	s := &Store{}
	s.Restore(models.IdentityTransform(pageCount))
	return s
}

// PageCount returns the number of pages in the current order
func (s *Store) PageCount() int {
	return len(s.order)
}

// CurrentPage returns the 1-based current page
func (s *Store) CurrentPage() int {
	return s.current
}

// SetCurrentPage moves the page pointer
func (s *Store) SetCurrentPage(page int) error {
	if err := s.check("set current page", page); err != nil {
		return err
	}
	s.current = page
	return nil
}

// Resolve turns 0 into the current page and validates anything else
func (s *Store) Resolve(page int) (int, error) {
	if page == 0 {
		page = s.current
	}
	if err := s.check("resolve page", page); err != nil {
		return 0, err
	}
	return page, nil
}

// Original returns the source index shown at a page position
func (s *Store) Original(page int) (int, error) {
	if err := s.check("original page", page); err != nil {
		return 0, err
	}
	return s.order[page-1], nil
}

// Order returns a copy of the current order of original indices
func (s *Store) Order() []int {
	return append([]int(nil), s.order...)
}

// Rotation returns the rotation of the page at a position
func (s *Store) Rotation(page int) int {
	if page < 1 || page > len(s.order) {
		return 0
	}
	return s.rotations[s.order[page-1]]
}

// RotationOf returns the rotation stored for an original index
func (s *Store) RotationOf(original int) int {
	return s.rotations[original]
}

// Rotate turns a page a quarter clockwise and returns its new angle
func (s *Store) Rotate(page int) (int, error) {
	if err := s.check("rotate page", page); err != nil {
		return 0, err
	}
	orig := s.order[page-1]
	s.rotations[orig] = (s.rotations[orig] + 90) % 360
	return s.rotations[orig], nil
}

// SetOrder rearranges the pages. newOrder lists current page positions in their
// new sequence, so [3,1,2] puts the current third page first. It must be a
// permutation of 1..PageCount; anything else is refused without change.
// The returned map sends each old position to its new position.
func (s *Store) SetOrder(newOrder []int) (map[int]int, error) {
	if len(newOrder) != len(s.order) {
		return nil, models.NewError(models.KindRefused, "set order",
			fmt.Errorf("order has %d pages, document has %d", len(newOrder), len(s.order)))
	}
	seen := make(map[int]bool, len(newOrder))
	for _, p := range newOrder {
		if p < 1 || p > len(s.order) || seen[p] {
			return nil, models.NewError(models.KindRefused, "set order",
				fmt.Errorf("order %v is not a permutation of 1..%d", newOrder, len(s.order)))
		}
		seen[p] = true
	}

	mapping := make(map[int]int, len(newOrder))
	reordered := make([]int, len(newOrder))
	for newPos, oldPos := range newOrder {
		reordered[newPos] = s.order[oldPos-1]
		mapping[oldPos] = newPos + 1
	}
	s.order = reordered
	s.current = mapping[s.current]
	return mapping, nil
}

// DeletePage removes a page from the order. The last remaining page cannot be
// deleted. The current page is clamped into the new range.
func (s *Store) DeletePage(page int) error {
	if len(s.order) <= 1 {
		return models.NewError(models.KindRefused, "delete page", fmt.Errorf("a document must keep at least one page"))
	}
	if err := s.check("delete page", page); err != nil {
		return err
	}

	s.order = append(s.order[:page-1:page-1], s.order[page:]...)
	if s.current > len(s.order) {
		s.current = len(s.order)
	}
	if s.current < 1 {
		s.current = 1
	}
	return nil
}

// IsIdentity reports whether the order and rotations match the source document
func (s *Store) IsIdentity(sourcePages int) bool {
	if len(s.order) != sourcePages {
		return false
	}
	for i, orig := range s.order {
		if orig != i+1 || s.rotations[orig] != 0 {
			return false
		}
	}
	return true
}

// Transform returns a copy of the state
func (s *Store) Transform() models.PageTransform {
	return models.PageTransform{
		Order:       s.Order(),
		Rotations:   s.rotationsCopy(),
		CurrentPage: s.current,
	}
}

// Restore replaces the state with a copy of t
func (s *Store) Restore(t models.PageTransform) {
	t = t.Clone()
	s.order = t.Order
	s.rotations = t.Rotations
	if s.rotations == nil {
		s.rotations = map[int]int{}
	}
	s.current = t.CurrentPage
}

func (s *Store) rotationsCopy() map[int]int {
	out := make(map[int]int, len(s.rotations))
	for k, v := range s.rotations {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

func (s *Store) check(op string, page int) error {
	if page < 1 || page > len(s.order) {
		return models.NewError(models.KindInvalidInput, op, fmt.Errorf("page %d out of range 1..%d", page, len(s.order)))
	}
	return nil
}
