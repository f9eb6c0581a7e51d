package models

import (
	"fmt"
	"strings"
)

// FilterName is one of the fixed set of page filters
type FilterName string

const (
	FilterNone      FilterName = "none"
	FilterGrayscale FilterName = "grayscale"
	FilterSepia     FilterName = "sepia"
	FilterBrighten  FilterName = "brighten"
	FilterDarken    FilterName = "darken"
)

// FilterNames lists the selectable filters
var FilterNames = []FilterName{FilterNone, FilterGrayscale, FilterSepia, FilterBrighten, FilterDarken}

// ParseFilterName validates a filter name. Empty and "remove" select FilterNone.
func ParseFilterName(s string) (FilterName, error) {
	switch n := FilterName(strings.ToLower(strings.TrimSpace(s))); n {
	case "", "remove":
		return FilterNone, nil
	case FilterNone, FilterGrayscale, FilterSepia, FilterBrighten, FilterDarken:
		return n, nil
	default:
		return "", NewError(KindInvalidInput, "parse filter", fmt.Errorf("unknown filter %q", s))
	}
}

// Active reports whether the filter changes pixels
func (f FilterName) Active() bool {
	return f != "" && f != FilterNone
}
