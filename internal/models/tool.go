package models

import "fmt"

// ToolKind names the active interaction mode
type ToolKind string

const (
	ToolNone      ToolKind = "none"
	ToolAddText   ToolKind = "add_text"
	ToolHighlight ToolKind = "highlight"
	ToolDraw      ToolKind = "draw"
	ToolSignature ToolKind = "signature"
	ToolMove      ToolKind = "move"
	ToolDelete    ToolKind = "delete"
	ToolErase     ToolKind = "erase"
	ToolReorder   ToolKind = "reorder"
	ToolFilter    ToolKind = "filter"
)

// Tool is the single active mode. Filter is only meaningful when Kind is
// ToolFilter. Color, when set, is a normalized #rrggbb used by the pointer
// for new highlights, strokes and text.
type Tool struct {
	Kind   ToolKind   `json:"kind"`
	Filter FilterName `json:"filter,omitempty"`
	Color  string     `json:"color,omitempty"`
}

// NoTool returns the idle mode
func NoTool() Tool {
	return Tool{Kind: ToolNone}
}

// FilterTool returns the filter-selection mode previewing f
func FilterTool(f FilterName) Tool {
	return Tool{Kind: ToolFilter, Filter: f}
}

// ParseTool builds a Tool from its kind name, a filter name for the filter
// mode and an optional color for the annotating modes
func ParseTool(kind string, filter string, color string) (Tool, error) {
	switch k := ToolKind(kind); k {
	case "", ToolNone:
		return NoTool(), nil
	case ToolAddText, ToolHighlight, ToolDraw:
		tool := Tool{Kind: k}
		if color != "" {
			c, err := ParseColor(color)
			if err != nil {
				return Tool{}, err
			}
			tool.Color = c.String()
		}
		return tool, nil
	case ToolSignature, ToolMove, ToolDelete, ToolErase, ToolReorder:
		return Tool{Kind: k}, nil
	case ToolFilter:
		f, err := ParseFilterName(filter)
		if err != nil {
			return Tool{}, err
		}
		return FilterTool(f), nil
	default:
		return Tool{}, NewError(KindInvalidInput, "parse tool", fmt.Errorf("unknown tool %q", kind))
	}
}

// ColorOr returns the tool color, or fallback when none is set
func (t Tool) ColorOr(fallback Color) (Color, error) {
	return ParseColorOr(t.Color, fallback)
}

// TargetsAnnotations reports whether clicks in this mode act on an existing annotation
func (t Tool) TargetsAnnotations() bool {
	return t.Kind == ToolMove || t.Kind == ToolDelete || t.Kind == ToolErase
}
