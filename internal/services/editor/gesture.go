package editor

import (
	"github.com/ternarybob/pdfdesk/internal/models"
)

// gesture is the in-progress pointer interaction of the active tool. Only
// one gesture exists at a time; switching tools or pages cancels it.
type gesture struct {
	active bool
	page   int

	// highlight drag
	start models.Point
	last  models.Point

	// ink stroke
	points []models.Point

	// text placement waiting for content
	pendingText *models.Point
	pendingPage int

	// move drag: the pointer offset from the annotation anchor
	moveKind   models.AnnotationKind
	moveID     string
	moveOffset models.Point
}

func (g *gesture) reset() {
	*g = gesture{}
}

func (g *gesture) view(tool models.ToolKind) models.GestureView {
	v := models.GestureView{
		Tool:         tool,
		Active:       g.active,
		MovingTarget: g.moveID,
	}
	if g.active || g.pendingText != nil {
		v.Page = g.page
	}
	if g.pendingText != nil {
		p := *g.pendingText
		v.PendingText = &p
		v.Page = g.pendingPage
	}
	if g.active && tool == models.ToolHighlight {
		r := models.NormalizeRect(g.start, g.last)
		v.PreviewRect = &r
	}
	if g.active && tool == models.ToolDraw {
		v.PreviewInk = append([]models.Point(nil), g.points...)
	}
	return v
}

// gestureResult is what a pointer event asks the session to do
type gestureResult struct {
	action gestureAction
	page   int

	from, to models.Point
	points   []models.Point
	at       models.Point

	kind models.AnnotationKind
	id   string
}

type gestureAction int

const (
	actionNone gestureAction = iota
	actionChanged
	actionAddHighlight
	actionAddDrawing
	actionPlaceSignature
	actionMove
	actionRemove
	actionReset
)

// handle advances the state machine of tool with one event at page-local
// point p on page. anchorOf resolves the anchor of a target annotation for
// move drags.
func (g *gesture) handle(tool models.Tool, ev models.PointerEvent, p models.Point, page int, anchorOf func(id string) (models.Annotation, bool)) gestureResult {
	if ev.Type == models.PointerContextMenu {
		g.reset()
		return gestureResult{action: actionReset}
	}

	// a drag started on another page is abandoned
	if g.active && g.page != page {
		g.reset()
	}

	switch tool.Kind {
	case models.ToolAddText:
		if ev.Type != models.PointerClick || g.pendingText != nil {
			return gestureResult{}
		}
		at := p
		g.pendingText = &at
		g.pendingPage = page
		return gestureResult{action: actionChanged}

	case models.ToolHighlight:
		switch ev.Type {
		case models.PointerDown:
			g.active, g.page, g.start, g.last = true, page, p, p
			return gestureResult{action: actionChanged}
		case models.PointerMove:
			if !g.active {
				return gestureResult{}
			}
			g.last = p
			return gestureResult{action: actionChanged}
		case models.PointerUp:
			if !g.active {
				return gestureResult{}
			}
			from := g.start
			g.reset()
			r := models.NormalizeRect(from, p)
			if r.Width == 0 || r.Height == 0 {
				return gestureResult{action: actionChanged}
			}
			return gestureResult{action: actionAddHighlight, page: page, from: from, to: p}
		}

	case models.ToolDraw:
		switch ev.Type {
		case models.PointerDown:
			g.active, g.page = true, page
			g.points = []models.Point{p}
			return gestureResult{action: actionChanged}
		case models.PointerMove:
			if !g.active {
				return gestureResult{}
			}
			g.points = append(g.points, p)
			return gestureResult{action: actionChanged}
		case models.PointerUp:
			if !g.active {
				return gestureResult{}
			}
			points := append(g.points, p)
			g.reset()
			if len(points) < 2 {
				return gestureResult{action: actionChanged}
			}
			return gestureResult{action: actionAddDrawing, page: page, points: points}
		}

	case models.ToolSignature:
		if ev.Type == models.PointerClick {
			return gestureResult{action: actionPlaceSignature, page: page, at: p}
		}

	case models.ToolMove:
		switch ev.Type {
		case models.PointerDown:
			if ev.TargetID == "" {
				return gestureResult{}
			}
			a, ok := anchorOf(ev.TargetID)
			if !ok {
				return gestureResult{}
			}
			g.active, g.page = true, page
			g.moveKind, g.moveID = a.Kind(), a.AnnotationID()
			g.moveOffset = p.Sub(a.Anchor())
			return gestureResult{action: actionChanged}
		case models.PointerMove, models.PointerUp:
			if !g.active {
				return gestureResult{}
			}
			res := gestureResult{action: actionMove, kind: g.moveKind, id: g.moveID, at: p.Sub(g.moveOffset)}
			if ev.Type == models.PointerUp {
				g.reset()
			}
			return res
		}

	case models.ToolDelete, models.ToolErase:
		if ev.Type == models.PointerClick && ev.TargetID != "" {
			return gestureResult{action: actionRemove, kind: ev.TargetKind, id: ev.TargetID}
		}
	}

	// none, reorder and filter modes ignore the pointer
	return gestureResult{}
}
