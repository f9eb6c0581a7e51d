package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// formatSession formats a session view as markdown
func formatSession(view models.SessionView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", view.Filename))
	sb.WriteString(fmt.Sprintf("**Session:** %s\n", view.ID))
	sb.WriteString(fmt.Sprintf("**Pages:** %d (current %d)\n", view.PageCount, view.CurrentPage))
	if view.Filter != "" {
		sb.WriteString(fmt.Sprintf("**Filter:** %s\n", view.Filter))
	}
	sb.WriteString(fmt.Sprintf("**Undo depth:** %d\n", view.UndoDepth))
	if view.Export.Status != "" && view.Export.Status != models.ExportIdle {
		sb.WriteString(fmt.Sprintf("**Export:** %s\n", view.Export.Status))
	}
	sb.WriteString("\n")

	sb.WriteString("| Page | Source | Rotation | Size | Text | Highlights | Drawings | Signatures |\n")
	sb.WriteString("|------|--------|----------|------|------|------------|----------|------------|\n")
	for _, p := range view.Pages {
		a := p.Annotations
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.0fx%.0f | %d | %d | %d | %d |\n",
			p.Number, p.Original, p.Rotation, p.Size.Width, p.Size.Height,
			len(a.Texts), len(a.Highlights), len(a.Drawings), len(a.Signatures)))
	}

	for _, p := range view.Pages {
		a := p.Annotations
		if len(a.Texts)+len(a.Highlights)+len(a.Drawings)+len(a.Signatures) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n### Page %d\n", p.Number))
		for _, t := range a.Texts {
			sb.WriteString(fmt.Sprintf("- text `%s` at (%.0f, %.0f): %q\n", t.ID, t.Position.X, t.Position.Y, t.Content))
		}
		for _, h := range a.Highlights {
			sb.WriteString(fmt.Sprintf("- highlight `%s`\n", h.ID))
		}
		for _, d := range a.Drawings {
			sb.WriteString(fmt.Sprintf("- drawing `%s` (%d points)\n", d.ID, len(d.Points)))
		}
		for _, s := range a.Signatures {
			sb.WriteString(fmt.Sprintf("- signature `%s` at (%.0f, %.0f)\n", s.ID, s.Position.X, s.Position.Y))
		}
	}

	return sb.String()
}

// formatSessionList formats open sessions as markdown
func formatSessionList(sessions []models.SessionSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Open Sessions (%d)\n\n", len(sessions)))

	if len(sessions) == 0 {
		sb.WriteString("No open sessions.\n")
		return sb.String()
	}

	for _, s := range sessions {
		sb.WriteString(fmt.Sprintf("- **%s** `%s`: %d pages, last active %s\n",
			s.Filename, s.ID, s.PageCount, s.LastActivity.Format(time.RFC3339)))
	}
	return sb.String()
}

func formatExport(path string, res *models.ExportResult) string {
	return fmt.Sprintf("Exported %s (%s, %d bytes)", path, res.ContentType, len(res.Data))
}
