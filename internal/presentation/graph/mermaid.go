package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pageflow/pkg/domain"
)

// GraphOverlay contains session state to visualize on the graph.
type GraphOverlay struct {
	VisitedPages []domain.PageID
	CurrentPage  domain.PageID
}

// OverlayFromSnapshot marks the pages in a session's history as visited.
func OverlayFromSnapshot(snap *domain.Snapshot) *GraphOverlay {
	overlay := &GraphOverlay{CurrentPage: snap.CurrentPage}
	for _, e := range snap.Entries {
		if e.PageID != "" {
			overlay.VisitedPages = append(overlay.VisitedPages, e.PageID)
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of the site map.
// The landing page is drawn as a circle, pages that failed to load are flagged,
// and links leaving the app point at a shared "external" node with dotted arrows.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(m SiteMap, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, page := range m.Pages {
		safeID := sanitizeMermaidID(string(page.ID))
		opener, closer := "[", "]"
		if page.ID == m.Landing {
			opener, closer = "((", "))"
		}

		label := fmt.Sprintf("%s <br/> %s", page.ID, page.Location)
		if _, broken := m.Broken[page.ID]; broken {
			label += " <br/> ⚠️ unreachable"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range m.Edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(string(e.From)), sanitizeMermaidID(string(e.To))))
	}

	if len(m.External) > 0 {
		sb.WriteString("    external{{\"external\"}}\n")
		for _, page := range m.Pages {
			for _, href := range m.External[page.ID] {
				safeHref := strings.ReplaceAll(href, "\"", "'")
				sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> external\n", sanitizeMermaidID(string(page.ID)), safeHref))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedPages {
			safeID := sanitizeMermaidID(string(id))
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentPage != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentPage))))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
