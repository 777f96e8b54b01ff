package whiteboard

import (
	"strings"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/samber/lo"
)

type Stats struct {
	Total       int `json:"totalElements"`
	StickyNotes int `json:"stickyNotes"`
	Shapes      int `json:"shapes"`
	Connectors  int `json:"connectors"`
	Diagrams    int `json:"diagrams"`
	Links       int `json:"embeddedLinks"`
	Connections int `json:"connections"`
}

// Search matches query case-insensitively against the textual payload of each element.
func (s *Store) Search(query string) []domain.Element {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Element{}
	}
	return lo.FilterMap(s.elements, func(e domain.Element, _ int) (domain.Element, bool) {
		return e.Clone(), strings.Contains(strings.ToLower(searchable(e)), q)
	})
}

func searchable(e domain.Element) string {
	switch e.Kind {
	case domain.KindSticky:
		return e.Text
	case domain.KindShape:
		return e.Label
	case domain.KindDiagram:
		return e.DiagramCode
	case domain.KindLink:
		return e.URL
	default:
		return ""
	}
}

func (s *Store) Stats() Stats {
	byKind := lo.CountValuesBy(s.elements, func(e domain.Element) domain.Kind { return e.Kind })
	return Stats{
		Total:       len(s.elements),
		StickyNotes: byKind[domain.KindSticky],
		Shapes:      byKind[domain.KindShape],
		Connectors:  byKind[domain.KindConnector],
		Diagrams:    byKind[domain.KindDiagram],
		Links:       byKind[domain.KindLink],
		Connections: lo.SumBy(s.elements, func(e domain.Element) int { return len(e.Connections) }),
	}
}
