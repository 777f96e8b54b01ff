package whiteboard

import (
	"testing"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func sticky(id, text string) domain.Element {
	return domain.Element{ID: id, Kind: domain.KindSticky, X: 10, Y: 20, Text: text}
}

func shape(id, label string) domain.Element {
	return domain.Element{ID: id, Kind: domain.KindShape, Label: label}
}

func connector(id string, ends ...string) domain.Element {
	return domain.Element{ID: id, Kind: domain.KindConnector, Connections: ends}
}

func TestStore_Append(t *testing.T) {
	req := require.New(t)
	s := New()

	got, err := s.Append(sticky("n1", "hello"))
	req.NoError(err)
	req.Equal("yellow", got.Color, "default color applied")

	_, err = s.Append(sticky("n1", "again"))
	req.ErrorIs(err, domain.ErrDuplicateID)
	req.Equal(1, s.Len())
}

func TestStore_Append_Validation(t *testing.T) {
	tests := []struct {
		name string
		el   domain.Element
	}{
		{name: "missing id", el: domain.Element{Kind: domain.KindSticky, Text: "x"}},
		{name: "unknown kind", el: domain.Element{ID: "a", Kind: "blob"}},
		{name: "sticky without text", el: domain.Element{ID: "a", Kind: domain.KindSticky}},
		{name: "shape without label", el: domain.Element{ID: "a", Kind: domain.KindShape}},
		{name: "bad shape", el: domain.Element{ID: "a", Kind: domain.KindShape, Label: "x", Shape: "hexagon"}},
		{name: "diagram without code", el: domain.Element{ID: "a", Kind: domain.KindDiagram}},
		{name: "link without url", el: domain.Element{ID: "a", Kind: domain.KindLink}},
		{name: "link with bad url", el: domain.Element{ID: "a", Kind: domain.KindLink, URL: "not a url"}},
		{name: "connector to nowhere", el: connector("c", "ghost")},
		{name: "sticky with connections", el: domain.Element{ID: "a", Kind: domain.KindSticky, Text: "x", Connections: []string{"b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			_, err := s.Append(tt.el)
			require.ErrorIs(t, err, domain.ErrInvalidElement)
			require.Zero(t, s.Len())
		})
	}
}

func TestStore_FindReturnsCopy(t *testing.T) {
	req := require.New(t)
	s := New()
	_, err := s.Append(shape("a", "A"))
	req.NoError(err)
	_, err = s.Append(connector("c", "a"))
	req.NoError(err)

	got, err := s.Find("c")
	req.NoError(err)
	got.Connections[0] = "mutated"

	again, err := s.Find("c")
	req.NoError(err)
	req.Equal([]string{"a"}, again.Connections)

	_, err = s.Find("missing")
	req.ErrorIs(err, domain.ErrNotFound)
}

func TestStore_UpdatePartial(t *testing.T) {
	req := require.New(t)
	s := New()
	_, err := s.Append(domain.Element{ID: "n", Kind: domain.KindSticky, X: 1, Y: 2, Text: "old", Color: "blue"})
	req.NoError(err)

	text := "new"
	x := 99.0
	got, err := s.Update("n", domain.ElementPatch{Text: &text, X: &x})
	req.NoError(err)
	req.Equal("new", got.Text)
	req.Equal(99.0, got.X)
	req.Equal(2.0, got.Y, "untouched field kept")
	req.Equal("blue", got.Color, "untouched field kept")

	_, err = s.Update("missing", domain.ElementPatch{Text: &text})
	req.ErrorIs(err, domain.ErrNotFound)

	empty := ""
	_, err = s.Update("n", domain.ElementPatch{Text: &empty})
	req.ErrorIs(err, domain.ErrInvalidElement)
	current, _ := s.Find("n")
	req.Equal("new", current.Text, "failed update leaves element unchanged")
}

func TestStore_RemoveReferencedFails(t *testing.T) {
	req := require.New(t)
	s := New()
	for _, e := range []domain.Element{shape("a", "A"), shape("b", "B"), connector("c", "a", "b")} {
		_, err := s.Append(e)
		req.NoError(err)
	}

	// Given a connector pointing at a and b
	// When a is removed
	err := s.Remove("a")

	// Then the removal is rejected and the connector is untouched
	req.ErrorIs(err, domain.ErrDanglingReference)
	req.Equal(3, s.Len())
	c, err := s.Find("c")
	req.NoError(err)
	req.Equal([]string{"a", "b"}, c.Connections)

	// Removing the connector first frees the endpoints
	req.NoError(s.Remove("c"))
	req.NoError(s.Remove("a"))
	req.ErrorIs(s.Remove("a"), domain.ErrNotFound)

	ids := make([]string, 0)
	for _, e := range s.Elements() {
		ids = append(ids, e.ID)
	}
	req.Equal([]string{"b"}, ids)
	_, err = s.Find("b")
	req.NoError(err, "index rebuilt after removal")
}

func TestStore_ConnectDisconnect(t *testing.T) {
	req := require.New(t)
	s := New()
	for _, e := range []domain.Element{shape("a", "A"), sticky("n", "note"), connector("c")} {
		_, err := s.Append(e)
		req.NoError(err)
	}

	added, err := s.Connect("c", "a")
	req.NoError(err)
	req.True(added)

	added, err = s.Connect("c", "a")
	req.NoError(err)
	req.False(added, "idempotent")

	_, err = s.Connect("n", "a")
	req.ErrorIs(err, domain.ErrInvalidElement, "only connectors connect")

	_, err = s.Connect("c", "ghost")
	req.ErrorIs(err, domain.ErrNotFound)

	removed, err := s.Disconnect("c", "a")
	req.NoError(err)
	req.True(removed)
	req.NoError(s.Remove("a"), "no longer referenced")
}

func TestStore_ReplaceAllOrNothing(t *testing.T) {
	req := require.New(t)
	s := New()
	_, err := s.Append(sticky("keep", "me"))
	req.NoError(err)

	err = s.Replace([]domain.Element{connector("c", "a"), shape("a", "A"), sticky("a", "dup")})
	req.ErrorIs(err, domain.ErrDuplicateID)
	req.Equal(1, s.Len())

	req.NoError(s.Replace([]domain.Element{connector("c", "a"), shape("a", "A")}))
	req.Equal(2, s.Len())
	_, err = s.Find("keep")
	req.ErrorIs(err, domain.ErrNotFound)

	s.Clear()
	req.Zero(s.Len())
}

func TestStore_CloneIsIndependent(t *testing.T) {
	req := require.New(t)
	s := New()
	_, err := s.Append(sticky("a", "x"))
	req.NoError(err)

	c := s.Clone()
	_, err = c.Append(sticky("b", "y"))
	req.NoError(err)

	req.Equal(1, s.Len())
	req.Equal(2, c.Len())
}

func TestStore_SearchAndStats(t *testing.T) {
	req := require.New(t)
	s := New()
	for _, e := range []domain.Element{
		sticky("n1", "Deploy BLOCKER"),
		shape("s1", "Blocker review"),
		shape("s2", "Done"),
		{ID: "d1", Kind: domain.KindDiagram, DiagramCode: "graph TD; A-->B"},
		{ID: "l1", Kind: domain.KindLink, URL: "https://example.com/blocker"},
		connector("c1", "s1", "s2"),
	} {
		_, err := s.Append(e)
		req.NoError(err)
	}

	found := s.Search("blocker")
	req.Len(found, 3)
	req.Empty(s.Search("  "))

	st := s.Stats()
	req.Equal(Stats{Total: 6, StickyNotes: 1, Shapes: 2, Connectors: 1, Diagrams: 1, Links: 1, Connections: 2}, st)
}
