package domain

import "slices"

type Kind string

const (
	KindSticky    Kind = "sticky"
	KindShape     Kind = "shape"
	KindConnector Kind = "connector"
	KindDiagram   Kind = "diagram"
	KindLink      Kind = "link"
)

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeDiamond   ShapeKind = "diamond"
	ShapeCircle    ShapeKind = "circle"
	ShapeEllipse   ShapeKind = "ellipse"
)

type EmbedType string

const (
	EmbedIframe EmbedType = "iframe"
	EmbedVideo  EmbedType = "video"
)

// Element is one artifact on the whiteboard. Which payload fields are
// meaningful depends on Kind.
type Element struct {
	ID   string  `json:"id" yaml:"id" validate:"required,max=200"`
	Kind Kind    `json:"type" yaml:"type" validate:"required,oneof=sticky shape connector diagram link"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`

	// sticky
	Text  string `json:"text,omitempty" yaml:"text,omitempty" validate:"required_if=Kind sticky"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`

	// shape
	Label string    `json:"label,omitempty" yaml:"label,omitempty" validate:"required_if=Kind shape"`
	Shape ShapeKind `json:"shape,omitempty" yaml:"shape,omitempty" validate:"omitempty,oneof=rectangle diamond circle ellipse"`

	// connector
	Connections []string `json:"connections,omitempty" yaml:"connections,omitempty" validate:"omitempty,dive,required"`

	// diagram
	DiagramCode string `json:"mermaidCode,omitempty" yaml:"mermaidCode,omitempty" validate:"required_if=Kind diagram"`

	// link
	URL       string    `json:"url,omitempty" yaml:"url,omitempty" validate:"required_if=Kind link,omitempty,url"`
	EmbedType EmbedType `json:"embedType,omitempty" yaml:"embedType,omitempty" validate:"omitempty,oneof=iframe video"`
}

// WithDefaults fills the optional payload fields the renderer expects.
func (e Element) WithDefaults() Element {
	switch e.Kind {
	case KindSticky:
		if e.Color == "" {
			e.Color = "yellow"
		}
	case KindShape:
		if e.Shape == "" {
			e.Shape = ShapeRectangle
		}
	case KindLink:
		if e.EmbedType == "" {
			e.EmbedType = EmbedIframe
		}
	}
	return e
}

func (e Element) Clone() Element {
	e.Connections = slices.Clone(e.Connections)
	return e
}

// References reports whether e is a connector pointing at id.
func (e Element) References(id string) bool {
	return e.Kind == KindConnector && slices.Contains(e.Connections, id)
}

// ElementPatch carries a partial update; nil fields are left unchanged.
type ElementPatch struct {
	X           *float64   `json:"x,omitempty"`
	Y           *float64   `json:"y,omitempty"`
	Text        *string    `json:"text,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Label       *string    `json:"label,omitempty"`
	Shape       *ShapeKind `json:"shape,omitempty"`
	Connections *[]string  `json:"connections,omitempty"`
	DiagramCode *string    `json:"mermaidCode,omitempty"`
	URL         *string    `json:"url,omitempty"`
	EmbedType   *EmbedType `json:"embedType,omitempty"`
}

// Apply returns a copy of e with every present patch field applied.
func (p ElementPatch) Apply(e Element) Element {
	out := e.Clone()
	if p.X != nil {
		out.X = *p.X
	}
	if p.Y != nil {
		out.Y = *p.Y
	}
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Color != nil {
		out.Color = *p.Color
	}
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.Shape != nil {
		out.Shape = *p.Shape
	}
	if p.Connections != nil {
		out.Connections = slices.Clone(*p.Connections)
	}
	if p.DiagramCode != nil {
		out.DiagramCode = *p.DiagramCode
	}
	if p.URL != nil {
		out.URL = *p.URL
	}
	if p.EmbedType != nil {
		out.EmbedType = *p.EmbedType
	}
	return out
}

// WhiteboardData is the board as sent to clients, in display order.
type WhiteboardData struct {
	Elements []Element `json:"elements"`
}
