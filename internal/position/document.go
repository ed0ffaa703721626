package position

import "fmt"

// Document is the serialized form of a Position.
type Document struct {
	Type    string  `json:"type" yaml:"type"`
	Anchor  string  `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	X       float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y       float64 `json:"y,omitempty" yaml:"y,omitempty"`
	OffsetX float64 `json:"offsetX,omitempty" yaml:"offsetX,omitempty"`
	OffsetY float64 `json:"offsetY,omitempty" yaml:"offsetY,omitempty"`
	RawX    string  `json:"rawX,omitempty" yaml:"rawX,omitempty"`
	RawY    string  `json:"rawY,omitempty" yaml:"rawY,omitempty"`
}

// Encode returns the document for p, or nil for a nil position.
func Encode(p Position) *Document {
	switch v := p.(type) {
	case nil:
		return nil
	case Named:
		return &Document{Type: "named", Anchor: string(v.Anchor), OffsetX: v.OffsetX, OffsetY: v.OffsetY}
	case Percent:
		return &Document{Type: "percent", X: v.X, Y: v.Y}
	case Absolute:
		return &Document{Type: "absolute", X: v.X, Y: v.Y}
	case Raw:
		return &Document{Type: "raw", RawX: v.X, RawY: v.Y}
	default:
		panic(fmt.Sprintf("position: unhandled variant %T", p))
	}
}

// Decode rebuilds a Position. A nil document decodes to a nil position.
func Decode(doc *Document) (Position, error) {
	if doc == nil {
		return nil, nil
	}
	switch doc.Type {
	case "named":
		return Named{Anchor: Anchor(doc.Anchor), OffsetX: doc.OffsetX, OffsetY: doc.OffsetY}, nil
	case "percent":
		return Percent{X: doc.X, Y: doc.Y}, nil
	case "absolute":
		return Absolute{X: doc.X, Y: doc.Y}, nil
	case "raw":
		return Raw{X: doc.RawX, Y: doc.RawY}, nil
	case "":
		// Shorthand documents such as {"anchor": "center"}.
		if doc.Anchor != "" {
			return Parse(doc.Anchor), nil
		}
		return nil, fmt.Errorf("position document missing type")
	default:
		return nil, fmt.Errorf("unknown position type %q", doc.Type)
	}
}
