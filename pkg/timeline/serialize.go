package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"reelcraft/internal/effects"
	"reelcraft/internal/position"
)

// Document is the stored form of a Timeline. Derived values such as the
// duration and layer order are not stored.
type Document struct {
	Layers        []LayerDocument `json:"layers" yaml:"layers"`
	GlobalOptions GlobalOptions   `json:"globalOptions" yaml:"globalOptions"`
}

// LayerDocument is the stored form of a Layer.
type LayerDocument struct {
	Kind          Kind                `json:"kind" yaml:"kind"`
	Source        string              `json:"source,omitempty" yaml:"source,omitempty"`
	Start         float64             `json:"startTime" yaml:"startTime"`
	Duration      float64             `json:"duration,omitempty" yaml:"duration,omitempty"`
	Position      *position.Document  `json:"position,omitempty" yaml:"position,omitempty"`
	Style         Style               `json:"style,omitzero" yaml:"style,omitempty"`
	Effects       []EffectSpec        `json:"effects,omitempty" yaml:"effects,omitempty"`
	TransitionIn  *effects.Transition `json:"transitionIn,omitempty" yaml:"transitionIn,omitempty"`
	TransitionOut *effects.Transition `json:"transitionOut,omitempty" yaml:"transitionOut,omitempty"`
	Composite     *Composite          `json:"composite,omitempty" yaml:"composite,omitempty"`
}

// wireDocument tells a missing layers key apart from an empty list.
type wireDocument struct {
	Layers        *[]LayerDocument `json:"layers" yaml:"layers"`
	GlobalOptions *GlobalOptions   `json:"globalOptions" yaml:"globalOptions"`
}

func encodeLayer(l Layer) LayerDocument {
	l = l.clone()
	return LayerDocument{
		Kind:          l.Kind,
		Source:        l.Source,
		Start:         l.Start,
		Duration:      l.Duration,
		Position:      position.Encode(l.Position),
		Style:         l.Style,
		Effects:       l.Effects,
		TransitionIn:  l.TransitionIn,
		TransitionOut: l.TransitionOut,
		Composite:     l.Composite,
	}
}

func decodeLayer(doc LayerDocument) (Layer, error) {
	pos, err := position.Decode(doc.Position)
	if err != nil {
		return Layer{}, err
	}
	l := Layer{
		Kind:          doc.Kind,
		Source:        doc.Source,
		Start:         doc.Start,
		Duration:      doc.Duration,
		Position:      pos,
		Style:         doc.Style,
		Effects:       doc.Effects,
		TransitionIn:  doc.TransitionIn,
		TransitionOut: doc.TransitionOut,
		Composite:     doc.Composite,
	}
	l = l.clone()
	if err := l.validate(); err != nil {
		return Layer{}, err
	}
	return l, nil
}

// Document returns the stored form of t, or the construction error.
func (t *Timeline) Document() (Document, error) {
	if t.err != nil {
		return Document{}, t.err
	}
	doc := Document{
		Layers:        make([]LayerDocument, 0, t.layers.len()),
		GlobalOptions: t.opts,
	}
	t.layers.each(func(l Layer) {
		doc.Layers = append(doc.Layers, encodeLayer(l))
	})
	return doc, nil
}

// FromDocument rebuilds a Timeline, validating every layer and the global
// options.
func FromDocument(doc Document) (*Timeline, error) {
	if err := doc.GlobalOptions.Validate(); err != nil {
		return nil, fmt.Errorf("globalOptions: %w", err)
	}
	t := &Timeline{opts: doc.GlobalOptions}
	for i, ld := range doc.Layers {
		l, err := decodeLayer(ld)
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		t.layers = t.layers.push(l)
	}
	return t, nil
}

// ToJSON encodes t as {"layers": [...], "globalOptions": {...}}.
func (t *Timeline) ToJSON() ([]byte, error) {
	doc, err := t.Document()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// FromJSON decodes a document written by ToJSON. Unknown fields are
// ignored.
func FromJSON(data []byte) (*Timeline, error) {
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return fromWire(wire)
}

// ToYAML encodes t with the same field names as ToJSON.
func (t *Timeline) ToYAML() ([]byte, error) {
	doc, err := t.Document()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	return buf.Bytes(), nil
}

// FromYAML decodes a YAML timeline document.
func FromYAML(data []byte) (*Timeline, error) {
	var wire wireDocument
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return fromWire(wire)
}

func fromWire(wire wireDocument) (*Timeline, error) {
	if wire.Layers == nil {
		return nil, errors.New("decode timeline: missing layers")
	}
	doc := Document{Layers: *wire.Layers}
	if wire.GlobalOptions != nil {
		doc.GlobalOptions = *wire.GlobalOptions
	}
	return FromDocument(doc)
}

// MarshalJSON implements json.Marshaler.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	return t.ToJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	decoded, err := FromJSON(data)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}
