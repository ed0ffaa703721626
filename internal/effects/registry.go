// Package effects maps named effects to filter fragment generators. Every
// generator is a pure function of its parameters, so a Registry can be
// shared by any number of concurrent compilations.
package effects

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"reelcraft/internal/filtergraph"
)

// ErrUnknownEffect is returned for names missing from the registry.
var ErrUnknownEffect = errors.New("unknown effect")

// Stream says which chain an effect belongs to.
type Stream int

const (
	Video Stream = iota
	Audio
)

func (s Stream) String() string {
	if s == Audio {
		return "audio"
	}
	return "video"
}

// BuildFunc turns parameters into an ordered list of filters.
type BuildFunc func(Params) ([]filtergraph.Filter, error)

// Effect is a registered generator.
type Effect struct {
	Name   string
	Stream Stream
	// Timeline marks filters that accept an enable= option, so they can be
	// limited to a time window.
	Timeline bool
	// Ranges documents expected parameter domains. Values outside them are
	// passed through for ffmpeg to judge.
	Ranges string
	Build  BuildFunc
}

// Registry is an immutable name -> Effect table.
type Registry struct {
	effects map[string]Effect
}

// NewRegistry builds a registry from effects. Later duplicates win.
func NewRegistry(effects ...Effect) *Registry {
	r := &Registry{effects: make(map[string]Effect, len(effects))}
	for _, e := range effects {
		r.effects[normalizeName(e.Name)] = e
	}
	return r
}

// With returns a new registry extended with effects; r is unchanged.
func (r *Registry) With(effects ...Effect) *Registry {
	merged := make([]Effect, 0, len(r.effects)+len(effects))
	for _, name := range r.Names() {
		merged = append(merged, r.effects[name])
	}
	merged = append(merged, effects...)
	return NewRegistry(merged...)
}

// Lookup returns the effect registered under name.
func (r *Registry) Lookup(name string) (Effect, error) {
	e, ok := r.effects[normalizeName(name)]
	if !ok {
		return Effect{}, fmt.Errorf("%w %q", ErrUnknownEffect, name)
	}
	return e, nil
}

// Build looks up name and runs its generator.
func (r *Registry) Build(name string, params Params) (Effect, []filtergraph.Filter, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return Effect{}, nil, err
	}
	filters, err := e.Build(params)
	if err != nil {
		return e, nil, fmt.Errorf("effect %q: %w", e.Name, err)
	}
	return e, filters, nil
}

// Names lists registered effect names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var defaultRegistry = NewRegistry(builtinEffects()...)

// Default returns the shared registry of built-in effects.
func Default() *Registry {
	return defaultRegistry
}

func builtinEffects() []Effect {
	var all []Effect
	all = append(all, videoEffects()...)
	all = append(all, audioEffects()...)
	return all
}
