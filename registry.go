package darkroom

import (
	"fmt"
	"sort"
)

// OperationFactory builds an operation from raw option values.
type OperationFactory func(options map[string]any) (Operation, error)

// Registry maps operation identifiers to factories.
type Registry struct {
	factories map[string]OperationFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]OperationFactory)}
}

// DefaultRegistry returns a registry holding every built-in operation.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("crop", func(o map[string]any) (Operation, error) { return NewCropOperation(o) })
	r.Register("orientation", func(o map[string]any) (Operation, error) { return NewOrientationOperation(o) })
	r.Register("adjustments", func(o map[string]any) (Operation, error) { return NewAdjustmentsOperation(o) })
	r.Register("brightness", func(o map[string]any) (Operation, error) { return NewBrightnessOperation(o) })
	r.Register("contrast", func(o map[string]any) (Operation, error) { return NewContrastOperation(o) })
	r.Register("saturation", func(o map[string]any) (Operation, error) { return NewSaturationOperation(o) })
	r.Register("filters", func(o map[string]any) (Operation, error) { return NewFiltersOperation(o) })
	r.Register("focus", func(o map[string]any) (Operation, error) { return NewFocusOperation(o) })
	r.Register("border", func(o map[string]any) (Operation, error) { return NewBorderOperation(o) })
	r.Register("frame", func(o map[string]any) (Operation, error) { return NewFrameOperation(o) })
	r.Register("sprites", func(o map[string]any) (Operation, error) { return NewSpritesOperation(o) })
	r.Register("watermark", func(o map[string]any) (Operation, error) { return NewWatermarkOperation(o) })
	return r
}

// Register adds or replaces a factory. Panics on an empty identifier or nil
// factory.
func (r *Registry) Register(identifier string, f OperationFactory) {
	if identifier == "" || f == nil {
		panic("darkroom: register operation needs an identifier and a factory")
	}
	r.factories[identifier] = f
}

// Has reports whether identifier is registered.
func (r *Registry) Has(identifier string) bool {
	_, ok := r.factories[identifier]
	return ok
}

// Identifiers returns the registered identifiers, sorted.
func (r *Registry) Identifiers() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create builds an operation. An unregistered identifier returns an
// *UnknownOperationError.
func (r *Registry) Create(identifier string, options map[string]any) (Operation, error) {
	f, ok := r.factories[identifier]
	if !ok {
		return nil, &UnknownOperationError{Identifier: identifier}
	}
	op, err := f(options)
	if err != nil {
		return nil, fmt.Errorf("darkroom: create %s: %w", identifier, err)
	}
	return op, nil
}
