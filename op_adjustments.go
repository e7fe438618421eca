package darkroom

import "context"

// colorOperation applies one color matrix to the whole image. Steps whose
// matrix is the identity pass their input through untouched.
type colorOperation struct {
	OperationBase

	filter *ColorMatrixFilter
	matrix func(o *Configurable) (ColorMatrix, error)
}

func newColorOperation(matrix func(o *Configurable) (ColorMatrix, error)) *colorOperation {
	return &colorOperation{filter: NewColorMatrixFilter(), matrix: matrix}
}

// Matrix returns the matrix for the current options.
func (op *colorOperation) Matrix() (ColorMatrix, error) {
	return op.matrix(op.options)
}

func (op *colorOperation) render(_ context.Context, r Renderer, in *Texture) (bool, error) {
	m, err := op.matrix(op.options)
	if err != nil {
		return false, err
	}
	if m.IsIdentity() {
		return false, nil
	}
	op.filter.SetMatrix(m)
	w, h := textureSize(in)
	op.resetScene(in)
	op.container.SetFilters(op.filter)
	return true, op.renderScene(r, w, h)
}

func (op *colorOperation) operationUpdated(OperationUpdate, bool) {}

// AdjustmentsOperation combines brightness, contrast, saturation and
// exposure into one matrix.
type AdjustmentsOperation struct{ *colorOperation }

// NewAdjustmentsOperation creates an adjustments step. Options: brightness
// (-1..1), contrast (0..2), saturation (0..2), exposure (-1..1).
func NewAdjustmentsOperation(options map[string]any) (*AdjustmentsOperation, error) {
	op := &AdjustmentsOperation{newColorOperation(func(o *Configurable) (ColorMatrix, error) {
		return AdjustmentsMatrix(o.Number("brightness"), o.Number("contrast"),
			o.Number("saturation"), o.Number("exposure")), nil
	})}
	err := op.init(op, "adjustments", Schema{
		NumberOption("brightness", 0, -1, 1),
		NumberOption("saturation", 1, 0, 2),
		NumberOption("contrast", 1, 0, 2),
		NumberOption("exposure", 0, -1, 1),
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// BrightnessOperation shifts every channel. Options: brightness (-1..1).
type BrightnessOperation struct{ *colorOperation }

func NewBrightnessOperation(options map[string]any) (*BrightnessOperation, error) {
	op := &BrightnessOperation{newColorOperation(func(o *Configurable) (ColorMatrix, error) {
		return BrightnessMatrix(o.Number("brightness")), nil
	})}
	if err := op.init(op, "brightness", Schema{NumberOption("brightness", 0, -1, 1)}, options); err != nil {
		return nil, err
	}
	return op, nil
}

// ContrastOperation scales channels around mid-gray. Options: contrast (0..2).
type ContrastOperation struct{ *colorOperation }

func NewContrastOperation(options map[string]any) (*ContrastOperation, error) {
	op := &ContrastOperation{newColorOperation(func(o *Configurable) (ColorMatrix, error) {
		return ContrastMatrix(o.Number("contrast")), nil
	})}
	if err := op.init(op, "contrast", Schema{NumberOption("contrast", 1, 0, 2)}, options); err != nil {
		return nil, err
	}
	return op, nil
}

// SaturationOperation blends toward luminance. Options: saturation (0..2).
type SaturationOperation struct{ *colorOperation }

func NewSaturationOperation(options map[string]any) (*SaturationOperation, error) {
	op := &SaturationOperation{newColorOperation(func(o *Configurable) (ColorMatrix, error) {
		return SaturationMatrix(o.Number("saturation")), nil
	})}
	if err := op.init(op, "saturation", Schema{NumberOption("saturation", 1, 0, 2)}, options); err != nil {
		return nil, err
	}
	return op, nil
}

// FiltersOperation applies a named color preset. Options: filter (preset
// name), intensity (0..1).
type FiltersOperation struct{ *colorOperation }

func NewFiltersOperation(options map[string]any) (*FiltersOperation, error) {
	op := &FiltersOperation{newColorOperation(func(o *Configurable) (ColorMatrix, error) {
		m, err := PresetMatrix(o.Str("filter"))
		if err != nil {
			return ColorMatrix{}, err
		}
		return m.Lerp(o.Number("intensity")), nil
	})}
	err := op.init(op, "filters", Schema{
		StringOption("filter", "identity", PresetNames()...),
		NumberOption("intensity", 1, 0, 1),
	}, options)
	if err != nil {
		return nil, err
	}
	return op, nil
}
