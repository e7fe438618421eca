package darkroom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoTexture is returned when a sprite is drawn without a texture.
	ErrNoTexture = errors.New("darkroom: sprite has no texture")
	// ErrNotBaseTexture is returned when a Texture is built from something
	// other than a *BaseTexture.
	ErrNotBaseTexture = errors.New("darkroom: texture source is not a *BaseTexture")
	// ErrContextLost is returned by GPU calls made while the context is lost
	// or abandoned.
	ErrContextLost = errors.New("darkroom: GPU context lost")
	// ErrBackendUnavailable is returned when a backend cannot be constructed.
	ErrBackendUnavailable = errors.New("darkroom: backend unavailable")
	// ErrFeatureDisabled is returned when creating an operation whose
	// identifier has been disabled on the editor.
	ErrFeatureDisabled = errors.New("darkroom: feature disabled")
	// ErrTextureNotLoaded is returned when pixel data of a texture is needed
	// before its source finished decoding.
	ErrTextureNotLoaded = errors.New("darkroom: texture not loaded")
	// ErrNotImage is returned when a texture source is not a decodable image.
	ErrNotImage = errors.New("darkroom: source is not an image")
	// ErrPoolDoubleRelease is returned when a scratch render target is handed
	// back to its pool more than once.
	ErrPoolDoubleRelease = errors.New("darkroom: render target released twice")
)

// UnknownOperationError is returned by CreateOperation for identifiers that
// have no registered factory.
type UnknownOperationError struct {
	Identifier string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("darkroom: unknown operation identifier %q", e.Identifier)
}

// OptionError reports an option value rejected by an operation's schema.
type OptionError struct {
	Operation string
	Option    string
	Value     any
	Reason    string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("darkroom: %s: option %q: invalid value %v: %s", e.Operation, e.Option, e.Value, e.Reason)
}

// ValidationError reports an invalid argument to Export or another entry
// point. Allowed lists the accepted values when the domain is enumerable.
type ValidationError struct {
	Field   string
	Value   any
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("darkroom: invalid %s %v", e.Field, e.Value)
	}
	return fmt.Sprintf("darkroom: invalid %s %v (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// ShaderBuildError reports a shader program that failed to compile.
// Log holds the backend's own diagnostic text.
type ShaderBuildError struct {
	Backend BackendKind
	Shader  string
	Stage   string
	Log     string
}

func (e *ShaderBuildError) Error() string {
	return fmt.Sprintf("darkroom: %s: %s shader %q failed to build: %s", e.Backend, e.Stage, e.Shader, e.Log)
}

// RenderError wraps a failure inside one operation of a stack render. The
// remaining operations of that pass are not rendered.
type RenderError struct {
	Operation string
	Index     int
	Backend   BackendKind
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("darkroom: render %s (index %d) on %s: %v", e.Operation, e.Index, e.Backend, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
