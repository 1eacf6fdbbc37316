package simplemeta

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrInvalidSettings indicates a malformed configuration or settings patch
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrElementNotFound indicates an element store has no such element
	ErrElementNotFound = errors.New("element not found")

	// ErrSiteNotFound indicates the current site could not be determined
	ErrSiteNotFound = errors.New("site not found")

	// ErrTransformFailed indicates the image transformer produced no URL
	ErrTransformFailed = errors.New("transform failed")
)

// Stage names a pipeline stage in errors and hooks.
type Stage string

const (
	StageSettings      Stage = "settings"
	StageRouting       Stage = "routing"
	StageCacheGet      Stage = "cache_get"
	StageElementMeta   Stage = "element_meta"
	StageAdditional    Stage = "additional_meta"
	StageDefaults      Stage = "default_meta"
	StageAssets        Stage = "assets"
	StageSitename      Stage = "sitename"
	StageCacheSet      Stage = "cache_set"
	StageBeforeResolve Stage = "before_resolve"
)

// TransformError reports a failed image transform for a meta key.
type TransformError struct {
	Key string
	URL string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform of %s for %s failed: %v", e.URL, e.Key, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// RenderError reports a failed template render.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render of %q failed: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// StageError wraps a recovered failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
