package ingestion

import (
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrMalformedGeometry = errors.New("malformed geometry")
	ErrMalformedRecords  = errors.New("malformed records")
)

const (
	SourceDistricts  = "districts"
	SourceBoundaries = "boundaries"
)

// LoadError is returned by both loaders. It unwraps to one of the sentinel
// kinds above and to the underlying cause.
type LoadError struct {
	Source string
	Kind   error
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindName is the short machine name of the failure, used in API responses
// and metric labels.
func (e *LoadError) KindName() string {
	return kindName(e.Kind)
}

func kindName(kind error) string {
	switch {
	case errors.Is(kind, ErrMalformedGeometry):
		return "malformed_geometry"
	case errors.Is(kind, ErrMalformedRecords):
		return "malformed_records"
	default:
		return "data_unavailable"
	}
}

func unavailable(source string, err error) *LoadError {
	return &LoadError{Source: source, Kind: ErrDataUnavailable, Err: err}
}

func malformed(source string, kind, err error) *LoadError {
	return &LoadError{Source: source, Kind: kind, Err: err}
}
