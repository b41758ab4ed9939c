package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySchema is returned when no field names could be collected from a corpus.
	ErrEmptySchema = errors.New("no fields found in corpus")

	// ErrIndexStorage wraps failures of the underlying index engine.
	ErrIndexStorage = errors.New("index storage error")
)

// UnitErrorKind identifies why a unit was skipped.
type UnitErrorKind int

const (
	// KindDiscovery means the folder does not hold exactly one description file and one CSV.
	KindDiscovery UnitErrorKind = iota
	// KindDecode means the description file could not be read or decoded.
	KindDecode
	// KindPattern means expected metadata was not found in the description file.
	KindPattern
	// KindFileList means the CSV file list could not be opened or its header read.
	KindFileList
)

func (k UnitErrorKind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindDecode:
		return "decode"
	case KindPattern:
		return "pattern"
	case KindFileList:
		return "file list"
	default:
		return "unknown"
	}
}

// UnitError is a per-unit failure. It is logged and the unit is skipped;
// it never aborts a corpus walk.
type UnitError struct {
	Kind     UnitErrorKind
	Location string
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Location, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// NewUnitError creates a UnitError.
func NewUnitError(kind UnitErrorKind, location string, err error) *UnitError {
	return &UnitError{Kind: kind, Location: location, Err: err}
}

// IsUnitErrorKind reports whether err is a UnitError of the given kind.
func IsUnitErrorKind(err error, kind UnitErrorKind) bool {
	var ue *UnitError
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}

// StorageError wraps err so that errors.Is(err, ErrIndexStorage) holds.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIndexStorage, op, err)
}
