package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidValue  = errors.New("invalid value")
)

// InputMissingError reports a registry file that is not where the importer expects it.
type InputMissingError struct {
	Path string
}

func (e *InputMissingError) Error() string {
	return fmt.Sprintf("file not exist %s", e.Path)
}

// MalformedRowError points at the registry row that could not be mapped.
// Index is the 1-based position of the row in the document.
type MalformedRowError struct {
	Path   string
	Index  int
	Column string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: row %d: %v", e.Path, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: row %d: column %s: %v", e.Path, e.Index, e.Column, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// ParentResolutionError is returned when a district cannot be attached to a city.
type ParentResolutionError struct {
	DistrictID string
	Codes      Codes
	Candidates []string // city ids of an ambiguous stage, empty when nothing matched
}

func (e *ParentResolutionError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("district %s: ambiguous city for province=%s county=%s municipality=%s: candidates %s",
			e.DistrictID, e.Codes.Province, e.Codes.CountyKey(), e.Codes.MunicipalityKey(), strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("district %s: no city for province=%s county=%s municipality=%s",
		e.DistrictID, e.Codes.Province, e.Codes.CountyKey(), e.Codes.MunicipalityKey())
}

// StoreConstraintViolation wraps a unique, primary or foreign key violation raised by the store.
type StoreConstraintViolation struct {
	Kind Kind
	Op   string
	ID   string
	Err  error
}

func (e *StoreConstraintViolation) Error() string {
	return fmt.Sprintf("%s %s %s: constraint violation: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *StoreConstraintViolation) Unwrap() error { return e.Err }
