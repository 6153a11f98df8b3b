package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("product not found")
	ErrUnsupportedMediaType = errors.New("invalid file type, only JPEG and PNG are allowed")
	ErrAssetTooLarge        = errors.New("file exceeds the upload size limit")
	ErrInvalidInput         = errors.New("invalid input")
)

// StoreError is a backend connectivity or query failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// InvalidField reports a request field that failed boundary validation.
func InvalidField(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, field)
}
