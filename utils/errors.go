package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewLengthMismatchError is used when two slices that must pair up element by element do not.
func NewLengthMismatchError(leftName string, left int, rightName string, right int) error {
	return errors.Errorf("length mismatch: %d %s but %d %s", left, leftName, right, rightName)
}
