package storage

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrInvalidArgument is wrapped by every argument check that fails
	// before a request is sent.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotImplemented is returned by operations the client does not
	// support yet.
	ErrNotImplemented = errors.New("not implemented")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// requireID checks that an identifier argument is set.
func requireID(name, value string) error {
	if err := validation.Validate(value, validation.Required); err != nil {
		return invalid("%s %q: %v", name, value, err)
	}
	return nil
}

// validateStruct runs ozzo rules and wraps a failure in ErrInvalidArgument.
func validateStruct(structPtr any, fields ...*validation.FieldRules) error {
	if err := validation.ValidateStruct(structPtr, fields...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
