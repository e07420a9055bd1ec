package task

import (
	"errors"
	"fmt"
)

// FatalError aborts the whole run, every other error only drops the item
// that produced it.
type FatalError struct {
	Source  string
	Subject string
	Err     error
}

func (e *FatalError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Source, e.Subject, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func Fatalf(source, subject, format string, args ...any) error {
	return &FatalError{Source: source, Subject: subject, Err: fmt.Errorf(format, args...)}
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// PluckSingle returns the only element of values, more than one distinct
// element is a fatal error.
func PluckSingle[T comparable](source, property string, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, nil
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return zero, Fatalf(source, property, "%s should only contain single piece of data, found %v", property, values)
		}
	}
	return first, nil
}
