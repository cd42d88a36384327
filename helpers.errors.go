package main

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrAuthorNotFound      = errors.New("author not found")
	ErrLibraryCardNotFound = errors.New("library card not found")
	ErrCacheMiss           = errors.New("cache: key not found")
)

// PersistenceError reports a failure of the underlying record store.
// It is not recoverable by the caller and maps to an internal error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistenceErr wraps err into a PersistenceError unless it is nil
// or one of the expected not found outcomes.
func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	for _, expected := range []error{ErrBookNotFound, ErrMemberNotFound, ErrAuthorNotFound, ErrLibraryCardNotFound} {
		if errors.Is(err, expected) {
			return err
		}
	}
	return &PersistenceError{Op: op, Err: err}
}

// ValidationError holds per-field messages of an invalid input.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFound tells if err is one of the not found outcomes of the storages.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) || errors.Is(err, ErrMemberNotFound)
}
