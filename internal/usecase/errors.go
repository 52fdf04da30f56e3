package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrMalformedFixtureData   = errors.New("malformed fixture data")
	ErrUnknownFixture         = errors.New("unknown fixture")
	ErrFixtureLocked          = errors.New("fixture locked")
	ErrInvalidOutcome         = errors.New("invalid outcome")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistenceUnavailable, op, err)
}
