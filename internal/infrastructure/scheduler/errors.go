package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when running a job that was never registered
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRegistered is returned when a job name is registered twice
	ErrJobAlreadyRegistered = errors.New("job already registered")

	// ErrJobPanicked is returned when a job run panics
	ErrJobPanicked = errors.New("job panicked")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
