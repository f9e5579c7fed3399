package config

import "errors"

var (
	// ErrNotFound means the entity has no experiments file.
	ErrNotFound = errors.New("experiments file not found")
	// ErrConfigInvalid means the experiments file exists but fails parsing or
	// schema validation. Callers on the visitor path treat this as "no
	// experiments run".
	ErrConfigInvalid = errors.New("experiments file invalid")
	// ErrExperimentNotFound means no experiment with that slug exists in the
	// entity's file.
	ErrExperimentNotFound = errors.New("experiment not found")
	// ErrAllocationInvalid means a variants patch does not sum to 100.
	ErrAllocationInvalid = errors.New("variant allocations must sum to 100")
	// ErrValidationFailed means the merged experiment failed schema
	// validation; the on-disk file is left untouched.
	ErrValidationFailed = errors.New("merged experiment failed validation")
)
