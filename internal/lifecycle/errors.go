package lifecycle

import (
	"errors"
	"fmt"
)

const unknownError = "Unknown error"

type ErrJobCreation struct {
	error
}

func NewErrJobCreation(err error) *ErrJobCreation {
	return &ErrJobCreation{fmt.Errorf("failed to create screening job: %w", err)}
}

func (e *ErrJobCreation) Unwrap() error {
	return errors.Unwrap(e.error)
}

type ErrJobFailed struct {
	error
	JobID    string
	ErrorLog string
}

func NewErrJobFailed(jobID string, errorLog *string) *ErrJobFailed {
	msg := unknownError
	if errorLog != nil && *errorLog != "" {
		msg = *errorLog
	}
	return &ErrJobFailed{error: fmt.Errorf("job %s failed: %s", jobID, msg), JobID: jobID, ErrorLog: msg}
}

type ErrResultsFetch struct {
	error
}

func NewErrResultsFetch(jobID string, err error) *ErrResultsFetch {
	return &ErrResultsFetch{fmt.Errorf("failed to fetch results of job %s: %w", jobID, err)}
}

func (e *ErrResultsFetch) Unwrap() error {
	return errors.Unwrap(e.error)
}

type ErrDownload struct {
	error
}

func NewErrDownload(name string, err error) *ErrDownload {
	return &ErrDownload{fmt.Errorf("failed to download %s: %w", name, err)}
}

func (e *ErrDownload) Unwrap() error {
	return errors.Unwrap(e.error)
}

type ErrInvalidTransition struct {
	error
	From State
	To   State
}

func NewErrInvalidTransition(from, to State) *ErrInvalidTransition {
	return &ErrInvalidTransition{error: fmt.Errorf("cannot move from %s to %s", from, to), From: from, To: to}
}
