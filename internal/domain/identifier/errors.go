package identifier

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed         = errors.New("identifier does not match the expected format")
	ErrChecksumMismatch  = errors.New("identifier checksum does not verify")
	ErrIdentifierTaken   = errors.New("identifier already exists")
	ErrSequenceExhausted = errors.New("bucket serial sequence exhausted")
)

// MatchField names the duplicate criterion that matched an existing
// record. Handlers surface it to the caller without exposing anything
// else about the conflicting record.
type MatchField string

const (
	MatchEmail   MatchField = "email"
	MatchContact MatchField = "contact"
	MatchNameDOB MatchField = "name_dob"
)

type DuplicateError struct {
	Match MatchField
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("record duplicates an existing employee by %s", e.Match)
}

// AllocationError is returned when the bounded retry budget for
// insert conflicts is exhausted.
type AllocationError struct {
	Bucket   string
	Attempts int
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation in bucket %s failed after %d attempts: %v", e.Bucket, e.Attempts, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}
