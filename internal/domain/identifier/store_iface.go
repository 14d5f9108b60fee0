package identifier

import (
	"context"
	"time"
)

// Record carries the fields the allocation pipeline reads and writes.
// The owning store may persist more.
type Record struct {
	Identifier  string
	FirstName   string
	LastName    string
	Department  string
	DeptCode    string
	Contact     string
	Email       string
	DateOfBirth *time.Time
}

// Probe holds the normalized fields duplicate detection may match on.
// Empty fields never participate in a match.
type Probe struct {
	Email       string
	Contact     string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
}

func (p Probe) Empty() bool {
	return p.Email == "" && p.Contact == "" && p.FirstName == ""
}

// Store is the whole persistence contract the allocation core needs.
// Any backend satisfying these three operations works; the production
// implementation lives in the employee package, tests use an
// in-memory one.
type Store interface {
	// FindLatestInBucket returns the most recently issued identifier
	// whose prefix matches the bucket, or found=false when the bucket
	// has never issued one. Issued serials are never forgotten, so a
	// deleted record's serial is not handed out again.
	FindLatestInBucket(ctx context.Context, prefix string) (latest string, found bool, err error)

	// FindConflicting reports the first duplicate criterion under
	// which an existing record matches the probe.
	FindConflicting(ctx context.Context, probe Probe) (match MatchField, found bool, err error)

	// InsertWithUniqueIdentifier persists the record, returning an
	// error wrapping ErrIdentifierTaken when another record already
	// holds the identifier.
	InsertWithUniqueIdentifier(ctx context.Context, rec Record) error
}
