package identifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// maxInsertRetries bounds how often an allocation recomputes its
// serial after losing an insert race before giving up.
const maxInsertRetries = 5

// Allocator runs duplicate detection, serial assignment and the
// insert as one logical unit per caller.
//
// Allocations within a bucket are serialized behind a per-bucket lock
// held for the whole read-compute-insert span, so two concurrent
// requests in one process can never observe the same "last serial".
// The store's uniqueness constraint on the identifier is the backstop
// against races outside that lock (for example a second process): an
// insert conflict triggers a fresh read and a bounded retry.
type Allocator struct {
	store    Store
	detector *Detector
	seq      *Sequencer
	company  string
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*sync.Mutex
}

func NewAllocator(store Store, company string) *Allocator {
	return &Allocator{
		store:    store,
		detector: NewDetector(store),
		seq:      NewSequencer(store),
		company:  company,
		now:      time.Now,
		buckets:  make(map[string]*sync.Mutex),
	}
}

// Allocation describes a successfully issued identifier.
type Allocation struct {
	Identifier string
	Bucket     Bucket
	Serial     int
	// Attempts counts insert attempts; values above 1 mean the
	// uniqueness backstop caught a race.
	Attempts int
}

// Allocate checks the record for duplicates, assigns the next serial
// in its bucket, renders the checksummed identifier and persists the
// record. Any failure leaves the store exactly as it was; a failed
// attempt consumes no serial.
func (a *Allocator) Allocate(ctx context.Context, rec Record) (Allocation, error) {
	if err := a.detector.Check(ctx, rec); err != nil {
		return Allocation{}, err
	}

	bucket := NewBucket(a.company, a.now(), rec.Department)
	rec.DeptCode = bucket.Dept

	lock := a.bucketLock(bucket.Prefix())
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxInsertRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}

		serial, err := a.seq.Next(ctx, bucket)
		if err != nil {
			return Allocation{}, err
		}
		rec.Identifier = Format(bucket, serial)

		err = a.store.InsertWithUniqueIdentifier(ctx, rec)
		if err == nil {
			return Allocation{
				Identifier: rec.Identifier,
				Bucket:     bucket,
				Serial:     serial,
				Attempts:   attempt,
			}, nil
		}
		if !errors.Is(err, ErrIdentifierTaken) {
			return Allocation{}, fmt.Errorf("insert record %s: %w", rec.Identifier, err)
		}

		lastErr = err
		slog.Warn("identifier insert conflict, recomputing serial",
			"bucket", bucket.String(),
			"serial", serial,
			"attempt", attempt,
		)
	}

	return Allocation{}, &AllocationError{
		Bucket:   bucket.String(),
		Attempts: maxInsertRetries,
		Err:      lastErr,
	}
}

func (a *Allocator) bucketLock(prefix string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.buckets[prefix]
	if !ok {
		lock = &sync.Mutex{}
		a.buckets[prefix] = lock
	}
	return lock
}

// WithClock overrides the issuance clock, used by tests to pin the
// bucket year.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}
