package identifier

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

var engBucket = Bucket{Company: "ART", Year: "25", Dept: "ENG"}

func TestNextSerialEmptyBucket(t *testing.T) {
	seq := NewSequencer(newMemStore())

	serial, err := seq.Next(context.Background(), engBucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if serial != 1 {
		t.Fatalf("expected first serial 1, got %d", serial)
	}
}

func TestNextSerialFollowsLatest(t *testing.T) {
	store := newMemStore()
	rec := Record{Identifier: Format(engBucket, 41)}
	if err := store.InsertWithUniqueIdentifier(context.Background(), rec); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	serial, err := NewSequencer(store).Next(context.Background(), engBucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if serial != 42 {
		t.Fatalf("expected serial 42 after 000041, got %d", serial)
	}
}

func TestNextSerialPropagatesStoreError(t *testing.T) {
	store := newMemStore()
	store.findLatestErr = fmt.Errorf("connection refused")

	_, err := NewSequencer(store).Next(context.Background(), engBucket)
	if err == nil {
		t.Fatal("expected store error to propagate, got serial")
	}
	if !errors.Is(err, store.findLatestErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestNextSerialExhausted(t *testing.T) {
	store := newMemStore()
	rec := Record{Identifier: Format(engBucket, MaxSerial)}
	if err := store.InsertWithUniqueIdentifier(context.Background(), rec); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	_, err := NewSequencer(store).Next(context.Background(), engBucket)
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestBucketsSequenceIndependently(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	if err := store.InsertWithUniqueIdentifier(ctx, Record{Identifier: Format(engBucket, 7)}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	finBucket := Bucket{Company: "ART", Year: "25", Dept: "FIN"}
	serial, err := NewSequencer(store).Next(ctx, finBucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if serial != 1 {
		t.Fatalf("expected FIN bucket to start at 1, got %d", serial)
	}
}
