package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := New("mem://localhost/staffid-test")
	ctx := context.Background()

	payload := []byte("png-bytes")
	location, err := svc.Save(ctx, "proofs/ART-25-ENG-000001-4-qr.png", payload)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := svc.Load(ctx, location)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded, payload) {
		t.Fatalf("loaded %q, want %q", loaded, payload)
	}

	ok, err := svc.Exists(ctx, location)
	if err != nil || !ok {
		t.Fatalf("expected object to exist, ok=%v err=%v", ok, err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := New("mem://localhost/staffid-test-del")
	ctx := context.Background()

	location, err := svc.Save(ctx, "photos/x.jpg", []byte("jpg"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Delete(ctx, location); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, location); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}
