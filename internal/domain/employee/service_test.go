package employee

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"staffid/internal/domain/identifier"
	"staffid/internal/domain/proof"
	"staffid/internal/platform/metrics"
	"staffid/internal/platform/storage"
)

func juneClock() time.Time {
	return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
}

type captureMailer struct {
	sent chan string
}

func (m *captureMailer) Send(_ context.Context, _, to, _, _ string) error {
	m.sent <- to
	return nil
}

func newTestService(t *testing.T, store StoreAPI, mailer Mailer) *Service {
	t.Helper()
	alloc := identifier.NewAllocator(store, "ART").WithClock(juneClock)
	urls := proof.NewURLBuilder("https://id.example.com", "")
	files := storage.New("mem://localhost/" + t.Name())
	svc, err := NewService(store, alloc, urls, files, metrics.New(), mailer, "no-reply@example.com", 16)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterEndToEnd(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		FirstName:  "Ann",
		LastName:   "Lee",
		Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	want := "ART-25-ENG-000001-" + identifier.Checksum("ART-25-ENG-000001")
	if result.Employee.Identifier != want {
		t.Fatalf("expected %q, got %q", want, result.Employee.Identifier)
	}
	if result.ProofError != "" {
		t.Fatalf("unexpected proof error: %s", result.ProofError)
	}
	if !result.Employee.HasProofs() {
		t.Fatal("expected proof paths on the registered record")
	}

	qrPNG, err := svc.ProofImage(context.Background(), want, ProofQR)
	if err != nil || len(qrPNG) == 0 {
		t.Fatalf("stored qr proof unreadable: %v", err)
	}
}

func TestRegisterDuplicateLeavesNoRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
		Email: "ann@example.com",
	}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, RegisterInput{
		FirstName: "Someone", LastName: "Else", Department: "Finance",
		Email: "ANN@EXAMPLE.COM",
	})
	var dup *identifier.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.Match != identifier.MatchEmail {
		t.Fatalf("expected email match, got %s", dup.Match)
	}
	if store.count() != 1 {
		t.Fatalf("expected single record, got %d", store.count())
	}
}

func TestRegisterProofFailureIsPartialSuccess(t *testing.T) {
	store := newFakeStore()
	store.proofPathsErr = errors.New("column locked")
	svc := newTestService(t, store, nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("registration must succeed despite proof failure: %v", err)
	}
	if result.ProofError == "" {
		t.Fatal("expected a proof error to be reported")
	}
	if store.count() != 1 {
		t.Fatal("committed record must survive proof failure")
	}
}

func TestRegisterSendsIssuanceMail(t *testing.T) {
	store := newFakeStore()
	mailer := &captureMailer{sent: make(chan string, 1)}
	svc := newTestService(t, store, mailer)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
		Email: "ann@example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	select {
	case to := <-mailer.sent:
		if to != "ann@example.com" {
			t.Fatalf("mail sent to %q", to)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected issuance mail")
	}
}

func TestDeleteDoesNotRecycleSerial(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	var last string
	for i := 0; i < 2; i++ {
		result, err := svc.Register(ctx, RegisterInput{
			FirstName: "Emp", LastName: fmt.Sprintf("Num%d", i), Department: "Engineering",
		})
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		last = result.Employee.Identifier
	}

	if err := svc.Delete(ctx, last); err != nil {
		t.Fatalf("delete: %v", err)
	}

	result, err := svc.Register(ctx, RegisterInput{
		FirstName: "Emp", LastName: "After", Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("register after delete: %v", err)
	}
	parsed, err := identifier.Parse(result.Employee.Identifier)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Serial != 3 {
		t.Fatalf("expected serial 3 after deleting serial 2, got %d", parsed.Serial)
	}
}

func TestVerifyRejectsBadChecksumBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)

	_, err := svc.Verify(context.Background(), "ART-25-ENG-000001-7")
	if !errors.Is(err, identifier.ErrChecksumMismatch) {
		t.Fatalf("expected checksum rejection, got %v", err)
	}
	if store.getCalls != 0 {
		t.Fatalf("store must not be consulted for invalid identifiers, saw %d lookups", store.getCalls)
	}
}

func TestVerifyCachesLookups(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Verify(ctx, result.Employee.Identifier); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	before := store.getCalls
	for i := 0; i < 5; i++ {
		if _, err := svc.Verify(ctx, result.Employee.Identifier); err != nil {
			t.Fatalf("cached verify: %v", err)
		}
	}
	if store.getCalls != before {
		t.Fatalf("expected cached lookups, store saw %d extra reads", store.getCalls-before)
	}
}

func TestUpdateContactKeepsIdentifier(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateContact(ctx, result.Employee.Identifier, "+48 600 700 800", "ann@new.example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Identifier != result.Employee.Identifier {
		t.Fatal("identifier must never change on update")
	}
	if updated.Contact != "+48 600 700 800" {
		t.Fatalf("contact not updated: %q", updated.Contact)
	}
}

func TestBackfillProofs(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	// Seed a committed record with no proofs, as if generation had
	// failed at registration time.
	rec := identifier.Record{
		Identifier: identifier.Format(identifier.Bucket{Company: "ART", Year: "25", Dept: "ENG"}, 1),
		FirstName:  "Ann", LastName: "Lee", Department: "Engineering", DeptCode: "ENG",
	}
	if err := store.InsertWithUniqueIdentifier(ctx, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	done, err := svc.BackfillProofs(ctx, 10)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if done != 1 {
		t.Fatalf("expected 1 backfilled record, got %d", done)
	}
	emp, err := store.GetByIdentifier(ctx, rec.Identifier)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !emp.HasProofs() {
		t.Fatal("expected proofs after backfill")
	}
}

func TestBadgePDF(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ann", LastName: "Lee", Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pdf, err := svc.BadgePDF(ctx, result.Employee.Identifier)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("badge payload is not a PDF")
	}
}
