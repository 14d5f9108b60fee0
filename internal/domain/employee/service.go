package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"staffid/internal/domain/identifier"
	"staffid/internal/domain/proof"
	"staffid/internal/platform/metrics"
	"staffid/internal/platform/storage"
)

// Mailer sends the issuance notification. The platform email package
// provides the SMTP implementation and a no-op fallback.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// ProofKind selects one of the two stored proof images.
type ProofKind string

const (
	ProofQR      ProofKind = "qr"
	ProofBarcode ProofKind = "barcode"
)

// Service owns the employee lifecycle: registration through the
// allocation pipeline, proof generation and storage, verification
// lookups and the contact-field updates that never touch the
// identifier.
type Service struct {
	store     StoreAPI
	alloc     *identifier.Allocator
	urls      *proof.URLBuilder
	files     *storage.Service
	collector *metrics.Collector
	mailer    Mailer
	emailFrom string
	cache     *lru.Cache[string, Employee]
}

func NewService(
	store StoreAPI,
	alloc *identifier.Allocator,
	urls *proof.URLBuilder,
	files *storage.Service,
	collector *metrics.Collector,
	mailer Mailer,
	emailFrom string,
	verifyCacheSize int,
) (*Service, error) {
	cache, err := lru.New[string, Employee](verifyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("verify cache: %w", err)
	}
	return &Service{
		store:     store,
		alloc:     alloc,
		urls:      urls,
		files:     files,
		collector: collector,
		mailer:    mailer,
		emailFrom: emailFrom,
		cache:     cache,
	}, nil
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Department  string
	Contact     string
	Email       string
	DateOfBirth *time.Time
}

// RegisterResult reports a committed registration. ProofError is set
// when the record was persisted but its proofs could not be generated;
// the caller surfaces that as a partial success, never a failure.
type RegisterResult struct {
	Employee   Employee
	Attempts   int
	ProofError string
}

// Register runs the full allocation pipeline and then generates the
// scannable proofs. Proof generation happens strictly after the
// record is committed and cannot roll it back.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	rec := identifier.Record{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Department:  strings.TrimSpace(in.Department),
		Contact:     strings.TrimSpace(in.Contact),
		Email:       strings.TrimSpace(in.Email),
		DateOfBirth: in.DateOfBirth,
	}

	allocation, err := s.alloc.Allocate(ctx, rec)
	if err != nil {
		var dup *identifier.DuplicateError
		if errors.As(err, &dup) {
			s.collector.RecordDuplicate()
		} else {
			s.collector.RecordAllocationFailure()
		}
		return RegisterResult{}, err
	}
	s.collector.RecordAllocation(allocation.Attempts)

	emp, err := s.store.GetByIdentifier(ctx, allocation.Identifier)
	if err != nil {
		// The record is committed; reconstruct what we know rather
		// than failing the already-successful allocation.
		slog.Warn("read-back after allocation failed", "identifier", allocation.Identifier, "err", err)
		emp = &Employee{
			Identifier:  allocation.Identifier,
			FirstName:   rec.FirstName,
			LastName:    rec.LastName,
			Department:  rec.Department,
			DeptCode:    allocation.Bucket.Dept,
			Contact:     rec.Contact,
			Email:       rec.Email,
			DateOfBirth: rec.DateOfBirth,
			CreatedAt:   time.Now().UTC(),
		}
	}

	result := RegisterResult{Employee: *emp, Attempts: allocation.Attempts}
	if err := s.generateProofs(ctx, &result.Employee); err != nil {
		s.collector.RecordProofFailure()
		slog.Error("proof generation failed",
			"identifier", result.Employee.Identifier,
			"bucket", allocation.Bucket.String(),
			"err", err,
		)
		result.ProofError = err.Error()
	}

	s.notifyIssued(result.Employee)
	return result, nil
}

func (s *Service) Get(ctx context.Context, ident string) (*Employee, error) {
	return s.store.GetByIdentifier(ctx, ident)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Employee, int, error) {
	return s.store.List(ctx, limit, offset)
}

// UpdateContact changes contact and email only. The identifier is
// immutable once assigned, so there is deliberately no broader update.
func (s *Service) UpdateContact(ctx context.Context, ident, contact, email string) (*Employee, error) {
	if err := s.store.UpdateContact(ctx, ident, strings.TrimSpace(contact), strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	s.cache.Remove(ident)
	return s.store.GetByIdentifier(ctx, ident)
}

// Delete removes the record and its stored objects. The serial stays
// consumed; a later registration in the same bucket continues the
// sequence past it.
func (s *Service) Delete(ctx context.Context, ident string) error {
	emp, err := s.store.GetByIdentifier(ctx, ident)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ident); err != nil {
		return err
	}
	s.cache.Remove(ident)

	for _, location := range []string{emp.QRPath, emp.BarcodePath, emp.PhotoPath} {
		if location == "" {
			continue
		}
		if err := s.files.Delete(ctx, location); err != nil {
			slog.Warn("orphaned stored object", "location", location, "err", err)
		}
	}
	return nil
}

// Verify resolves an identifier for the verification page. The
// identifier grammar and checksum are validated first, so a mistyped
// or forged code never reaches the store; lookups are cached.
func (s *Service) Verify(ctx context.Context, ident string) (*Employee, error) {
	if _, err := identifier.Parse(ident); err != nil {
		return nil, err
	}
	if emp, ok := s.cache.Get(ident); ok {
		return &emp, nil
	}
	emp, err := s.store.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}
	s.cache.Add(ident, *emp)
	return emp, nil
}

// CheckLinkToken reports whether a scanned verification link carries a
// valid signature for the identifier.
func (s *Service) CheckLinkToken(ident, token string) error {
	return s.urls.CheckToken(ident, token)
}

// ProofImage returns the stored PNG for one of the proofs, generating
// and persisting both on demand when they are missing.
func (s *Service) ProofImage(ctx context.Context, ident string, kind ProofKind) ([]byte, error) {
	emp, err := s.store.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !emp.HasProofs() {
		if err := s.generateProofs(ctx, emp); err != nil {
			s.collector.RecordProofFailure()
			return nil, err
		}
	}

	location := emp.QRPath
	if kind == ProofBarcode {
		location = emp.BarcodePath
	}
	return s.files.Load(ctx, location)
}

// BadgePDF renders the printable badge for an employee.
func (s *Service) BadgePDF(ctx context.Context, ident string) ([]byte, error) {
	emp, err := s.store.GetByIdentifier(ctx, ident)
	if err != nil {
		return nil, err
	}
	qrPNG, err := s.ProofImage(ctx, ident, ProofQR)
	if err != nil {
		return nil, err
	}
	return proof.BadgePDF(proof.Badge{
		Identifier: emp.Identifier,
		FullName:   emp.FullName(),
		Department: emp.Department,
		IssuedAt:   emp.CreatedAt,
	}, qrPNG)
}

// SavePhoto stores an uploaded photo and records its location.
func (s *Service) SavePhoto(ctx context.Context, ident string, data []byte, ext string) (string, error) {
	if _, err := s.store.GetByIdentifier(ctx, ident); err != nil {
		return "", err
	}
	location, err := s.files.Save(ctx, "photos/"+ident+ext, data)
	if err != nil {
		return "", err
	}
	if err := s.store.SetPhotoPath(ctx, ident, location); err != nil {
		return "", err
	}
	s.cache.Remove(ident)
	return location, nil
}

// BackfillProofs regenerates proof images for records missing them.
// Used by the background job; failures are logged per record and do
// not stop the sweep.
func (s *Service) BackfillProofs(ctx context.Context, limit int) (int, error) {
	missing, err := s.store.ListMissingProofs(ctx, limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range missing {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.generateProofs(ctx, &missing[i]); err != nil {
			s.collector.RecordProofFailure()
			slog.Warn("proof backfill failed", "identifier", missing[i].Identifier, "err", err)
			continue
		}
		done++
	}
	return done, nil
}

func (s *Service) generateProofs(ctx context.Context, emp *Employee) error {
	verifyURL, err := s.urls.VerifyURL(emp.Identifier)
	if err != nil {
		return err
	}
	qrPNG, barcodePNG, err := proof.Images(emp.Identifier, verifyURL)
	if err != nil {
		return err
	}

	qrLocation, err := s.files.Save(ctx, "proofs/"+emp.Identifier+"-qr.png", qrPNG)
	if err != nil {
		return err
	}
	barcodeLocation, err := s.files.Save(ctx, "proofs/"+emp.Identifier+"-code128.png", barcodePNG)
	if err != nil {
		return err
	}

	if err := s.store.SetProofPaths(ctx, emp.Identifier, qrLocation, barcodeLocation); err != nil {
		return err
	}
	emp.QRPath = qrLocation
	emp.BarcodePath = barcodeLocation
	s.cache.Remove(emp.Identifier)
	return nil
}

func (s *Service) notifyIssued(emp Employee) {
	if s.mailer == nil || strings.TrimSpace(emp.Email) == "" {
		return
	}
	verifyURL, err := s.urls.VerifyURL(emp.Identifier)
	if err != nil {
		slog.Warn("issuance mail skipped", "identifier", emp.Identifier, "err", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		body := fmt.Sprintf(
			"Hello %s,\n\nYour staff identifier is %s.\nVerify it at any time: %s\n",
			emp.FullName(), emp.Identifier, verifyURL,
		)
		if err := s.mailer.Send(ctx, s.emailFrom, emp.Email, "Your staff identifier", body); err != nil {
			slog.Warn("issuance mail failed", "identifier", emp.Identifier, "err", err)
		}
	}()
}
