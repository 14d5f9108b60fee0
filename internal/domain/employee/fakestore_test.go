package employee

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"staffid/internal/domain/identifier"
)

// fakeStore is an in-memory StoreAPI with the production semantics:
// unique identifiers, and a per-bucket high-water mark that survives
// deletion.
type fakeStore struct {
	mu      sync.Mutex
	byIdent map[string]*Employee
	latest  map[string]string
	nextID  int

	getCalls      int
	proofPathsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byIdent: make(map[string]*Employee),
		latest:  make(map[string]string),
	}
}

func (f *fakeStore) FindLatestInBucket(_ context.Context, prefix string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest, ok := f.latest[prefix]
	return latest, ok, nil
}

func (f *fakeStore) FindConflicting(_ context.Context, probe identifier.Probe) (identifier.MatchField, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.byIdent {
		if probe.Email != "" && strings.EqualFold(emp.Email, probe.Email) {
			return identifier.MatchEmail, true, nil
		}
		if probe.Contact != "" && emp.Contact == probe.Contact {
			return identifier.MatchContact, true, nil
		}
		if probe.FirstName != "" && probe.DateOfBirth != nil && emp.DateOfBirth != nil &&
			strings.EqualFold(emp.FirstName, probe.FirstName) &&
			strings.EqualFold(emp.LastName, probe.LastName) &&
			emp.DateOfBirth.Equal(*probe.DateOfBirth) {
			return identifier.MatchNameDOB, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) InsertWithUniqueIdentifier(_ context.Context, rec identifier.Record) error {
	parsed, err := identifier.Parse(rec.Identifier)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byIdent[rec.Identifier]; exists {
		return fmt.Errorf("insert %s: %w", rec.Identifier, identifier.ErrIdentifierTaken)
	}
	f.nextID++
	f.byIdent[rec.Identifier] = &Employee{
		ID:          strconv.Itoa(f.nextID),
		Identifier:  rec.Identifier,
		FirstName:   rec.FirstName,
		LastName:    rec.LastName,
		Department:  rec.Department,
		DeptCode:    rec.DeptCode,
		Contact:     rec.Contact,
		Email:       rec.Email,
		DateOfBirth: rec.DateOfBirth,
		CreatedAt:   time.Now().UTC(),
	}

	prefix := parsed.Bucket.Prefix()
	if current, ok := f.latest[prefix]; ok {
		if existing, err := identifier.Parse(current); err == nil && existing.Serial >= parsed.Serial {
			return nil
		}
	}
	f.latest[prefix] = rec.Identifier
	return nil
}

func (f *fakeStore) GetByIdentifier(_ context.Context, ident string) (*Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	emp, ok := f.byIdent[ident]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *emp
	return &clone, nil
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]Employee, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Employee
	for _, emp := range f.byIdent {
		out = append(out, *emp)
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) UpdateContact(_ context.Context, ident, contact, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byIdent[ident]
	if !ok {
		return ErrNotFound
	}
	emp.Contact = contact
	emp.Email = email
	return nil
}

func (f *fakeStore) Delete(_ context.Context, ident string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byIdent[ident]; !ok {
		return ErrNotFound
	}
	delete(f.byIdent, ident)
	return nil
}

func (f *fakeStore) SetProofPaths(_ context.Context, ident, qrPath, barcodePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.proofPathsErr != nil {
		return f.proofPathsErr
	}
	emp, ok := f.byIdent[ident]
	if !ok {
		return ErrNotFound
	}
	emp.QRPath = qrPath
	emp.BarcodePath = barcodePath
	return nil
}

func (f *fakeStore) SetPhotoPath(_ context.Context, ident, photoPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emp, ok := f.byIdent[ident]
	if !ok {
		return ErrNotFound
	}
	emp.PhotoPath = photoPath
	return nil
}

func (f *fakeStore) ListMissingProofs(_ context.Context, limit int) ([]Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Employee
	for _, emp := range f.byIdent {
		if !emp.HasProofs() {
			out = append(out, *emp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byIdent)
}
