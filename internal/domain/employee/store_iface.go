package employee

import (
	"context"

	"staffid/internal/domain/identifier"
)

// StoreAPI is the persistence contract the employee service uses. It
// embeds the allocation core's store contract so one backend serves
// both. The pgx implementation is Store; tests use an in-memory fake.
type StoreAPI interface {
	identifier.Store

	GetByIdentifier(ctx context.Context, ident string) (*Employee, error)
	List(ctx context.Context, limit, offset int) ([]Employee, int, error)
	UpdateContact(ctx context.Context, ident, contact, email string) error
	Delete(ctx context.Context, ident string) error
	SetProofPaths(ctx context.Context, ident, qrPath, barcodePath string) error
	SetPhotoPath(ctx context.Context, ident, photoPath string) error
	ListMissingProofs(ctx context.Context, limit int) ([]Employee, error)
}
