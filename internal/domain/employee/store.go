package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffid/internal/domain/identifier"
)

const employeeColumns = `
    id,
    identifier,
    first_name,
    last_name,
    department,
    dept_code,
    COALESCE(contact, ''),
    COALESCE(email, ''),
    date_of_birth,
    COALESCE(photo_path, ''),
    COALESCE(qr_path, ''),
    COALESCE(barcode_path, ''),
    created_at`

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// FindLatestInBucket reads the high-water identifier for the bucket
// from bucket_sequences, which survives record deletion so serials are
// never reissued. Rows imported before the sequence table existed are
// covered by the fallback scan over employees.
func (s *Store) FindLatestInBucket(ctx context.Context, prefix string) (string, bool, error) {
	var latest string
	err := s.DB.QueryRow(ctx, `
    SELECT last_identifier
    FROM bucket_sequences
    WHERE prefix = $1
  `, prefix).Scan(&latest)
	if err == nil {
		return latest, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	err = s.DB.QueryRow(ctx, `
    SELECT identifier
    FROM employees
    WHERE identifier LIKE $1 || '%'
    ORDER BY created_at DESC, identifier DESC
    LIMIT 1
  `, prefix).Scan(&latest)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return latest, true, nil
}

// FindConflicting checks each duplicate criterion the probe carries.
// The probe only holds fields that were present on the incoming
// record, so empty columns can never produce a match.
func (s *Store) FindConflicting(ctx context.Context, probe identifier.Probe) (identifier.MatchField, bool, error) {
	if probe.Email != "" {
		found, err := s.exists(ctx, `
      SELECT COUNT(1) FROM employees
      WHERE email <> '' AND LOWER(email) = $1
    `, probe.Email)
		if err != nil {
			return "", false, err
		}
		if found {
			return identifier.MatchEmail, true, nil
		}
	}

	if probe.Contact != "" {
		found, err := s.exists(ctx, `
      SELECT COUNT(1) FROM employees
      WHERE contact <> '' AND contact = $1
    `, probe.Contact)
		if err != nil {
			return "", false, err
		}
		if found {
			return identifier.MatchContact, true, nil
		}
	}

	if probe.FirstName != "" && probe.DateOfBirth != nil {
		found, err := s.exists(ctx, `
      SELECT COUNT(1) FROM employees
      WHERE LOWER(first_name) = $1
        AND LOWER(last_name) = $2
        AND date_of_birth = $3
    `, probe.FirstName, probe.LastName, *probe.DateOfBirth)
		if err != nil {
			return "", false, err
		}
		if found {
			return identifier.MatchNameDOB, true, nil
		}
	}

	return "", false, nil
}

// InsertWithUniqueIdentifier persists the record and advances the
// bucket's high-water mark in one transaction. A unique violation on
// the identifier surfaces as identifier.ErrIdentifierTaken so the
// allocator can recompute and retry.
func (s *Store) InsertWithUniqueIdentifier(ctx context.Context, rec identifier.Record) error {
	parsed, err := identifier.Parse(rec.Identifier)
	if err != nil {
		return fmt.Errorf("refusing to insert identifier %q: %w", rec.Identifier, err)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
    INSERT INTO employees (identifier, first_name, last_name, department, dept_code, contact, email, date_of_birth)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
  `,
		rec.Identifier, rec.FirstName, rec.LastName, rec.Department, rec.DeptCode,
		rec.Contact, rec.Email, rec.DateOfBirth,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert %s: %w", rec.Identifier, identifier.ErrIdentifierTaken)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	_, err = tx.Exec(ctx, `
    INSERT INTO bucket_sequences (prefix, last_identifier, last_serial)
    VALUES ($1, $2, $3)
    ON CONFLICT (prefix) DO UPDATE
    SET last_identifier = EXCLUDED.last_identifier,
        last_serial = EXCLUDED.last_serial,
        updated_at = now()
    WHERE bucket_sequences.last_serial < EXCLUDED.last_serial
  `, parsed.Bucket.Prefix(), rec.Identifier, parsed.Serial)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) GetByIdentifier(ctx context.Context, ident string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE identifier = $1
  `, ident)

	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return emp, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Employee, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM employees`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    ORDER BY created_at DESC, identifier DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		out = append(out, *emp)
	}
	return out, total, rows.Err()
}

// UpdateContact changes the mutable contact fields only; the
// identifier column is deliberately untouchable through this store.
func (s *Store) UpdateContact(ctx context.Context, ident, contact, email string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET contact = $1, email = $2
    WHERE identifier = $3
  `, contact, email, ident)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record. The bucket_sequences row stays, so the
// deleted record's serial is permanently consumed.
func (s *Store) Delete(ctx context.Context, ident string) error {
	cmd, err := s.DB.Exec(ctx, `DELETE FROM employees WHERE identifier = $1`, ident)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetProofPaths(ctx context.Context, ident, qrPath, barcodePath string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET qr_path = $1, barcode_path = $2
    WHERE identifier = $3
  `, qrPath, barcodePath, ident)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetPhotoPath(ctx context.Context, ident, photoPath string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET photo_path = $1
    WHERE identifier = $2
  `, photoPath, ident)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMissingProofs returns records whose proof images were never
// stored, oldest first, for the background backfill.
func (s *Store) ListMissingProofs(ctx context.Context, limit int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE qr_path = '' OR barcode_path = ''
    ORDER BY created_at ASC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.Identifier, &emp.FirstName, &emp.LastName,
		&emp.Department, &emp.DeptCode, &emp.Contact, &emp.Email,
		&emp.DateOfBirth, &emp.PhotoPath, &emp.QRPath, &emp.BarcodePath,
		&emp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
