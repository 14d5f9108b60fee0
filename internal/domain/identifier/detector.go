package identifier

import (
	"context"
	"fmt"
	"strings"
)

// Detector decides whether an incoming record plausibly duplicates an
// existing one before any serial is assigned.
type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// Check returns a *DuplicateError naming the matched criterion, or
// nil when the record is clear. Only fields present on the incoming
// record participate: an empty email or contact never matches another
// record's empty field, and the name+date-of-birth rule applies only
// when first name, last name and date of birth are all present.
func (d *Detector) Check(ctx context.Context, rec Record) error {
	probe := BuildProbe(rec)
	if probe.Empty() {
		return nil
	}
	match, found, err := d.store.FindConflicting(ctx, probe)
	if err != nil {
		return fmt.Errorf("duplicate lookup: %w", err)
	}
	if found {
		return &DuplicateError{Match: match}
	}
	return nil
}

// BuildProbe normalizes the record's optional fields into a duplicate
// probe. Email and names are lowercased for case-insensitive matching;
// contact is matched verbatim after trimming.
func BuildProbe(rec Record) Probe {
	probe := Probe{
		Email:   strings.ToLower(strings.TrimSpace(rec.Email)),
		Contact: strings.TrimSpace(rec.Contact),
	}
	first := strings.ToLower(strings.TrimSpace(rec.FirstName))
	last := strings.ToLower(strings.TrimSpace(rec.LastName))
	if first != "" && last != "" && rec.DateOfBirth != nil && !rec.DateOfBirth.IsZero() {
		probe.FirstName = first
		probe.LastName = last
		probe.DateOfBirth = rec.DateOfBirth
	}
	return probe
}
