package identifier

import (
	"errors"
	"testing"
	"time"
)

func TestFormatAppendsChecksumOfBody(t *testing.T) {
	bucket := Bucket{Company: "ART", Year: "25", Dept: "ENG"}

	id := Format(bucket, 42)
	if id != "ART-25-ENG-000042-"+Checksum("ART-25-ENG-000042") {
		t.Fatalf("unexpected identifier %q", id)
	}
	if id != "ART-25-ENG-000042-0" {
		t.Fatalf("identifier %q does not match the fixed checksum digit", id)
	}
}

func TestNewBucketDerivesYearAndDeptCode(t *testing.T) {
	issued := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

	bucket := NewBucket("ART", issued, "engineering!")

	if bucket.Year != "25" {
		t.Fatalf("expected two-digit year 25, got %q", bucket.Year)
	}
	if bucket.Dept != "ENG" {
		t.Fatalf("expected dept ENG, got %q", bucket.Dept)
	}
	if bucket.Prefix() != "ART-25-ENG-" {
		t.Fatalf("unexpected prefix %q", bucket.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	bucket := Bucket{Company: "ART", Year: "25", Dept: "MKT"}
	id := Format(bucket, 2)

	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("parse %q: %v", id, err)
	}
	if parsed.Bucket != bucket {
		t.Fatalf("expected bucket %v, got %v", bucket, parsed.Bucket)
	}
	if parsed.Serial != 2 {
		t.Fatalf("expected serial 2, got %d", parsed.Serial)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"",
		"ART-25-ENG-000001",
		"art-25-eng-000001-4",
		"ART-2025-ENG-000001-4",
		"ART-25-ENGX-000001-4",
		"ART-25-ENG-1-4",
	} {
		if _, err := Parse(id); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q): expected ErrMalformed, got %v", id, err)
		}
	}
}

func TestParseRejectsWrongChecksum(t *testing.T) {
	// Correct digit for this body is 4.
	if _, err := Parse("ART-25-ENG-000001-7"); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}
