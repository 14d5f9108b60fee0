package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxSerial is the highest serial a bucket can issue. Reaching it
// fails further allocations in that bucket instead of wrapping.
const MaxSerial = 999999

// Bucket scopes serial sequencing: company code, two-digit year and
// three-letter department code.
type Bucket struct {
	Company string
	Year    string
	Dept    string
}

func NewBucket(company string, issuedAt time.Time, department string) Bucket {
	return Bucket{
		Company: company,
		Year:    issuedAt.Format("06"),
		Dept:    DeptCode(department),
	}
}

func (b Bucket) String() string {
	return b.Company + "-" + b.Year + "-" + b.Dept
}

// Prefix is the identifier prefix shared by every record in the
// bucket, including the trailing hyphen before the serial.
func (b Bucket) Prefix() string {
	return b.String() + "-"
}

// Format renders the full identifier for a serial within a bucket:
// <Company>-<YY>-<Dept3>-<Serial6>-<Checksum1>.
func Format(b Bucket, serial int) string {
	body := fmt.Sprintf("%s-%s-%s-%06d", b.Company, b.Year, b.Dept, serial)
	return body + "-" + Checksum(body)
}

var pattern = regexp.MustCompile(`^([A-Z0-9]+)-(\d{2})-([A-Z]{3})-(\d{6})-(\d)$`)

type Parsed struct {
	Bucket Bucket
	Serial int
}

// Parse validates the identifier grammar and its checksum digit.
// A grammar failure returns ErrMalformed, a wrong trailing digit
// ErrChecksumMismatch.
func Parse(id string) (Parsed, error) {
	m := pattern.FindStringSubmatch(id)
	if m == nil {
		return Parsed{}, ErrMalformed
	}
	body := strings.TrimSuffix(id, "-"+m[5])
	if Checksum(body) != m[5] {
		return Parsed{}, ErrChecksumMismatch
	}
	serial, err := strconv.Atoi(m[4])
	if err != nil {
		return Parsed{}, ErrMalformed
	}
	return Parsed{
		Bucket: Bucket{Company: m[1], Year: m[2], Dept: m[3]},
		Serial: serial,
	}, nil
}

// serialSegment extracts the six-digit serial (fourth hyphen-delimited
// segment) from a previously issued identifier.
func serialSegment(id string) (int, error) {
	parts := strings.Split(id, "-")
	if len(parts) < 4 {
		return 0, fmt.Errorf("identifier %q has no serial segment: %w", id, ErrMalformed)
	}
	serial, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, fmt.Errorf("identifier %q serial segment: %w", id, ErrMalformed)
	}
	return serial, nil
}
