package employee

import "time"

// Employee is a stored staff record. Identifier is assigned once at
// registration and never changes afterwards.
type Employee struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Department  string     `json:"department"`
	DeptCode    string     `json:"deptCode"`
	Contact     string     `json:"contact,omitempty"`
	Email       string     `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	PhotoPath   string     `json:"photoPath,omitempty"`
	QRPath      string     `json:"qrPath,omitempty"`
	BarcodePath string     `json:"barcodePath,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// HasProofs reports whether both scannable proofs have been stored.
func (e Employee) HasProofs() bool {
	return e.QRPath != "" && e.BarcodePath != ""
}
