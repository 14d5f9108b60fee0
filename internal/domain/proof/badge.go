package proof

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Badge carries the fields printed on an ID badge.
type Badge struct {
	Identifier string
	FullName   string
	Department string
	IssuedAt   time.Time
}

// BadgePDF renders a printable A7 landscape badge with the holder's
// name, department, identifier and the QR proof.
func BadgePDF(b Badge, qrPNG []byte) ([]byte, error) {
	// gofpdf has no built-in "A7" page size; pass the A7 portrait
	// dimensions (74x105 mm) explicitly.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(60, 8, b.FullName)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(60, 6, b.Department)
	pdf.Ln(8)
	pdf.SetFont("Courier", "B", 11)
	pdf.Cell(60, 6, b.Identifier)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 7)
	pdf.Cell(60, 5, "Issued "+b.IssuedAt.Format("2006-01-02"))

	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("badge-qr", opts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("badge-qr", 72, 8, 24, 24, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render badge pdf for %s: %w", b.Identifier, err)
	}
	return buf.Bytes(), nil
}
