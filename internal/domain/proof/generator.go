package proof

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

const (
	qrSize        = 256
	barcodeWidth  = 400
	barcodeHeight = 120
)

// Images renders the two scannable proofs for an issued identifier:
// a QR symbol encoding the verification URL and a Code 128 symbol
// encoding the identifier itself. Both are returned as PNG payloads.
// The function is stateless and runs strictly after the record is
// committed; a failure here never affects the stored record.
func Images(ident, verifyURL string) (qrPNG, barcodePNG []byte, err error) {
	qrCode, err := qr.Encode(verifyURL, qr.M, qr.Auto)
	if err != nil {
		return nil, nil, fmt.Errorf("encode qr for %s: %w", ident, err)
	}
	qrCode, err = barcode.Scale(qrCode, qrSize, qrSize)
	if err != nil {
		return nil, nil, fmt.Errorf("scale qr for %s: %w", ident, err)
	}

	bar, err := code128.Encode(ident)
	if err != nil {
		return nil, nil, fmt.Errorf("encode code128 for %s: %w", ident, err)
	}
	scaledBar, err := barcode.Scale(bar, barcodeWidth, barcodeHeight)
	if err != nil {
		return nil, nil, fmt.Errorf("scale code128 for %s: %w", ident, err)
	}

	var qrBuf, barBuf bytes.Buffer
	if err := png.Encode(&qrBuf, toGray8(qrCode)); err != nil {
		return nil, nil, fmt.Errorf("render qr png: %w", err)
	}
	if err := png.Encode(&barBuf, toGray8(scaledBar)); err != nil {
		return nil, nil, fmt.Errorf("render barcode png: %w", err)
	}
	return qrBuf.Bytes(), barBuf.Bytes(), nil
}

// toGray8 redraws an image into 8-bit grayscale. The barcode library's
// images report a 16-bit color model, and 16-bit PNGs cannot be
// embedded in the badge PDF.
func toGray8(src image.Image) *image.Gray {
	dst := image.NewGray(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
