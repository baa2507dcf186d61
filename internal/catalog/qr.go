package catalog

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/scanprice/internal/product/domain"
)

const (
	DefaultQRSize = 256
	MinQRSize     = 64
)

// ErrInvalidSize is returned when the requested size cannot fit one pixel per
// module of the encoded symbol.
var ErrInvalidSize = errors.New("invalid_size")

// QRCode renders content as a square PNG of size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	if size < code.Bounds().Dx() {
		return nil, fmt.Errorf("%w: %d px is below the %d module symbol", ErrInvalidSize, size, code.Bounds().Dx())
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QRFileName is the archive entry name for a product's code.
func QRFileName(p domain.Product) string {
	name := slug.Make(p.Name)
	if name == "" {
		return fmt.Sprintf("%s.png", p.ID)
	}
	return fmt.Sprintf("%s-%s.png", name, p.ID)
}

// WriteQRArchive streams a ZIP holding one QR PNG per product.
func WriteQRArchive(w io.Writer, base string, products []domain.Product, size int) error {
	zw := zip.NewWriter(w)
	for _, p := range products {
		img, err := QRCode(ProductURL(base, p.ID), size)
		if err != nil {
			return fmt.Errorf("qr for %s: %w", p.ID, err)
		}
		f, err := zw.Create(QRFileName(p))
		if err != nil {
			return err
		}
		if _, err := f.Write(img); err != nil {
			return err
		}
	}
	return zw.Close()
}
