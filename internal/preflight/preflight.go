// Package preflight validates an upload candidate before any bytes go
// over the wire: the file must exist, fit the size cap, and open as a
// PDF. The backend enforces the same rules; checking here turns a
// round-trip failure into an instant local one.
package preflight

import (
	"fmt"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Check returns the page count of the PDF at path. maxBytes <= 0 means
// no size cap.
func Check(path string, maxBytes int64) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return 0, fmt.Errorf("%s exceeds max upload size (%d > %d bytes)", path, info.Size(), maxBytes)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return 0, fmt.Errorf("only PDF files are supported")
	}

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("not a readable PDF: %w", err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}
