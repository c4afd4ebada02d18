package pdf

import (
	"fmt"

	"pdf-epub-converter/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// Document wraps a go-fitz handle behind the domain.DocumentSource
// interface. A Document is not safe for concurrent use; concurrent page
// workers must open their own handle through the opener.
type Document struct {
	doc *fitz.Document
}

// Opener implements domain.DocumentOpener on top of go-fitz (MuPDF).
type Opener struct{}

// NewOpener creates a go-fitz backed document opener
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens the PDF at path
func (o *Opener) Open(path string) (domain.DocumentSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &Document{doc: doc}, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// Text extracts the text of a 0-indexed page
func (d *Document) Text(page int) (string, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page+1, err)
	}
	return text, nil
}

// RenderPNG rasterizes a 0-indexed page at the given scale factor relative
// to the PDF's native 72 DPI.
func (d *Document) RenderPNG(page int, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	data, err := d.doc.ImagePNG(page, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return data, nil
}

// Metadata returns the document metadata map (title, author, ...)
func (d *Document) Metadata() map[string]string {
	return d.doc.Metadata()
}

// Close releases the underlying MuPDF handle
func (d *Document) Close() error {
	return d.doc.Close()
}
