// Package extract provides PDF text extraction, one string per page.
package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor extracts page texts from PDF files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages reads the PDF at path and returns its page texts in document
// order, one entry per page. Pages whose text cannot be decoded contribute an
// empty string rather than failing the whole document. Returns an error only
// when the file itself cannot be opened or parsed as a PDF.
func (e *Extractor) ExtractPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()
	return readPages(r)
}

// ExtractPagesBytes extracts page texts from in-memory PDF content.
func (e *Extractor) ExtractPagesBytes(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return readPages(r)
}

// ExtractPage returns the text of a single 1-based page. Returns an error when
// the file cannot be opened or the page number is out of range.
func (e *Extractor) ExtractPage(path string, pageNumber int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()
	if pageNumber < 1 || pageNumber > r.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", pageNumber, r.NumPage())
	}
	return pageText(r, pageNumber), nil
}

// PageCount returns the number of pages in the PDF at path.
func (e *Extractor) PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

func readPages(r *pdf.Reader) ([]string, error) {
	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, pageText(r, i))
	}
	return pages, nil
}

func pageText(r *pdf.Reader, pageNumber int) string {
	page := r.Page(pageNumber)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
