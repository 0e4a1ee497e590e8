// Package extract pulls registration details out of uploaded compliance
// documents.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"
)

// MaxPages bounds how much of a document is scanned; certificate details sit
// on the first pages.
const MaxPages = 3

// PDFText returns the text of the first maxPages pages of content.
//
// rsc.io/pdf panics on some malformed files, so panics are turned into errors.
func PDFText(content []byte, maxPages int) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	pages := reader.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= pages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// IsPDF sniffs the PDF magic header.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), []byte("%PDF-"))
}

// FromPDF extracts registration fields from a PDF document.
func FromPDF(content []byte) (Fields, error) {
	text, err := PDFText(content, MaxPages)
	if err != nil {
		return Fields{}, fmt.Errorf("pdf text extraction failed: %w", err)
	}
	return FromText(text), nil
}
