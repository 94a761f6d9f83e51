package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	appErr "github.com/akshardoc/akshardoc/internal/pkg/errors"
)

// pageCharLimit approximates one printed page of Indic text. Text documents
// are chunked at this size so pricing and parallelism stay page-based for
// every input type.
const pageCharLimit = 3333

// Page is one unit of work and of pricing. PDF inputs yield single-page PDF
// payloads; text inputs yield extracted text directly.
type Page struct {
	Index int
	Text  string
	PDF   []byte
}

func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".txt":
		return true
	}
	return false
}

// Split turns an uploaded file into ordered pages.
func Split(path, originalName string) ([]Page, error) {
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".pdf":
		return splitPDF(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return paginateText(string(data)), nil
	case ".docx":
		text, err := extractDocxText(path)
		if err != nil {
			return nil, err
		}
		return paginateText(text), nil
	}
	return nil, appErr.ErrInvalidFile
}

// splitPDF bursts the document into single-page PDFs so each page can be
// dispatched to a worker independently.
func splitPDF(path string) ([]Page, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInvalidFile, err)
	}
	if count == 0 {
		return nil, appErr.ErrInvalidFile
	}

	tempDir, err := os.MkdirTemp("", "page-split-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	if err := api.SplitFile(path, tempDir, 1, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrInvalidFile, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	pages := make([]Page, 0, count)
	for n := 1; n <= count; n++ {
		pagePath := filepath.Join(tempDir, fmt.Sprintf("%s_%d.pdf", base, n))
		data, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, fmt.Errorf("read split page %d: %w", n, err)
		}
		pages = append(pages, Page{Index: n - 1, PDF: data})
	}
	return pages, nil
}

// paginateText chunks text into page-sized units on paragraph boundaries.
// Page size is counted in runes, not bytes, so Indic scripts paginate at
// the same ratio as Latin text. A paragraph longer than a page is split at
// a danda or space where one exists, at the rune limit otherwise.
func paginateText(text string) []Page {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	var current strings.Builder
	currentRunes := 0
	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		currentRunes = 0
	}
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		for utf8.RuneCountInString(paragraph) > pageCharLimit {
			flush()
			head, rest := splitAtRuneLimit(paragraph, pageCharLimit)
			chunks = append(chunks, head)
			paragraph = rest
		}
		n := utf8.RuneCountInString(paragraph)
		if currentRunes+n > pageCharLimit && current.Len() > 0 {
			flush()
		}
		current.WriteString(paragraph)
		current.WriteString("\n\n")
		currentRunes += n
	}
	flush()

	pages := make([]Page, 0, len(chunks))
	for i, chunk := range chunks {
		pages = append(pages, Page{Index: i, Text: chunk})
	}
	return pages
}

// splitAtRuneLimit cuts s after at most limit runes, preferring the last
// danda or space inside the window so sentences survive the cut. The hard
// cut falls on a rune boundary, never inside a multi-byte character.
func splitAtRuneLimit(s string, limit int) (string, string) {
	cut := len(s)
	count := 0
	for i := range s {
		if count == limit {
			cut = i
			break
		}
		count++
	}
	if cut == len(s) {
		return s, ""
	}
	window := s[:cut]
	if idx := strings.LastIndex(window, "।"); idx >= 0 {
		end := idx + len("।")
		return strings.TrimSpace(window[:end]), strings.TrimSpace(s[end:])
	}
	if idx := strings.LastIndexByte(window, ' '); idx > 0 {
		return strings.TrimSpace(window[:idx]), strings.TrimSpace(s[idx+1:])
	}
	return window, s[cut:]
}

// docxMaxXMLSize caps how far word/document.xml may decompress. Archives
// whose zip metadata stays under the upload limit can still inflate far
// beyond it, so the read itself is bounded too.
const docxMaxXMLSize = 64 << 20

// extractDocxText walks word/document.xml and collects the text runs,
// emitting a blank line per paragraph.
func extractDocxText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrInvalidFile, err)
	}
	defer reader.Close()
	return docxText(&reader.Reader, docxMaxXMLSize)
}

func docxText(reader *zip.Reader, maxXMLSize int64) (string, error) {
	var docEntry *zip.File
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			docEntry = file
			break
		}
	}
	if docEntry == nil {
		return "", appErr.ErrInvalidFile
	}
	if docEntry.UncompressedSize64 > uint64(maxXMLSize) {
		return "", fmt.Errorf("%w: document.xml exceeds %d bytes", appErr.ErrInvalidFile, maxXMLSize)
	}
	opened, err := docEntry.Open()
	if err != nil {
		return "", err
	}
	defer opened.Close()

	var out strings.Builder
	limited := &io.LimitedReader{R: opened, N: maxXMLSize}
	decoder := xml.NewDecoder(limited)
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			if limited.N <= 0 {
				return "", fmt.Errorf("%w: document.xml exceeds %d bytes", appErr.ErrInvalidFile, maxXMLSize)
			}
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrInvalidFile, err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}
