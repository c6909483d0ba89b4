package docstore

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// page is a unit of extracted text. label is empty for unpaged formats.
type page struct {
	label string
	text  string
}

type loaderFunc func(path string) ([]page, error)

// loaders maps lower-case extensions to text extractors.
var loaders = map[string]loaderFunc{
	".txt":  loadPlain,
	".md":   loadPlain,
	".pdf":  loadPDF,
	".docx": loadDOCX,
}

func loadPlain(path string) ([]page, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured directory listing
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return []page{{text: text}}, nil
}

// loadPDF returns one page per PDF page, labelled "1".."n".
func loadPDF(path string) (pages []page, err error) {
	// ledongthuc/pdf паникует на битых файлах
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, page{label: strconv.Itoa(i), text: text})
	}
	return pages, nil
}

// loadDOCX extracts paragraph text from word/document.xml.
func loadDOCX(path string) ([]page, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}

		text, err := parseDocumentXML(content)
		if err != nil {
			return nil, err
		}
		return []page{{text: text}}, nil
	}
	return nil, fmt.Errorf("docx: word/document.xml not found")
}

type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
