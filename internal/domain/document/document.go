package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// uploadPrefix matches the "<unix-millis>-<random>-" prefix the upload frontend adds to file names.
var uploadPrefix = regexp.MustCompile(`^\d+-[A-Za-z0-9]+-`)

var (
	errFileNameRequired = errors.New("file name is required")
	errEmptyText        = errors.New("document text is empty")
)

// Document is one loaded unit of source text: a whole file, or one page of a paged file (immutable).
type Document struct {
	id       string
	fileName string
	path     string
	text     string
	size     int64
	modified time.Time
	page     string
}

// New validates and creates a Document. page is empty for unpaged formats.
func New(fileName, path, text string, size int64, modified time.Time, page string) (Document, error) {
	if fileName == "" {
		return Document{}, errFileNameRequired
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("%s: %w", fileName, errEmptyText)
	}

	id := fileName
	if page != "" {
		id = fileName + "#p" + page
	}

	return Document{
		id:       id,
		fileName: fileName,
		path:     path,
		text:     text,
		size:     size,
		modified: modified,
		page:     page,
	}, nil
}

// ID is stable across reindexing as long as the file name (and page) stays the same.
func (d *Document) ID() string { return d.id }

// FileName returns the on-disk file name including any upload prefix.
func (d *Document) FileName() string { return d.fileName }

// DisplayName returns the file name with the upload prefix stripped.
func (d *Document) DisplayName() string { return CleanName(d.fileName) }

// Path returns the file path.
func (d *Document) Path() string { return d.path }

// Text returns the extracted text.
func (d *Document) Text() string { return d.text }

// Size returns the source file size in bytes.
func (d *Document) Size() int64 { return d.size }

// Modified returns the source file modification time.
func (d *Document) Modified() time.Time { return d.modified }

// Page returns the page label, or "" for unpaged formats.
func (d *Document) Page() string { return d.page }

// CleanName strips a leading "<digits>-<token>-" prefix. Names that would become empty are kept as is.
func CleanName(name string) string {
	cleaned := uploadPrefix.ReplaceAllString(name, "")
	if cleaned == "" {
		return name
	}
	return cleaned
}

// File describes an eligible file in the document directory without its content.
type File struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}
