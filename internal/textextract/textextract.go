package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/gen2brain/go-fitz"
)

var (
	// ErrUnsupportedType is returned for file types with no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a document yields only whitespace.
	ErrNoText = errors.New("document contains no extractable text")
)

type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDOCX FileType = "docx"
	TypeText FileType = "txt"
)

// ParseFileType accepts an extension ("pdf", ".PDF"), a file name or a MIME
// type.
func ParseFileType(s string) (FileType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, "/") {
		if ext := filepath.Ext(s); ext != "" {
			s = ext
		}
	}
	s = strings.TrimPrefix(s, ".")

	switch s {
	case "pdf", "application/pdf":
		return TypePDF, nil
	case "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return TypeDOCX, nil
	case "txt", "text", "md", "text/plain", "text/markdown":
		return TypeText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Extract returns the plain text of a document.
func Extract(data []byte, fileType string) (string, error) {
	ft, err := ParseFileType(fileType)
	if err != nil {
		return "", err
	}

	var text string
	switch ft {
	case TypePDF:
		text, err = pdfText(data)
	case TypeDOCX:
		text, err = docxText(data)
	case TypeText:
		text, err = plainText(data)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to read text of page %d: %w", i, err)
		}
		b.WriteString(page)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to convert DOCX: %w", err)
	}
	return text, nil
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}
