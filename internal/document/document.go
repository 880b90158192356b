// Package document decodes uploaded clinical documents into plain text.
// It knows nothing about extraction or rendering; the pipeline receives
// whatever text the decoder produced and performs its own normalization.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEncryptedPDF      = errors.New("pdf is password-protected and cannot be read")
	ErrEmptyDocument     = errors.New("document contains no extractable text")
)

// ExtractText decodes the raw bytes of an uploaded file into plain text,
// dispatching on the file extension.
func ExtractText(fileName string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return string(data), nil
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("checking pdf encryption: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil {
			return "", fmt.Errorf("decrypting pdf: %w", err)
		}
		if !ok {
			return "", ErrEncryptedPDF
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("reading pdf page count: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			// An unreadable page should not sink the whole document.
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyDocument
	}
	return b.String(), nil
}

// extractDOCX pulls paragraph text out of the word/document.xml entry of
// the docx archive. Runs within a paragraph join without separators;
// paragraphs join with newlines.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening docx document part: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("reading docx document part: %w", err)
		}
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	text, err := docxParagraphs(docXML)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func docxParagraphs(docXML []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(docXML))

	var b strings.Builder
	var inText bool
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}
