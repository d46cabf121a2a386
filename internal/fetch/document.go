package fetch

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
)

// documentKind returns the document mime type for a response, or "" for markup.
func documentKind(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	switch mediaType {
	case mimePDF, mimeDOCX:
		return mediaType
	case mimeZip:
		return mimeZip
	default:
		return ""
	}
}

// documentText extracts whitespace-collapsed text from a PDF or DOCX payload.
func documentText(data []byte, kind string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if kind == mimeZip {
		if !hasDocxBody(data) {
			return "", fmt.Errorf("unsupported document type: %s", kind)
		}
		kind = mimeDOCX
	}

	var (
		text string
		err  error
	)
	switch kind {
	case mimePDF:
		text, err = pdfText(data)
	case mimeDOCX:
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("unsupported document type: %s", kind)
	}
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("docx: word/document.xml not found")
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var buf strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteByte(' ')
			}
		}
	}
	return buf.String(), nil
}

func hasDocxBody(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
