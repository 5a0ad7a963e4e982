// Package extract pulls plain text out of uploaded documents. Plain-text and
// markdown files pass through, HTML is stripped to visible text, DOCX is read
// from its zip archive, and PDF goes through the pdftotext CLI tool.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/trendlens/trendlens/internal/config"
	"github.com/trendlens/trendlens/internal/webfetch"
)

// Extractor converts uploaded documents to plain text, dispatching on the
// filename extension.
type Extractor struct {
	cfg config.ExtractConfig
}

// New creates an Extractor from config.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract returns the document's text. Unsupported extensions and oversized
// files are errors.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	if e.cfg.MaxFileBytes > 0 && int64(len(data)) > e.cfg.MaxFileBytes {
		return "", eris.Errorf("extract: file %s exceeds %d bytes", filename, e.cfg.MaxFileBytes)
	}

	var text string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		text, err = plainText(data)
	case ".html", ".htm":
		text, err = webfetch.HTMLToText(bytes.NewReader(data))
	case ".docx":
		text, err = docxText(data)
	case ".pdf":
		text, err = e.pdfText(data)
	default:
		return "", eris.Errorf("extract: unsupported file type %q", filepath.Ext(filename))
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", eris.Errorf("extract: no text found in %s", filename)
	}
	return text, nil
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", eris.New("extract: file is not valid UTF-8 text")
	}
	return string(data), nil
}

// docxText reads word/document.xml from the archive and joins paragraph text.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "extract: open docx")
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", eris.Wrap(err, "extract: open document.xml")
			}
			docXML, err = io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return "", eris.Wrap(err, "extract: read document.xml")
			}
			break
		}
	}
	if docXML == nil {
		return "", eris.New("extract: docx has no document.xml")
	}

	return wordXMLText(docXML)
}

// wordXMLText walks WordprocessingML, collecting w:t runs and breaking lines
// at w:p paragraph ends.
func wordXMLText(docXML []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))

	var sb strings.Builder
	var inText bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "extract: parse document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// pdfText shells out to pdftotext, which wants a file path, so the upload is
// staged in a temp file.
func (e *Extractor) pdfText(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "trendlens-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "extract: temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", eris.Wrap(err, "extract: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "extract: close temp file")
	}

	binPath := e.cfg.PdfToTextPath
	if binPath == "" {
		binPath = "pdftotext"
	}
	cmd := exec.CommandContext(context.Background(), binPath, "-layout", tmp.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extract: pdftotext failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
