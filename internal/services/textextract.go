package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PlainTextExtractor is the primary local text-extraction capability: a
// pure-Go PDF reader that decodes the document's text content directly.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Name() string { return "plaintext" }

func (PlainTextExtractor) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to decode text from %s: %w", path, err)
	}
	content, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("failed to read text from %s: %w", path, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// ContentStreamExtractor is the fallback capability: it extracts the raw
// content streams with pdfcpu into a scratch directory and keeps whatever
// printable text they contain. Cruder than PlainTextExtractor, but it
// handles documents the primary reader chokes on.
type ContentStreamExtractor struct{}

func (ContentStreamExtractor) Name() string { return "contentstream" }

func (ContentStreamExtractor) ExtractText(path string) (string, error) {
	tempDir, err := os.MkdirTemp("", "paperflow-extract-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ExtractContentFile(path, tempDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract content from %s: %w", path, err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", fmt.Errorf("failed to list extracted content: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			continue
		}
		b.Write(filterPrintable(raw))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}

// filterPrintable keeps printable runes and basic whitespace, dropping the
// binary operators that content streams mix in with the text.
func filterPrintable(in []byte) []byte {
	var out strings.Builder
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			if b := in[0]; printableByte(b) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if printableRune(r) {
			out.WriteRune(r)
		}
	}
	return []byte(out.String())
}

func printableByte(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127)
}

func printableRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return true
	}
	return r >= 32 && r != 0xFFFD
}
