package services

import (
	"net/url"
	"strings"
)

// pdfKeywords are the URL substrings that classify a link as a PDF when the
// path extension check is inconclusive.
var pdfKeywords = []string{
	"pdf", "/pdf/", "format=pdf", "type=pdf", "filetype=pdf", "download=pdf",
}

// IsPDFURL reports whether a URL appears to reference a PDF document. This
// is a heuristic over the URL string alone, never a network or content-type
// check, so it is safe and cheap to call for every row. It is total: empty
// or unparseable input classifies as false.
func IsPDFURL(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		if strings.HasSuffix(strings.ToLower(parsed.Path), ".pdf") {
			return true
		}
	}

	lower := strings.ToLower(rawURL)
	for _, keyword := range pdfKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
