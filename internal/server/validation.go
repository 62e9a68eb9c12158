package server

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

var errNoFields = errors.New("at least one draft field is required")

const sniffLength = 512

// mediaTypeFor returns the declared media type, or the type sniffed from the
// first bytes of data when none was declared.
func mediaTypeFor(declared string, data []byte) (string, string) {
	declared = strings.TrimSpace(declared)
	if declared != "" {
		return declared, ""
	}
	head := data
	if len(head) > sniffLength {
		head = head[:sniffLength]
	}
	sniffed := http.DetectContentType(head)
	if parsed, _, err := mime.ParseMediaType(sniffed); err == nil {
		sniffed = parsed
	}
	return sniffed, "sniffed"
}

// contentDisposition builds an attachment disposition header for name.
func contentDisposition(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	if header := mime.FormatMediaType("attachment", map[string]string{"filename": name}); header != "" {
		return header
	}
	return "attachment"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
