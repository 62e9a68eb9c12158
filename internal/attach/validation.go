package attach

import (
	"fmt"
	"mime"
	"strings"
)

// DefaultMaxBytes is the default size limit for one attachment.
const DefaultMaxBytes = 5 << 20

// DefaultAllowedMediaTypes is the allow-list used when none is configured.
var DefaultAllowedMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"application/pdf",
}

// Policy bounds what can be attached to a draft.
type Policy struct {
	MaxBytes          int64
	AllowedMediaTypes []string
}

// DefaultPolicy returns the default size limit and allow-list.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:          DefaultMaxBytes,
		AllowedMediaTypes: append([]string(nil), DefaultAllowedMediaTypes...),
	}
}

// Candidate is a file offered for a binary field.
type Candidate struct {
	Name     string
	MimeType string
	Data     []byte
}

type compiledPolicy struct {
	maxBytes int64
	allowed  map[string]struct{}
}

func compilePolicy(p Policy) compiledPolicy {
	out := compiledPolicy{maxBytes: p.MaxBytes}
	if out.maxBytes <= 0 {
		out.maxBytes = DefaultMaxBytes
	}
	allowed := p.AllowedMediaTypes
	if allowed == nil {
		allowed = DefaultAllowedMediaTypes
	}
	normalized := map[string]struct{}{}
	for _, raw := range allowed {
		mediaType, err := NormalizeMediaType(raw)
		if err != nil || mediaType == "" {
			continue
		}
		normalized[mediaType] = struct{}{}
	}
	if len(normalized) > 0 {
		out.allowed = normalized
	}
	return out
}

// Validate checks c against p and returns the normalized media type.
func (p Policy) Validate(c Candidate) (string, error) {
	return compilePolicy(p).validate(c)
}

func (p compiledPolicy) validate(c Candidate) (string, error) {
	size := int64(len(c.Data))
	if size == 0 {
		return "", &ValidationError{Reason: ReasonEmptyFile, MaxBytes: p.maxBytes}
	}
	if size > p.maxBytes {
		return "", &ValidationError{Reason: ReasonTooLarge, Size: size, MaxBytes: p.maxBytes}
	}
	mediaType, err := NormalizeMediaType(c.MimeType)
	if err != nil {
		return "", &ValidationError{Reason: ReasonUnsupportedType, Size: size, MediaType: strings.TrimSpace(c.MimeType)}
	}
	if len(p.allowed) == 0 {
		return mediaType, nil
	}
	if _, ok := p.allowed[mediaType]; !ok {
		return "", &ValidationError{Reason: ReasonUnsupportedType, Size: size, MediaType: mediaType}
	}
	return mediaType, nil
}

// NormalizeMediaType lowercases raw and strips parameters.
func NormalizeMediaType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", fmt.Errorf("invalid media type %q", raw)
	}
	return strings.ToLower(strings.TrimSpace(parsed)), nil
}

// ParseMediaTypeList splits a comma separated allow-list.
func ParseMediaTypeList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		mediaType, err := NormalizeMediaType(part)
		if err != nil || mediaType == "" {
			continue
		}
		out = append(out, mediaType)
	}
	return out
}
