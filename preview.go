// preview.go captures a bounded preview of response bodies for access logs.
//
// The capture is a pure side channel: bytes are copied into a fixed-size
// buffer as the handler writes them, and the real response is never delayed,
// altered or truncated. Memory per response is bounded by MaxBytes.
package halo

import (
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"
)

// RedactMask replaces sensitive values in structured previews.
const RedactMask = "***"

// DefaultRedactKeys are the field-name matchers masked in structured
// previews when PreviewConfig.RedactKeys is empty. Matching is
// case-insensitive substring, so "x-api-key" and "Authorization" both hit.
var DefaultRedactKeys = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"password",
	"passwd",
	"secret",
	"token",
	"access_token",
	"refresh_token",
	"api_token",
	"api_key",
}

// ShouldCapture reports whether a response body preview should be captured
// for the given request path. Patterns match exactly or as a prefix; an
// empty list captures every path when capture is enabled.
func (c PreviewConfig) ShouldCapture(path string) bool {
	if !c.Enabled {
		return false
	}
	if len(c.Paths) == 0 {
		return true
	}
	for _, p := range c.Paths {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CaptureBuffer buffers the first maxBytes of whatever is written through it
// while counting the total. It never blocks or fails: Write always reports
// full success so the caller's write path is unaffected.
type CaptureBuffer struct {
	maxBytes int
	buf      []byte
	total    int64
}

// NewCaptureBuffer returns a buffer bounded at maxBytes.
func NewCaptureBuffer(maxBytes int) *CaptureBuffer {
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &CaptureBuffer{maxBytes: maxBytes}
}

// Write records up to the remaining capacity of p and counts all of it.
func (b *CaptureBuffer) Write(p []byte) (int, error) {
	b.total += int64(len(p))
	if remaining := b.maxBytes - len(b.buf); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		b.buf = append(b.buf, p...)
	}
	return len(p), nil
}

// Truncated reports whether the body exceeded the buffer bound.
func (b *CaptureBuffer) Truncated() bool {
	return b.total > int64(b.maxBytes)
}

// Size returns the total number of body bytes observed, captured or not.
func (b *CaptureBuffer) Size() int64 {
	return b.total
}

// Bytes returns the captured prefix. The slice aliases the internal buffer.
func (b *CaptureBuffer) Bytes() []byte {
	return b.buf
}

// Capture drains r through the buffer and returns a reader yielding the full
// original content. Used for request bodies, where the payload must remain
// readable by the handler after the preview is taken.
func (b *CaptureBuffer) Capture(r io.Reader) (io.Reader, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	_, _ = b.Write(all)
	return strings.NewReader(string(all)), nil
}

// Preview is the finalized body preview attached to an access record.
type Preview struct {
	// Body is the captured prefix, redacted when it parsed as JSON.
	Body string

	// Truncated reports whether the original body exceeded the bound.
	Truncated bool

	// Size is the total size of the original body in bytes.
	Size int64

	// RedactedKeys lists the keys whose values were masked, in encounter
	// order, deduplicated.
	RedactedKeys []string

	// ContentType is the response content type, when known.
	ContentType string
}

// Finalize converts the captured bytes into a Preview. JSON bodies get
// recursive key-based redaction. A truncated body with a JSON content type
// that no longer parses is withheld entirely, since its raw prefix could
// carry values that redaction would have masked. Anything else that does not
// parse as JSON is carried as an opaque string when it is valid UTF-8, or
// summarized when it is not.
func (b *CaptureBuffer) Finalize(contentType string, redactKeys []string) Preview {
	p := Preview{
		Truncated:   b.Truncated(),
		Size:        b.Size(),
		ContentType: contentType,
	}

	raw := b.Bytes()
	if len(raw) == 0 {
		return p
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if len(redactKeys) == 0 {
			redactKeys = DefaultRedactKeys
		}
		redacted, keys := redactValue(parsed, redactKeys, nil)
		if encoded, err := json.Marshal(redacted); err == nil {
			p.Body = string(encoded)
			p.RedactedKeys = keys
			return p
		}
	}

	if p.Truncated && strings.Contains(strings.ToLower(contentType), "json") {
		p.Body = "<truncated json withheld>"
		return p
	}

	if utf8.Valid(raw) {
		p.Body = string(raw)
	} else {
		p.Body = "<binary>"
	}
	return p
}

// redactValue walks a decoded JSON value and masks values whose key matches
// any redact pattern. Returns the redacted value and the accumulated list of
// masked keys.
func redactValue(v any, patterns []string, keys []string) (any, []string) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if matchesRedactKey(k, patterns) {
				out[k] = RedactMask
				keys = appendUnique(keys, k)
				continue
			}
			out[k], keys = redactValue(inner, patterns, keys)
		}
		return out, keys
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i], keys = redactValue(inner, patterns, keys)
		}
		return out, keys
	default:
		return v, keys
	}
}

func matchesRedactKey(key string, patterns []string) bool {
	lower := strings.ToLower(key)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func appendUnique(keys []string, k string) []string {
	for _, existing := range keys {
		if existing == k {
			return keys
		}
	}
	return append(keys, k)
}
