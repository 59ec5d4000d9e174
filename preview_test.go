package halo

import (
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestCaptureBuffer_SmallBody(t *testing.T) {
	buf := NewCaptureBuffer(100)
	n, err := buf.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	if buf.Truncated() {
		t.Error("small body must not be truncated")
	}
	if buf.Size() != 5 {
		t.Errorf("size: got %d", buf.Size())
	}
	if string(buf.Bytes()) != "hello" {
		t.Errorf("bytes: got %q", buf.Bytes())
	}
}

func TestCaptureBuffer_TruncatesAtBound(t *testing.T) {
	buf := NewCaptureBuffer(10)
	body := strings.Repeat("x", 25)

	n, err := buf.Write([]byte(body))
	if err != nil || n != 25 {
		t.Fatalf("write must report full success: n=%d err=%v", n, err)
	}

	if !buf.Truncated() {
		t.Error("expected truncation")
	}
	if len(buf.Bytes()) != 10 {
		t.Errorf("captured %d bytes, want exactly 10", len(buf.Bytes()))
	}
	if buf.Size() != 25 {
		t.Errorf("size must count all bytes: got %d", buf.Size())
	}
}

func TestCaptureBuffer_MultipleWrites(t *testing.T) {
	buf := NewCaptureBuffer(8)
	for i := 0; i < 4; i++ {
		if n, _ := buf.Write([]byte("abc")); n != 3 {
			t.Fatalf("write %d short: n=%d", i, n)
		}
	}

	if got := string(buf.Bytes()); got != "abcabcab" {
		t.Errorf("captured %q", got)
	}
	if buf.Size() != 12 {
		t.Errorf("size: got %d", buf.Size())
	}
}

func TestCaptureBuffer_CaptureReader(t *testing.T) {
	buf := NewCaptureBuffer(4)
	r, err := buf.Capture(strings.NewReader("full payload"))
	if err != nil {
		t.Fatal(err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "full payload" {
		t.Errorf("consumer must see the full body, got %q", out)
	}
	if string(buf.Bytes()) != "full" {
		t.Errorf("captured %q", buf.Bytes())
	}
}

func TestFinalize_RedactsJSON(t *testing.T) {
	buf := NewCaptureBuffer(1024)
	buf.Write([]byte(`{"user":"alice","password":"hunter2","nested":{"api_key":"k","ok":1},"items":[{"token":"t"}]}`))

	p := buf.Finalize("application/json", nil)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(p.Body), &decoded); err != nil {
		t.Fatalf("redacted body must stay valid JSON: %v", err)
	}
	if decoded["password"] != "***" {
		t.Errorf("password not masked: %v", decoded["password"])
	}
	if decoded["user"] != "alice" {
		t.Errorf("non-sensitive value altered: %v", decoded["user"])
	}
	nested := decoded["nested"].(map[string]any)
	if nested["api_key"] != "***" {
		t.Errorf("nested api_key not masked: %v", nested["api_key"])
	}
	item := decoded["items"].([]any)[0].(map[string]any)
	if item["token"] != "***" {
		t.Errorf("token in array not masked: %v", item["token"])
	}

	if len(p.RedactedKeys) != 3 {
		t.Errorf("redacted keys: got %v", p.RedactedKeys)
	}
}

func TestFinalize_SubstringKeyMatch(t *testing.T) {
	buf := NewCaptureBuffer(1024)
	buf.Write([]byte(`{"X-Api-Key":"k","session_token":"s"}`))

	p := buf.Finalize("application/json", nil)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(p.Body), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["X-Api-Key"] != "***" || decoded["session_token"] != "***" {
		t.Errorf("substring matching failed: %v", decoded)
	}
}

func TestFinalize_CustomRedactKeys(t *testing.T) {
	buf := NewCaptureBuffer(1024)
	buf.Write([]byte(`{"ssn":"123","password":"visible"}`))

	p := buf.Finalize("application/json", []string{"ssn"})

	var decoded map[string]any
	if err := json.Unmarshal([]byte(p.Body), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["ssn"] != "***" {
		t.Error("custom key not masked")
	}
	if decoded["password"] != "visible" {
		t.Error("custom keys must replace the defaults, not extend them")
	}
}

func TestFinalize_NonJSONOpaque(t *testing.T) {
	buf := NewCaptureBuffer(1024)
	buf.Write([]byte("plain text password=hunter2"))

	p := buf.Finalize("text/plain", nil)
	if p.Body != "plain text password=hunter2" {
		t.Errorf("non-JSON body must pass through opaque: %q", p.Body)
	}
	if len(p.RedactedKeys) != 0 {
		t.Errorf("no keys should be redacted: %v", p.RedactedKeys)
	}
}

func TestFinalize_TruncatedJSONWithheld(t *testing.T) {
	buf := NewCaptureBuffer(24)
	buf.Write([]byte(`{"password":"hunter2","x":1}`))

	p := buf.Finalize("application/json", nil)
	if !p.Truncated {
		t.Fatal("expected truncation")
	}
	// Truncation broke the JSON, so redaction never ran. The raw prefix
	// still contains the secret and must not be carried through.
	if strings.Contains(p.Body, "hunter2") {
		t.Errorf("secret leaked: %q", p.Body)
	}
	if p.Body != "<truncated json withheld>" {
		t.Errorf("got %q", p.Body)
	}
}

func TestFinalize_TruncatedNonJSONOpaque(t *testing.T) {
	buf := NewCaptureBuffer(10)
	buf.Write([]byte("plain text body that keeps going"))

	p := buf.Finalize("text/plain", nil)
	if !p.Truncated {
		t.Fatal("expected truncation")
	}
	if p.Body != "plain text" {
		t.Errorf("non-JSON prefix must pass through opaque: %q", p.Body)
	}
}

func TestFinalize_Binary(t *testing.T) {
	buf := NewCaptureBuffer(16)
	buf.Write([]byte{0xff, 0xfe, 0x00, 0x01})

	p := buf.Finalize("application/octet-stream", nil)
	if p.Body != "<binary>" {
		t.Errorf("got %q", p.Body)
	}
}

func TestFinalize_Empty(t *testing.T) {
	buf := NewCaptureBuffer(16)
	p := buf.Finalize("", nil)
	if p.Body != "" || p.Truncated || p.Size != 0 {
		t.Errorf("empty capture: %+v", p)
	}
}

func TestPreviewConfig_ShouldCapture(t *testing.T) {
	cases := []struct {
		name string
		cfg  PreviewConfig
		path string
		want bool
	}{
		{"disabled", PreviewConfig{}, "/api/x", false},
		{"enabled all paths", PreviewConfig{Enabled: true}, "/anything", true},
		{"exact match", PreviewConfig{Enabled: true, Paths: []string{"/api/orders"}}, "/api/orders", true},
		{"prefix match", PreviewConfig{Enabled: true, Paths: []string{"/api/"}}, "/api/orders", true},
		{"no match", PreviewConfig{Enabled: true, Paths: []string{"/api/"}}, "/health", false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ShouldCapture(tt.path); got != tt.want {
				t.Errorf("got %v want %v", got, tt.want)
			}
		})
	}
}
