// Package fingerprint computes the content-derived keys used to address the
// text and response caches.
//
// A fingerprint is the lowercase hex SHA-256 of its input. For PDFs the input
// is the raw file bytes. For structuring requests it is a length-prefixed
// encoding of every field that can change the service's answer, so two
// requests share a key only when model, prompt template, schema and source
// text all match.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Fingerprint is a hex-encoded SHA-256 digest.
type Fingerprint string

// String returns the hex form.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns an abbreviated form for log lines.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Valid reports whether f looks like a fingerprint produced by this package.
func (f Fingerprint) Valid() bool {
	if len(f) != Size {
		return false
	}
	for _, r := range f {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Parse validates s and returns it as a Fingerprint.
func Parse(s string) (Fingerprint, error) {
	f := Fingerprint(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("invalid fingerprint %q: want %d hex characters", s, Size)
	}
	return f, nil
}

// FromBytes fingerprints raw content such as a PDF file.
func FromBytes(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Request holds every input that influences a structuring response.
type Request struct {
	Model         string // provider model identifier, e.g. "anthropic/claude-3-haiku"
	PromptVersion string // human-maintained template version
	PromptHash    string // hash of the template text, catches unversioned edits
	SchemaVersion string // version of the output schema the response must satisfy
	Text          string // source text sent to the service
}

// FromRequest fingerprints a structuring request.
//
// Fields are normalized (model case and surrounding whitespace, line endings in
// the text) and written with explicit lengths so that no two distinct requests
// encode to the same byte stream.
func FromRequest(r Request) Fingerprint {
	h := sha256.New()
	writeField(h, "model", strings.ToLower(strings.TrimSpace(r.Model)))
	writeField(h, "prompt_version", strings.TrimSpace(r.PromptVersion))
	writeField(h, "prompt_hash", strings.TrimSpace(r.PromptHash))
	writeField(h, "schema_version", strings.TrimSpace(r.SchemaVersion))
	writeField(h, "text", normalizeText(r.Text))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func writeField(w io.Writer, name, value string) {
	// name:len:value\n
	_, _ = w.Write([]byte(name))
	_, _ = w.Write([]byte{':'})
	_, _ = w.Write([]byte(strconv.Itoa(len(value))))
	_, _ = w.Write([]byte{':'})
	_, _ = w.Write([]byte(value))
	_, _ = w.Write([]byte{'\n'})
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
