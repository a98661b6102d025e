// Package archive persists assembled documents. An archive accumulates
// documents in memory and writes one chunk file per commit, so the volume of
// un-persisted output stays bounded by the caller's commit cadence.
package archive

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/assemble"
)

// Supported output formats.
const (
	TextFormat  = "text"
	JSONLFormat = "jsonl"
)

// SupportedFormats lists the recognized out_format values.
var SupportedFormats = []string{TextFormat, JSONLFormat}

// Archive receives assembled documents and persists them in chunks.
type Archive interface {
	AddData(doc assemble.Document, meta map[string]string) error

	// Commit flushes everything added since the previous commit into a
	// chunk file named after label. Committing an empty archive is a no-op.
	Commit(label string) error
}

// New returns an archive writing chunks of the given format under outDir.
func New(format, outDir string) (Archive, error) {
	switch format {
	case TextFormat:
		return NewTextArchive(outDir), nil
	case JSONLFormat:
		return NewJSONLArchive(outDir), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: %v)", format, SupportedFormats)
	}
}

// TextArchive writes plain-text chunks: one document rendered by
// Document.Text, blank-line separated.
type TextArchive struct {
	outDir  string
	buf     bytes.Buffer
	entropy *ulid.MonotonicEntropy
}

// NewTextArchive creates a text archive writing under outDir.
func NewTextArchive(outDir string) *TextArchive {
	return &TextArchive{
		outDir:  outDir,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// AddData appends the plain-text rendering of doc. meta is ignored in this
// format.
func (a *TextArchive) AddData(doc assemble.Document, meta map[string]string) error {
	if a.buf.Len() > 0 {
		a.buf.WriteString("\n\n")
	}
	a.buf.WriteString(doc.Text())
	return nil
}

// Commit writes the accumulated text to <label>_<ulid>.txt and resets the
// buffer.
func (a *TextArchive) Commit(label string) error {
	return writeChunk(a.outDir, label, "txt", &a.buf, a.entropy)
}

// JSONLArchive writes one JSON object per line.
type JSONLArchive struct {
	outDir  string
	buf     bytes.Buffer
	entropy *ulid.MonotonicEntropy
}

// NewJSONLArchive creates a JSONL archive writing under outDir.
func NewJSONLArchive(outDir string) *JSONLArchive {
	return &JSONLArchive{
		outDir:  outDir,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

type jsonlRecord struct {
	assemble.Document
	Meta map[string]string `json:"meta,omitempty"`
}

// AddData appends doc as one JSON line; meta, when present, is carried in a
// "meta" field.
func (a *JSONLArchive) AddData(doc assemble.Document, meta map[string]string) error {
	enc := json.NewEncoder(&a.buf)
	return enc.Encode(jsonlRecord{Document: doc, Meta: meta})
}

// Commit writes the accumulated lines to <label>_<ulid>.jsonl and resets the
// buffer.
func (a *JSONLArchive) Commit(label string) error {
	return writeChunk(a.outDir, label, "jsonl", &a.buf, a.entropy)
}

func writeChunk(outDir, label, ext string, buf *bytes.Buffer, entropy *ulid.MonotonicEntropy) error {
	if buf.Len() == 0 {
		return nil
	}
	if label == "" {
		label = "data"
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	path := filepath.Join(outDir, fmt.Sprintf("%s_%s.%s", label, id, ext))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write chunk %s: %w", path, err)
	}

	buf.Reset()
	return nil
}
