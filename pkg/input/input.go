// Package input captures requirement text from typed text, uploaded
// documents, or speech transcripts.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes caps uploaded documents and transcripts.
const MaxUploadBytes = 25 << 20

var (
	// ErrBlank is returned when the requirement text is empty after trimming.
	ErrBlank = errors.New("input: requirements are blank")
	// ErrTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("input: upload exceeds 25 MB")
	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("input: unknown mode")
)

// Mode records how the requirements were captured.
type Mode string

const (
	ModeText   Mode = "text"
	ModeUpload Mode = "upload"
	// ModeSpeech accepts text that was already transcribed elsewhere.
	ModeSpeech Mode = "speech"
)

// ParseMode normalises raw; empty means ModeText.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeText:
		return ModeText, nil
	case ModeUpload:
		return ModeUpload, nil
	case ModeSpeech:
		return ModeSpeech, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownMode, raw)
}

// Requirement is the captured user story handed to the parser.
type Requirement struct {
	Text        string `json:"text"`
	Mode        Mode   `json:"mode"`
	Source      string `json:"source,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// FromText wraps typed requirements.
func FromText(text string) (Requirement, error) {
	return fromString(text, ModeText)
}

// FromTranscript wraps a speech transcript.
func FromTranscript(text string) (Requirement, error) {
	return fromString(text, ModeSpeech)
}

func fromString(text string, mode Mode) (Requirement, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Requirement{}, ErrBlank
	}
	if len(trimmed) > MaxUploadBytes {
		return Requirement{}, ErrTooLarge
	}
	return Requirement{Text: trimmed, Mode: mode}, nil
}

// FromFile reads an uploaded document from disk.
func FromFile(path string) (Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		return Requirement{}, fmt.Errorf("input: open %s: %w", path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > MaxUploadBytes {
		return Requirement{}, ErrTooLarge
	}
	return FromReader(filepath.Base(path), "", f)
}

// FromReader reads an uploaded document. contentType may be empty; it is then
// derived from the name's extension or sniffed from the content. Plain text
// and markdown are used verbatim; other documents produce a starter prompt
// naming the file, since their text is not extracted.
func FromReader(name, contentType string, r io.Reader) (Requirement, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Requirement{}, fmt.Errorf("input: read %s: %w", name, err)
	}
	if len(data) > MaxUploadBytes {
		return Requirement{}, ErrTooLarge
	}

	ct := detectContentType(name, contentType, data)
	req := Requirement{Mode: ModeUpload, Source: name, ContentType: ct}
	switch {
	case ct == "text/plain" || ct == "text/markdown":
		req.Text = strings.TrimSpace(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	case ct == "application/pdf":
		req.Text = fmt.Sprintf("[PDF Content from %s]\n\n%s", name, documentPrompt)
	case ct == "application/msword" || ct == docxType:
		req.Text = fmt.Sprintf("[Document Content from %s]\n\n%s", name, wordPrompt)
	case strings.HasPrefix(ct, "image/"):
		req.Text = fmt.Sprintf("[Image uploaded: %s]\n\nPlease describe what you'd like to build based on this image.", name)
	default:
		req.Text = fmt.Sprintf("[File uploaded: %s]\n\nCreate a form based on this document.", name)
	}
	if req.Text == "" {
		return Requirement{}, ErrBlank
	}
	return req, nil
}

const (
	docxType       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	documentPrompt = "Create a comprehensive insurance application form with multi-step journey including personal details, coverage options, and payment processing. The form should include field validations, conditional logic, and integration with payment gateway."
	wordPrompt     = "Create a comprehensive insurance application form with multi-step journey including personal details, coverage options, and payment processing. Include proper validations and business rules."
)

var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": docxType,
}

func detectContentType(name, declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			return mediaType
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return sniffed
}
