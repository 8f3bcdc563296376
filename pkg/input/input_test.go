package input_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-journey360/pkg/input"
)

func TestFromText(t *testing.T) {
	req, err := input.FromText("  Create a contact form \n")
	if err != nil {
		t.Fatalf("from text: %v", err)
	}
	if req.Text != "Create a contact form" || req.Mode != input.ModeText {
		t.Fatalf("requirement = %+v", req)
	}

	for _, blank := range []string{"", "   ", "\n\t"} {
		if _, err := input.FromText(blank); !errors.Is(err, input.ErrBlank) {
			t.Fatalf("FromText(%q) error = %v", blank, err)
		}
	}
}

func TestFromTranscript(t *testing.T) {
	req, err := input.FromTranscript("I need a travel insurance form")
	if err != nil {
		t.Fatalf("from transcript: %v", err)
	}
	if req.Mode != input.ModeSpeech {
		t.Fatalf("mode = %q", req.Mode)
	}
}

func TestFromReader_ContentTypes(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		wantType    string
		wantPrefix  string
	}{
		{name: "story.txt", body: "\xef\xbb\xbfBuild a claim form", wantType: "text/plain", wantPrefix: "Build a claim form"},
		{name: "story.md", body: "# Form\nwith email", wantType: "text/markdown", wantPrefix: "# Form"},
		{name: "requirements.pdf", body: "%PDF-1.4", wantType: "application/pdf", wantPrefix: "[PDF Content from requirements.pdf]"},
		{name: "requirements.docx", body: "PK", wantType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", wantPrefix: "[Document Content from requirements.docx]"},
		{name: "upload", contentType: "image/png; charset=binary", body: "\x89PNG", wantType: "image/png", wantPrefix: "[Image uploaded: upload]"},
		{name: "data.bin", contentType: "application/octet-stream", body: "\x00\x01", wantType: "application/octet-stream", wantPrefix: "[File uploaded: data.bin]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := input.FromReader(tc.name, tc.contentType, strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("from reader: %v", err)
			}
			if req.ContentType != tc.wantType {
				t.Fatalf("content type = %q, want %q", req.ContentType, tc.wantType)
			}
			if !strings.HasPrefix(req.Text, tc.wantPrefix) {
				t.Fatalf("text = %q", req.Text)
			}
			if req.Mode != input.ModeUpload || req.Source != tc.name {
				t.Fatalf("requirement = %+v", req)
			}
		})
	}
}

func TestFromReader_Limits(t *testing.T) {
	if _, err := input.FromReader("empty.txt", "", strings.NewReader("  \n")); !errors.Is(err, input.ErrBlank) {
		t.Fatalf("expected ErrBlank, got %v", err)
	}

	big := strings.NewReader(strings.Repeat("a", input.MaxUploadBytes+1))
	if _, err := input.FromReader("big.txt", "", big); !errors.Is(err, input.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte("Create a registration form with email"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	req, err := input.FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if req.Source != "requirements.txt" || req.Text != "Create a registration form with email" {
		t.Fatalf("requirement = %+v", req)
	}

	if _, err := input.FromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseMode(t *testing.T) {
	for raw, want := range map[string]input.Mode{"": input.ModeText, "Upload": input.ModeUpload, " speech ": input.ModeSpeech} {
		got, err := input.ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := input.ParseMode("fax"); !errors.Is(err, input.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
