package tools

import (
	"strings"
	"testing"
)

func TestDetectContent(t *testing.T) {
	longRun := strings.Repeat("QUJD", 60)
	tests := []struct {
		name     string
		in       string
		wantMIME string
		wantData string
	}{
		{"prose", "A project about renewable energy communities.", "", ""},
		{"short token", "Innovation", "", ""},
		{"data uri", "data:image/png;base64,iVBORw0KGgoAAAA", "image/png", "iVBORw0KGgoAAAA"},
		{"pdf magic", "JVBERi0xLjQK", "application/pdf", "JVBERi0xLjQK"},
		{"jpeg magic", "/9j/4AAQSkZJRg==", "image/jpeg", "/9j/4AAQSkZJRg=="},
		{"long base64 run", longRun, "application/pdf", longRun},
		{"wrapped base64", longRun[:100] + "\n" + longRun[100:], "application/pdf", longRun},
		{"magic prefix in prose", "/9j/ is how jpeg starts", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DetectContent(tt.in)
			if c.MIMEType != tt.wantMIME || c.Data != tt.wantData {
				t.Errorf("DetectContent() = {%q, %q}, want {%q, %q}", c.MIMEType, c.Data, tt.wantMIME, tt.wantData)
			}
			if tt.wantData == "" && c.Text != tt.in {
				t.Errorf("text content altered: %q", c.Text)
			}
		})
	}
}

func TestContentsFromAttachmentObjects(t *testing.T) {
	p := Params{"files": []any{
		map[string]any{"name": "call.pdf", "mimeType": "application/pdf", "data": "JVBERi0xLjQK"},
		"plain notes",
	}}
	got := p.Contents("files")
	if len(got) != 2 {
		t.Fatalf("Contents() len = %d, want 2", len(got))
	}
	if !got[0].IsBinary() || got[0].Name != "call.pdf" || got[0].MIMEType != "application/pdf" {
		t.Errorf("attachment object = %+v", got[0])
	}
	if got[1].IsBinary() || got[1].Text != "plain notes" {
		t.Errorf("text item = %+v", got[1])
	}

	parts := Parts(got)
	if len(parts) != 3 {
		t.Fatalf("Parts() len = %d, want label + blob + text", len(parts))
	}
	if parts[0].Text != "Attached file: call.pdf" || !parts[1].IsBinary() {
		t.Errorf("Parts() = %+v", parts)
	}
}
