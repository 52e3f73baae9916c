package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/report"
	"github.com/aldeia/relatos-dashboard/validation"
)

// submitAPI records submissions. Other CasesAPI methods are not used by submit.
type submitAPI struct {
	interfaces.CasesAPI
	calls       int
	text        string
	filename    string
	contentType string
	audio       []byte
}

func (s *submitAPI) SubmitText(ctx context.Context, text string) (*entities.CaseCreated, error) {
	s.calls++
	s.text = text
	return &entities.CaseCreated{CaseID: 7, Message: "Relato recebido"}, nil
}

func (s *submitAPI) SubmitAudio(ctx context.Context, filename, contentType string, audio io.Reader) (*entities.CaseCreated, error) {
	s.calls++
	s.filename = filename
	s.contentType = contentType
	s.audio, _ = io.ReadAll(audio)
	return &entities.CaseCreated{CaseID: 8, Message: "Áudio recebido"}, nil
}

func TestSubmitText(t *testing.T) {
	api := &submitAPI{}
	created, err := submit(context.Background(), api, validation.NewDataValidator(0), "Febre há dois dias", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.CaseID != 7 {
		t.Errorf("Expected case 7, got %d", created.CaseID)
	}
	if api.text != "Febre há dois dias" {
		t.Errorf("Expected text to be forwarded, got %q", api.text)
	}
}

func TestSubmitValidatesBeforeUpstream(t *testing.T) {
	dir := t.TempDir()
	emptyAudio := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(emptyAudio, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	textFile := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("not audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		text  string
		audio string
	}{
		{"blank text", "   ", ""},
		{"empty audio file", "", emptyAudio},
		{"unsupported extension", "", textFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &submitAPI{}
			_, err := submit(context.Background(), api, validation.NewDataValidator(0), tt.text, tt.audio)
			if !validation.IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
			if api.calls != 0 {
				t.Errorf("Expected no upstream call, got %d", api.calls)
			}
		})
	}
}

func TestSubmitAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relato.mp3")
	if err := os.WriteFile(path, []byte("ID3fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	api := &submitAPI{}
	created, err := submit(context.Background(), api, validation.NewDataValidator(0), "", path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.CaseID != 8 {
		t.Errorf("Expected case 8, got %d", created.CaseID)
	}
	if api.filename != "relato.mp3" {
		t.Errorf("Expected filename relato.mp3, got %q", api.filename)
	}
	if string(api.audio) != "ID3fake" {
		t.Errorf("Expected file content to be streamed, got %q", api.audio)
	}
}

func TestSubmitAudioMissingFile(t *testing.T) {
	api := &submitAPI{}
	_, err := submit(context.Background(), api, validation.NewDataValidator(0), "", filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
	if api.calls != 0 {
		t.Errorf("Expected no upstream call, got %d", api.calls)
	}
}

func TestValidKind(t *testing.T) {
	tests := []struct {
		kind string
		want bool
	}{
		{report.KindSymptoms, true},
		{report.KindCategories, true},
		{report.KindIndigenousTerms, true},
		{report.KindTimeline, true},
		{"patients", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := validKind(tt.kind); got != tt.want {
			t.Errorf("validKind(%q): expected %v, got %v", tt.kind, tt.want, got)
		}
	}
}

func cliReport() *entities.Report {
	return &entities.Report{
		Generation: 3,
		Cases:      make([]entities.Case, 2),
		Symptoms: []entities.SymptomGroup{
			{Symptom: "febre", Count: 2},
			{Symptom: "tosse", Count: 1},
		},
		Categories: []entities.CategoryGroup{
			{Category: "Respiratório", Count: 2},
		},
		IndigenousTerms: []entities.IndigenousTermGroup{
			{Term: "wai", Meaning: "dor", Count: 1},
		},
		Timeline: []entities.TimelinePoint{
			{Date: "01/03/2024", Count: 2, Percent: 100},
		},
	}
}

func TestPrintReport(t *testing.T) {
	tests := []struct {
		kind     string
		contains []string
	}{
		{report.KindSymptoms, []string{"SYMPTOM", "febre", "tosse"}},
		{report.KindCategories, []string{"CATEGORY", "Respiratório"}},
		{report.KindIndigenousTerms, []string{"TERM", "wai", "dor"}},
		{report.KindTimeline, []string{"DATE", "01/03/2024", "100.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printReport(&buf, cliReport(), tt.kind); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			out := buf.String()
			if !strings.HasPrefix(out, "2 cases, 2 symptoms, 1 categories, 1 indigenous terms") {
				t.Errorf("Expected summary line first, got %q", out)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("Expected output to contain %q, got %q", s, out)
				}
			}
		})
	}
}

func TestPrintReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printReportJSON(&buf, cliReport(), report.KindSymptoms); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var out struct {
		Summary entities.Summary        `json:"summary"`
		Kind    string                  `json:"kind"`
		Groups  []entities.SymptomGroup `json:"groups"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if out.Kind != report.KindSymptoms {
		t.Errorf("Expected kind symptoms, got %q", out.Kind)
	}
	if out.Summary.AnalyzedCases != 2 || out.Summary.Generation != 3 {
		t.Errorf("Expected 2 cases at generation 3, got %+v", out.Summary)
	}
	if len(out.Groups) != 2 || out.Groups[0].Symptom != "febre" {
		t.Errorf("Expected febre first, got %+v", out.Groups)
	}
}
