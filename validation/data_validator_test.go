package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aldeia/relatos-dashboard/entities"
)

func newValidator() *DataValidatorImpl {
	return NewDataValidator(0).(*DataValidatorImpl)
}

func TestValidateReportText(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Paciente com febre há três dias", false},
		{"empty", "", true},
		{"blank", "   \n\t", true},
		{"at limit", strings.Repeat("á", MaxReportLength), false},
		{"over limit", strings.Repeat("a", MaxReportLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateReportText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("Expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateSymptom(t *testing.T) {
	v := newValidator()

	if err := v.ValidateSymptom("febre"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	for _, blank := range []string{"", "  "} {
		if err := v.ValidateSymptom(blank); err == nil {
			t.Errorf("Expected error for %q", blank)
		}
	}
}

func TestValidateAudio(t *testing.T) {
	v := NewDataValidator(1024)

	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"mpeg", "a.bin", "audio/mpeg", 10, false},
		{"wav with params", "a", "audio/wav; codecs=1", 10, false},
		{"x-m4a", "a", "audio/x-m4a", 10, false},
		{"extension fallback", "gravacao.M4A", "application/octet-stream", 10, false},
		{"mp4 extension", "gravacao.mp4", "", 10, false},
		{"mpeg extension", "gravacao.mpeg", "", 10, false},
		{"unsupported", "notes.txt", "text/plain", 10, true},
		{"ogg", "a.ogg", "audio/ogg", 10, true},
		{"too large", "a.mp3", "audio/mpeg", 1025, true},
		{"empty", "a.mp3", "audio/mpeg", 0, true},
		{"missing", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAudio(tt.filename, tt.contentType, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCaseID(t *testing.T) {
	v := newValidator()

	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.ValidateCaseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	v := newValidator()

	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"100", 100, false},
		{"500", 500, false},
		{"501", 0, true},
		{"0", 0, true},
		{"x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.ValidateLimit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValidateStatusAndSex(t *testing.T) {
	v := newValidator()

	for _, s := range []entities.CaseStatus{entities.StatusPending, entities.StatusProcessing, entities.StatusComplete, entities.StatusError} {
		if err := v.ValidateStatus(s); err != nil {
			t.Errorf("Unexpected error for %s: %v", s, err)
		}
	}
	if err := v.ValidateStatus("concluido"); err == nil {
		t.Error("Expected error for unknown status")
	}

	for _, s := range []entities.Sex{entities.SexMale, entities.SexFemale, entities.SexUnspecified} {
		if err := v.ValidateSex(s); err != nil {
			t.Errorf("Unexpected error for %s: %v", s, err)
		}
	}
	if err := v.ValidateSex("X"); err == nil {
		t.Error("Expected error for unknown sex")
	}
}

func TestValidateCaseUpdate(t *testing.T) {
	v := newValidator()
	text := "novo relato"
	blank := " "
	status := entities.StatusComplete
	badStatus := entities.CaseStatus("feito")

	tests := []struct {
		name    string
		update  entities.CaseUpdate
		wantErr bool
	}{
		{"empty", entities.CaseUpdate{}, true},
		{"text", entities.CaseUpdate{OriginalReport: &text}, false},
		{"blank text", entities.CaseUpdate{OriginalReport: &blank}, true},
		{"status", entities.CaseUpdate{Status: &status}, false},
		{"bad status", entities.CaseUpdate{Status: &badStatus}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateCaseUpdate(tt.update); (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateStructuredDataUpdate(t *testing.T) {
	v := newValidator()
	good := `["febre"]`
	bad := `febre, tosse`
	sex := entities.Sex("X")

	if err := v.ValidateStructuredDataUpdate(entities.StructuredDataUpdate{Symptoms: &good, IndigenousTerms: &good}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := v.ValidateStructuredDataUpdate(entities.StructuredDataUpdate{Symptoms: &bad}); err == nil {
		t.Error("Expected error for non-array symptoms")
	}
	if err := v.ValidateStructuredDataUpdate(entities.StructuredDataUpdate{IndigenousTerms: &bad}); err == nil {
		t.Error("Expected error for non-array terms")
	}
	if err := v.ValidateStructuredDataUpdate(entities.StructuredDataUpdate{PatientSex: &sex}); err == nil {
		t.Error("Expected error for invalid sex")
	}
}

func TestReportDataQuality(t *testing.T) {
	v := newValidator()
	cases := []entities.Case{
		{ID: 1, Status: entities.StatusComplete, StructuredData: &entities.StructuredData{Symptoms: `["febre"]`}},
		{ID: 2, Status: entities.StatusComplete},
		{ID: 3, Status: entities.StatusComplete, StructuredData: &entities.StructuredData{Symptoms: `febre`, IndigenousTerms: `{"a":1}`}},
		{ID: 3, Status: entities.StatusPending},
		{ID: 4, Status: entities.StatusPending},
		{ID: 1, Status: entities.StatusError},
	}

	report := v.ReportDataQuality(cases)
	if report.CasesWithoutStructuredData != 1 {
		t.Errorf("Expected 1 case without structured data, got %d", report.CasesWithoutStructuredData)
	}
	if report.MalformedSymptoms != 1 {
		t.Errorf("Expected 1 malformed symptoms field, got %d", report.MalformedSymptoms)
	}
	if report.MalformedIndigenousTerms != 1 {
		t.Errorf("Expected 1 malformed terms field, got %d", report.MalformedIndigenousTerms)
	}
	if !reflect.DeepEqual(report.DuplicateIDs, []int{1, 3}) {
		t.Errorf("Expected duplicates [1 3], got %v", report.DuplicateIDs)
	}
	if !report.HasIssues() {
		t.Error("Expected issues")
	}

	if clean := v.ReportDataQuality(nil); clean.HasIssues() {
		t.Errorf("Expected no issues for empty input, got %+v", clean)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := newValidator().ValidateSymptom("")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if ve.Field != "sintoma" || !strings.Contains(err.Error(), "symptom cannot be empty") {
		t.Errorf("Unexpected error %q", err.Error())
	}
}
