// Package validation checks dashboard input before any upstream request is
// made, and reports quality issues in loaded case data.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/extract"
	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/logging"
)

const (
	MaxReportLength     = 10000
	DefaultMaxAudioSize = 50 * 1024 * 1024
	MinListLimit        = 1
	MaxListLimit        = 500
)

var (
	audioContentTypes = map[string]bool{
		"audio/mpeg":  true,
		"audio/mp3":   true,
		"audio/wav":   true,
		"audio/m4a":   true,
		"audio/x-m4a": true,
		"audio/mp4":   true,
	}

	audioExtensions = map[string]bool{
		".mp3":  true,
		".mpeg": true,
		".wav":  true,
		".m4a":  true,
		".mp4":  true,
	}
)

// ValidationError is input rejected before reaching the upstream.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct {
	maxAudioSize int64
}

// NewDataValidator creates a validator. maxAudioSize of zero or less uses
// DefaultMaxAudioSize.
func NewDataValidator(maxAudioSize int64) interfaces.DataValidator {
	if maxAudioSize <= 0 {
		maxAudioSize = DefaultMaxAudioSize
	}
	return &DataValidatorImpl{maxAudioSize: maxAudioSize}
}

// ValidateReportText rejects blank text and text over MaxReportLength runes.
func (v *DataValidatorImpl) ValidateReportText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("relato", "report text is required")
	}
	if n := utf8.RuneCountInString(text); n > MaxReportLength {
		return invalid("relato", "report text too long: %d characters (max %d)", n, MaxReportLength)
	}
	return nil
}

// ValidateSymptom rejects blank symptom entries.
func (v *DataValidatorImpl) ValidateSymptom(symptom string) error {
	if strings.TrimSpace(symptom) == "" {
		return invalid("sintoma", "symptom cannot be empty")
	}
	return nil
}

// ValidateAudio checks an upload by declared content type or, failing that,
// file extension, and by size.
func (v *DataValidatorImpl) ValidateAudio(filename, contentType string, size int64) error {
	if filename == "" && size <= 0 {
		return invalid("audio", "audio file is required")
	}
	if size <= 0 {
		return invalid("audio", "audio file is empty")
	}
	if size > v.maxAudioSize {
		return invalid("audio", "audio file too large: %d bytes (max %d)", size, v.maxAudioSize)
	}

	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if audioContentTypes[mediaType] {
		return nil
	}
	if audioExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil
	}
	return invalid("audio", "unsupported audio format %q, use MP3, WAV or M4A", filename)
}

// ValidateCaseID parses a positive case id.
func (v *DataValidatorImpl) ValidateCaseID(input string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || id <= 0 {
		return 0, invalid("id", "case id must be a positive integer")
	}
	return id, nil
}

// ValidateLimit parses a list limit in MinListLimit..MaxListLimit.
func (v *DataValidatorImpl) ValidateLimit(input string) (int, error) {
	limit, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || limit < MinListLimit || limit > MaxListLimit {
		return 0, invalid("limit", "limit must be between %d and %d", MinListLimit, MaxListLimit)
	}
	return limit, nil
}

// ValidateStatus accepts the four lifecycle states.
func (v *DataValidatorImpl) ValidateStatus(status entities.CaseStatus) error {
	if !status.Valid() {
		return invalid("status", "invalid status %q", status)
	}
	return nil
}

// ValidateSex accepts M, F and Indefinido.
func (v *DataValidatorImpl) ValidateSex(sex entities.Sex) error {
	if !sex.Valid() {
		return invalid("paciente_sexo", "invalid sex %q", sex)
	}
	return nil
}

// ValidateCaseUpdate checks a partial case update.
func (v *DataValidatorImpl) ValidateCaseUpdate(u entities.CaseUpdate) error {
	if u.Empty() {
		return invalid("body", "no fields to update")
	}
	if u.OriginalReport != nil {
		if err := v.ValidateReportText(*u.OriginalReport); err != nil {
			return err
		}
	}
	if u.Status != nil {
		if err := v.ValidateStatus(*u.Status); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStructuredDataUpdate checks a partial structured-data update. List
// fields must already be in their encoded array form.
func (v *DataValidatorImpl) ValidateStructuredDataUpdate(u entities.StructuredDataUpdate) error {
	if u.PatientSex != nil {
		if err := v.ValidateSex(*u.PatientSex); err != nil {
			return err
		}
	}
	if u.Symptoms != nil && !extract.Valid(*u.Symptoms) {
		return invalid("sintomas_identificados_ptbr", "must be a JSON array")
	}
	if u.IndigenousTerms != nil && !extract.Valid(*u.IndigenousTerms) {
		return invalid("correspondencia_indigena", "must be a JSON array")
	}
	return nil
}

// ReportDataQuality counts issues in a loaded case list and logs a summary
// when any is found.
func (v *DataValidatorImpl) ReportDataQuality(cases []entities.Case) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{}
	seen := make(map[int]int, len(cases))

	for _, c := range cases {
		seen[c.ID]++
		if !c.IsComplete() {
			continue
		}
		sd := c.StructuredData
		if sd == nil {
			report.CasesWithoutStructuredData++
			continue
		}
		if !extract.Valid(sd.Symptoms) {
			report.MalformedSymptoms++
		}
		if !extract.Valid(sd.IndigenousTerms) {
			report.MalformedIndigenousTerms++
		}
	}

	for id, n := range seen {
		if n > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}
	sort.Ints(report.DuplicateIDs)

	if report.HasIssues() {
		logging.Warn("Case data quality issues detected",
			"without_structured_data", report.CasesWithoutStructuredData,
			"malformed_symptoms", report.MalformedSymptoms,
			"malformed_indigenous_terms", report.MalformedIndigenousTerms,
			"duplicate_ids", report.DuplicateIDs,
		)
	}
	return report
}
