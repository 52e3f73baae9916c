package interfaces

import "testing"

func TestDataQualityReport_HasIssues(t *testing.T) {
	tests := []struct {
		name   string
		report DataQualityReport
		want   bool
	}{
		{"clean", DataQualityReport{}, false},
		{"without structured data", DataQualityReport{CasesWithoutStructuredData: 1}, true},
		{"malformed symptoms", DataQualityReport{MalformedSymptoms: 2}, true},
		{"malformed terms", DataQualityReport{MalformedIndigenousTerms: 1}, true},
		{"duplicates", DataQualityReport{DuplicateIDs: []int{4}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.HasIssues(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
