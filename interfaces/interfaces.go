// Package interfaces defines core abstractions for the dashboard service
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/session"
)

// DataQualityReport provides a summary of data quality issues in a case list
type DataQualityReport struct {
	CasesWithoutStructuredData int
	MalformedSymptoms          int
	MalformedIndigenousTerms   int
	DuplicateIDs               []int
}

// HasIssues reports whether any counter is non-zero.
func (r *DataQualityReport) HasIssues() bool {
	return r.CasesWithoutStructuredData > 0 || r.MalformedSymptoms > 0 ||
		r.MalformedIndigenousTerms > 0 || len(r.DuplicateIDs) > 0
}

// DataStore defines the contract for the report snapshot store.
// Reads are lock-free; Apply publishes only the latest issued generation.
type DataStore interface {
	GetReport() *entities.Report
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	BeginLoad()
	EndLoad()
	NextGeneration() uint64
	CurrentGeneration() uint64
	Apply(gen uint64, report *entities.Report) bool
}

// CasesAPI defines the contract for the upstream cases service.
type CasesAPI interface {
	ListCases(ctx context.Context, limit int) (*entities.CaseList, error)
	GetCase(ctx context.Context, id int) (*entities.Case, error)
	SubmitText(ctx context.Context, text string) (*entities.CaseCreated, error)
	SubmitAudio(ctx context.Context, filename, contentType string, audio io.Reader) (*entities.CaseCreated, error)
	UpdateCase(ctx context.Context, id int, update entities.CaseUpdate) (*entities.CaseUpdated, error)
	DeleteCase(ctx context.Context, id int) (*entities.CaseDeleted, error)
	UpdateStructuredData(ctx context.Context, id int, update entities.StructuredDataUpdate) (*entities.StructuredDataUpdated, error)
	GetExplanation(ctx context.Context, id int) (*entities.ExplanationResponse, error)
	Explain(ctx context.Context, id int, force bool) (*entities.ExplanationResponse, error)
}

// ReportLoader defines the contract for building and publishing a report.
type ReportLoader interface {
	// Refresh loads the cases, builds a report and applies it to the store.
	// applied is false when a newer load overtook this one.
	Refresh(ctx context.Context) (report *entities.Report, applied bool, err error)
}

// Scheduler defines the contract for periodic report refreshes.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// SessionManager defines the contract for dashboard login sessions.
type SessionManager interface {
	Login(email, password string) (session.Session, string, error)
	Logout(token string) error
	Verify(token string) (session.Session, error)
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	// Sessions
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)

	// Reports
	ReportSummary(w http.ResponseWriter, r *http.Request)
	ReportOverview(w http.ResponseWriter, r *http.Request)
	ReportSymptoms(w http.ResponseWriter, r *http.Request)
	ReportCategories(w http.ResponseWriter, r *http.Request)
	ReportIndigenousTerms(w http.ResponseWriter, r *http.Request)
	ReportTimeline(w http.ResponseWriter, r *http.Request)
	ReportDrillDown(w http.ResponseWriter, r *http.Request)
	RefreshReport(w http.ResponseWriter, r *http.Request)
	ExportReportPDF(w http.ResponseWriter, r *http.Request)
	TimelineChart(w http.ResponseWriter, r *http.Request)

	// Cases
	ListCases(w http.ResponseWriter, r *http.Request)
	GetCase(w http.ResponseWriter, r *http.Request)
	SubmitText(w http.ResponseWriter, r *http.Request)
	SubmitAudio(w http.ResponseWriter, r *http.Request)
	UpdateCase(w http.ResponseWriter, r *http.Request)
	DeleteCase(w http.ResponseWriter, r *http.Request)
	UpdateStructuredData(w http.ResponseWriter, r *http.Request)
	EditSymptoms(w http.ResponseWriter, r *http.Request)
	GetExplanation(w http.ResponseWriter, r *http.Request)
	Explain(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the current status, its details and the HTTP code to serve
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled refresh time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for input validation and data quality checks.
type DataValidator interface {
	ValidateReportText(text string) error
	ValidateSymptom(symptom string) error
	ValidateAudio(filename, contentType string, size int64) error
	ValidateCaseID(input string) (int, error)
	ValidateLimit(input string) (int, error)
	ValidateStatus(status entities.CaseStatus) error
	ValidateSex(sex entities.Sex) error
	ValidateCaseUpdate(u entities.CaseUpdate) error
	ValidateStructuredDataUpdate(u entities.StructuredDataUpdate) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(cases []entities.Case) *DataQualityReport
}
