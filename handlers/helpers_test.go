package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aldeia/relatos-dashboard/casesapi"
	"github.com/aldeia/relatos-dashboard/data"
	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/report"
	"github.com/aldeia/relatos-dashboard/session"
	"github.com/aldeia/relatos-dashboard/validation"
	"github.com/go-chi/chi/v5"
)

// mockCasesAPI returns canned responses and records the calls it receives.
type mockCasesAPI struct {
	calls []string
	err   error

	list        *entities.CaseList
	detail      *entities.Case
	created     *entities.CaseCreated
	updated     *entities.CaseUpdated
	deleted     *entities.CaseDeleted
	sdUpdated   *entities.StructuredDataUpdated
	explanation *entities.ExplanationResponse

	lastLimit    int
	lastID       int
	lastText     string
	lastAudio    string
	lastFilename string
	lastUpdate   entities.CaseUpdate
	lastSD       entities.StructuredDataUpdate
	lastForce    bool
}

func (m *mockCasesAPI) record(call string, id int) error {
	m.calls = append(m.calls, call)
	m.lastID = id
	return m.err
}

func (m *mockCasesAPI) ListCases(ctx context.Context, limit int) (*entities.CaseList, error) {
	m.lastLimit = limit
	if err := m.record("ListCases", 0); err != nil {
		return nil, err
	}
	return m.list, nil
}

func (m *mockCasesAPI) GetCase(ctx context.Context, id int) (*entities.Case, error) {
	if err := m.record("GetCase", id); err != nil {
		return nil, err
	}
	return m.detail, nil
}

func (m *mockCasesAPI) SubmitText(ctx context.Context, text string) (*entities.CaseCreated, error) {
	m.lastText = text
	if err := m.record("SubmitText", 0); err != nil {
		return nil, err
	}
	return m.created, nil
}

func (m *mockCasesAPI) SubmitAudio(ctx context.Context, filename, contentType string, audio io.Reader) (*entities.CaseCreated, error) {
	b, _ := io.ReadAll(audio)
	m.lastAudio = string(b)
	m.lastFilename = filename
	if err := m.record("SubmitAudio", 0); err != nil {
		return nil, err
	}
	return m.created, nil
}

func (m *mockCasesAPI) UpdateCase(ctx context.Context, id int, update entities.CaseUpdate) (*entities.CaseUpdated, error) {
	m.lastUpdate = update
	if err := m.record("UpdateCase", id); err != nil {
		return nil, err
	}
	return m.updated, nil
}

func (m *mockCasesAPI) DeleteCase(ctx context.Context, id int) (*entities.CaseDeleted, error) {
	if err := m.record("DeleteCase", id); err != nil {
		return nil, err
	}
	return m.deleted, nil
}

func (m *mockCasesAPI) UpdateStructuredData(ctx context.Context, id int, update entities.StructuredDataUpdate) (*entities.StructuredDataUpdated, error) {
	m.lastSD = update
	if err := m.record("UpdateStructuredData", id); err != nil {
		return nil, err
	}
	return m.sdUpdated, nil
}

func (m *mockCasesAPI) GetExplanation(ctx context.Context, id int) (*entities.ExplanationResponse, error) {
	if err := m.record("GetExplanation", id); err != nil {
		return nil, err
	}
	return m.explanation, nil
}

func (m *mockCasesAPI) Explain(ctx context.Context, id int, force bool) (*entities.ExplanationResponse, error) {
	m.lastForce = force
	if err := m.record("Explain", id); err != nil {
		return nil, err
	}
	return m.explanation, nil
}

// mockLoader publishes a fixed case list into the store on Refresh.
type mockLoader struct {
	store   *data.ReportStore
	cases   []entities.Case
	err     error
	overrun bool
}

func (m *mockLoader) Refresh(ctx context.Context) (*entities.Report, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	gen := m.store.NextGeneration()
	rep := buildReport(m.cases, gen)
	if m.overrun {
		newer := m.store.NextGeneration()
		m.store.Apply(newer, buildReport(nil, newer))
	}
	return rep, m.store.Apply(gen, rep), nil
}

// mockSessions accepts a single credential pair and token.
type mockSessions struct {
	closed    bool
	loggedOut []string
}

func (m *mockSessions) Login(email, password string) (session.Session, string, error) {
	if m.closed {
		return session.Session{}, "", session.ErrClosed
	}
	if email != "admin@aldeia.com" || password != "password123" {
		return session.Session{}, "", session.ErrInvalidCredentials
	}
	return session.Session{ID: "sid-1", Email: email}, "token-1", nil
}

func (m *mockSessions) Logout(token string) error {
	if token != "token-1" {
		return session.ErrRevoked
	}
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

func (m *mockSessions) Verify(token string) (session.Session, error) {
	if token != "token-1" {
		return session.Session{}, session.ErrInvalidToken
	}
	return session.Session{ID: "sid-1", Email: "admin@aldeia.com"}, nil
}

// mockHealthChecker returns a fixed status.
type mockHealthChecker struct {
	status string
	code   int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"generation": 1}, m.code
}

func (m *mockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

type testEnv struct {
	handler  *HTTPHandlerImpl
	cases    *mockCasesAPI
	store    *data.ReportStore
	loader   *mockLoader
	sessions *mockSessions
}

func newTestEnv() *testEnv {
	store := data.NewReportStore()
	store.SetServerStartTime(time.Now().Add(-90 * time.Second))
	env := &testEnv{
		cases:    &mockCasesAPI{},
		store:    store,
		loader:   &mockLoader{store: store},
		sessions: &mockSessions{},
	}
	env.handler = NewHTTPHandler(Dependencies{
		DataStore:     store,
		Validator:     validation.NewDataValidator(1024),
		Cases:         env.cases,
		Loader:        env.loader,
		Sessions:      env.sessions,
		HealthChecker: &mockHealthChecker{status: "healthy", code: http.StatusOK},
	}, Options{DefaultLimit: 50, PreviewLength: 10})
	return env
}

// publish applies a report built from cases to the store.
func (e *testEnv) publish(cases []entities.Case) {
	gen := e.store.NextGeneration()
	e.store.Apply(gen, buildReport(cases, gen))
}

// buildReport treats cases as a list response: completed ones are analyzed
// and every one feeds the overview.
func buildReport(cases []entities.Case, gen uint64) *entities.Report {
	var analyzed []entities.Case
	for _, c := range cases {
		if c.IsComplete() {
			analyzed = append(analyzed, c)
		}
	}
	rep := report.Build(analyzed, gen, time.Now())
	rep.Overview = report.NewOverview(cases, 0, 0)
	return rep
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newJSONRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func completeCase(id int, created, symptoms, category, terms string) entities.Case {
	return entities.Case{
		ID:             id,
		OriginalReport: "relato do caso com bastante texto",
		Status:         entities.StatusComplete,
		CreatedAt:      entities.ParseTimestamp(created),
		StructuredData: &entities.StructuredData{
			CaseID:          id,
			Symptoms:        symptoms,
			Category:        category,
			IndigenousTerms: terms,
			PatientName:     "Paciente",
		},
	}
}

func upstreamNotFound() error {
	return &casesapi.APIError{StatusCode: http.StatusNotFound, Detail: "Caso não encontrado", Op: "get_case"}
}
