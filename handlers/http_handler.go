package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/aldeia/relatos-dashboard/interfaces"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/session"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Options tunes handler defaults.
type Options struct {
	DefaultLimit  int // cases listed when no limit is given
	PreviewLength int // runes of report text in drill-down rows
}

// Dependencies groups the collaborators of the handlers.
type Dependencies struct {
	DataStore     interfaces.DataStore
	Validator     interfaces.DataValidator
	Cases         interfaces.CasesAPI
	Loader        interfaces.ReportLoader
	Sessions      interfaces.SessionManager
	HealthChecker interfaces.HealthChecker
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	cases         interfaces.CasesAPI
	loader        interfaces.ReportLoader
	sessions      interfaces.SessionManager
	healthChecker interfaces.HealthChecker
	opts          Options
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies, opts Options) *HTTPHandlerImpl {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 200
	}
	return &HTTPHandlerImpl{
		dataStore:     deps.DataStore,
		validator:     deps.Validator,
		cases:         deps.Cases,
		loader:        deps.Loader,
		sessions:      deps.Sessions,
		healthChecker: deps.HealthChecker,
		opts:          opts,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for later requests.
type LoginResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

// Login exchanges credentials for a session token
func (h *HTTPHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	s, token, err := h.sessions.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		logging.Warn("Failed login attempt", "email", req.Email)
		h.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, session.ErrClosed):
		h.RespondWithError(w, http.StatusServiceUnavailable, "Sessions are unavailable")
		return
	case err != nil:
		logging.Error("Login failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	logging.Info("Session opened", "session_id", s.ID, "email", s.Email)
	h.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, Session: s})
}

// Logout revokes the session of the request's bearer token
func (h *HTTPHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := session.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	if err := h.sessions.Logout(token); err != nil {
		h.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the session attached by the session middleware
func (h *HTTPHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	h.RespondWithJSON(w, http.StatusOK, s)
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	status, data, httpStatus := h.healthChecker.HealthCheck()

	response := HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
