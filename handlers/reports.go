package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/report"
	"github.com/go-chi/chi/v5"
)

// SummaryResponse is the header of the reports view.
type SummaryResponse struct {
	entities.Summary
	LastUpdated string `json:"last_updated,omitempty"`
	IsUpdating  bool   `json:"is_updating"`
}

// GroupsResponse lists one kind of group of the current report.
type GroupsResponse[T any] struct {
	Generation uint64 `json:"generation"`
	Kind       string `json:"kind"`
	Groups     []T    `json:"groups"`
}

// OverviewResponse breaks every listed case down by status.
type OverviewResponse struct {
	Generation uint64 `json:"generation"`
	entities.Overview
}

// RefreshResponse is returned by a manual refresh. Applied is false when a
// newer load overtook this one; Summary then describes the report in place.
type RefreshResponse struct {
	Applied bool            `json:"applied"`
	Summary SummaryResponse `json:"summary"`
}

func (h *HTTPHandlerImpl) summary(rep *entities.Report) SummaryResponse {
	resp := SummaryResponse{
		Summary:    report.Summarize(rep),
		IsUpdating: h.dataStore.IsUpdating(),
	}
	if last := h.dataStore.GetLastUpdated(); !last.IsZero() {
		resp.LastUpdated = last.Format(time.RFC3339)
	}
	return resp
}

// ReportSummary returns the counts of the current report
func (h *HTTPHandlerImpl) ReportSummary(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.summary(h.dataStore.GetReport()))
}

// ReportOverview returns the status breakdown and the most recent cases
func (h *HTTPHandlerImpl) ReportOverview(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()
	overview := rep.Overview
	overview.RecentCases = nonNil(overview.RecentCases)
	h.RespondWithJSON(w, http.StatusOK, OverviewResponse{
		Generation: rep.Generation,
		Overview:   overview,
	})
}

// ReportSymptoms returns the symptom groups, most frequent first
func (h *HTTPHandlerImpl) ReportSymptoms(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()
	h.RespondWithJSON(w, http.StatusOK, GroupsResponse[entities.SymptomGroup]{
		Generation: rep.Generation,
		Kind:       report.KindSymptoms,
		Groups:     nonNil(rep.Symptoms),
	})
}

// ReportCategories returns the category groups, most frequent first
func (h *HTTPHandlerImpl) ReportCategories(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()
	h.RespondWithJSON(w, http.StatusOK, GroupsResponse[entities.CategoryGroup]{
		Generation: rep.Generation,
		Kind:       report.KindCategories,
		Groups:     nonNil(rep.Categories),
	})
}

// ReportIndigenousTerms returns the native term groups, most frequent first
func (h *HTTPHandlerImpl) ReportIndigenousTerms(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()
	h.RespondWithJSON(w, http.StatusOK, GroupsResponse[entities.IndigenousTermGroup]{
		Generation: rep.Generation,
		Kind:       report.KindIndigenousTerms,
		Groups:     nonNil(rep.IndigenousTerms),
	})
}

// ReportTimeline returns completed cases per day
func (h *HTTPHandlerImpl) ReportTimeline(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()
	h.RespondWithJSON(w, http.StatusOK, GroupsResponse[entities.TimelinePoint]{
		Generation: rep.Generation,
		Kind:       report.KindTimeline,
		Groups:     nonNil(rep.Timeline),
	})
}

// ReportDrillDown lists the cases of one group
func (h *HTTPHandlerImpl) ReportDrillDown(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	switch kind {
	case report.KindSymptoms, report.KindCategories, report.KindIndigenousTerms:
	default:
		logging.Warn("Unusual user input", "kind", kind)
		h.RespondWithError(w, http.StatusBadRequest, "Unknown report kind")
		return
	}

	label, err := pathLabel(r)
	if err != nil || label == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid label")
		return
	}

	dd, ok := report.DrillDown(h.dataStore.GetReport(), kind, label, h.opts.PreviewLength)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Group not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, dd)
}

// RefreshReport loads the cases now and publishes the resulting report
func (h *HTTPHandlerImpl) RefreshReport(w http.ResponseWriter, r *http.Request) {
	rep, applied, err := h.loader.Refresh(r.Context())
	if err != nil {
		h.respondWithFailure(w, r, "refresh_report", err)
		return
	}

	if !applied {
		rep = h.dataStore.GetReport()
	}
	h.RespondWithJSON(w, http.StatusOK, RefreshResponse{
		Applied: applied,
		Summary: h.summary(rep),
	})
}

// ExportReportPDF renders the current report as a PDF attachment
func (h *HTTPHandlerImpl) ExportReportPDF(w http.ResponseWriter, r *http.Request) {
	rep := h.dataStore.GetReport()

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, rep); err != nil {
		logging.Error("Failed to render PDF report", "generation", rep.Generation, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="relatos-report-%d.pdf"`, rep.Generation))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// TimelineChart renders the timeline as an HTML bar chart
func (h *HTTPHandlerImpl) TimelineChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteTimelineChart(&buf, h.dataStore.GetReport()); err != nil {
		logging.Error("Failed to render timeline chart", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// pathLabel returns the decoded label URL param. chi routes on RawPath, and
// so yields an escaped param, only when the request path has one.
func pathLabel(r *http.Request) (string, error) {
	label := chi.URLParam(r, "label")
	if r.URL.RawPath == "" {
		return label, nil
	}
	return url.PathUnescape(label)
}
