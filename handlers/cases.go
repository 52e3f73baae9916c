package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aldeia/relatos-dashboard/editor"
	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/extract"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is kept in memory while parsing an upload; the rest spills
// to temporary files.
const multipartMemory = 8 << 20

// CaseDetail is a case with its encoded list fields decoded.
type CaseDetail struct {
	entities.Case
	Symptoms        []string        `json:"symptoms"`
	SymptomsDisplay string          `json:"symptoms_display"`
	IndigenousTerms []extract.Entry `json:"indigenous_terms"`
}

// ExplanationDetail is an explanation with its recommendations decoded.
type ExplanationDetail struct {
	entities.ExplanationResponse
	Recommendations []string `json:"recommendations"`
}

// SymptomEditRequest is a batch of symptom list operations.
type SymptomEditRequest struct {
	Ops []editor.Op `json:"ops"`
}

// SymptomEditResponse is the symptom list after a batch was saved.
type SymptomEditResponse struct {
	Symptoms       []string                `json:"symptoms"`
	Display        string                  `json:"display"`
	StructuredData entities.StructuredData `json:"structured_data"`
}

type submitTextRequest struct {
	Text string `json:"relato"`
}

func newCaseDetail(c entities.Case) CaseDetail {
	symptoms := extract.Labels(extract.Symptoms(c.StructuredData))
	return CaseDetail{
		Case:            c,
		Symptoms:        nonNil(symptoms),
		SymptomsDisplay: extract.DisplayText(symptoms),
		IndigenousTerms: nonNil(extract.IndigenousTerms(c.StructuredData)),
	}
}

// caseID parses the {id} URL parameter, answering 400 on failure.
func (h *HTTPHandlerImpl) caseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := h.validator.ValidateCaseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithFailure(w, r, "case_id", err)
		return 0, false
	}
	return id, true
}

// ListCases lists the most recent cases
func (h *HTTPHandlerImpl) ListCases(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = h.validator.ValidateLimit(raw); err != nil {
			h.respondWithFailure(w, r, "list_cases", err)
			return
		}
	}

	list, err := h.cases.ListCases(r.Context(), limit)
	if err != nil {
		h.respondWithFailure(w, r, "list_cases", err)
		return
	}
	list.Cases = nonNil(list.Cases)
	h.RespondWithJSON(w, http.StatusOK, list)
}

// GetCase returns one case with its structured data decoded
func (h *HTTPHandlerImpl) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	c, err := h.cases.GetCase(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, r, "get_case", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, newCaseDetail(*c))
}

// SubmitText submits a written report
func (h *HTTPHandlerImpl) SubmitText(w http.ResponseWriter, r *http.Request) {
	var req submitTextRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithFailure(w, r, "submit_text", err)
		return
	}
	if err := h.validator.ValidateReportText(req.Text); err != nil {
		h.respondWithFailure(w, r, "submit_text", err)
		return
	}

	created, err := h.cases.SubmitText(r.Context(), req.Text)
	if err != nil {
		h.respondWithFailure(w, r, "submit_text", err)
		return
	}

	logging.Info("Case submitted", "case_id", created.CaseID, "input", entities.InputText)
	h.RespondWithJSON(w, http.StatusCreated, created)
}

// SubmitAudio forwards the multipart "audio" file of the request
func (h *HTTPHandlerImpl) SubmitAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "audio: audio file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.validator.ValidateAudio(header.Filename, contentType, header.Size); err != nil {
		h.respondWithFailure(w, r, "submit_audio", err)
		return
	}

	created, err := h.cases.SubmitAudio(r.Context(), header.Filename, contentType, file)
	if err != nil {
		h.respondWithFailure(w, r, "submit_audio", err)
		return
	}

	logging.Info("Case submitted", "case_id", created.CaseID, "input", entities.InputAudio, "size", header.Size)
	h.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateCase applies a partial update to a case
func (h *HTTPHandlerImpl) UpdateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	var update entities.CaseUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.respondWithFailure(w, r, "update_case", err)
		return
	}
	if err := h.validator.ValidateCaseUpdate(update); err != nil {
		h.respondWithFailure(w, r, "update_case", err)
		return
	}

	updated, err := h.cases.UpdateCase(r.Context(), id, update)
	if err != nil {
		h.respondWithFailure(w, r, "update_case", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteCase deletes a case upstream
func (h *HTTPHandlerImpl) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.cases.DeleteCase(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, r, "delete_case", err)
		return
	}

	logging.Info("Case deleted", "case_id", id)
	h.RespondWithJSON(w, http.StatusOK, deleted)
}

// UpdateStructuredData applies a partial update to the structured data of a case
func (h *HTTPHandlerImpl) UpdateStructuredData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	var update entities.StructuredDataUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.respondWithFailure(w, r, "update_structured_data", err)
		return
	}
	if err := h.validator.ValidateStructuredDataUpdate(update); err != nil {
		h.respondWithFailure(w, r, "update_structured_data", err)
		return
	}

	updated, err := h.cases.UpdateStructuredData(r.Context(), id, update)
	if err != nil {
		h.respondWithFailure(w, r, "update_structured_data", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, updated)
}

// EditSymptoms applies a batch of list operations to the symptoms of a case
// and saves the encoded result. Nothing is saved if any operation fails.
func (h *HTTPHandlerImpl) EditSymptoms(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	var req SymptomEditRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithFailure(w, r, "edit_symptoms", err)
		return
	}
	if len(req.Ops) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "ops: at least one operation is required")
		return
	}
	for _, op := range req.Ops {
		if op.Kind == editor.OpDelete {
			continue
		}
		if err := h.validator.ValidateSymptom(op.Value); err != nil {
			h.respondWithFailure(w, r, "edit_symptoms", err)
			return
		}
	}

	c, err := h.cases.GetCase(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, r, "edit_symptoms", err)
		return
	}
	if c.StructuredData == nil {
		h.RespondWithError(w, http.StatusConflict, "Case has no structured data yet")
		return
	}

	ed := editor.FromEncoded(c.StructuredData.Symptoms)
	if err := ed.Apply(req.Ops); err != nil {
		logging.Warn("Rejected symptom edit", "case_id", id, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	encoded := ed.Encoded()
	updated, err := h.cases.UpdateStructuredData(r.Context(), id, entities.StructuredDataUpdate{Symptoms: &encoded})
	if err != nil {
		h.respondWithFailure(w, r, "edit_symptoms", err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, SymptomEditResponse{
		Symptoms:       nonNil(ed.Items()),
		Display:        ed.Display(),
		StructuredData: updated.StructuredData,
	})
}

// GetExplanation returns the stored explanation of a case
func (h *HTTPHandlerImpl) GetExplanation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	resp, err := h.cases.GetExplanation(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, r, "get_explanation", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, newExplanationDetail(resp))
}

// Explain generates the explanation of a case, regenerating it when force is set
func (h *HTTPHandlerImpl) Explain(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		var err error
		if force, err = strconv.ParseBool(raw); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, "force must be true or false")
			return
		}
	}

	resp, err := h.cases.Explain(r.Context(), id, force)
	if err != nil {
		h.respondWithFailure(w, r, "explain", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, newExplanationDetail(resp))
}

func newExplanationDetail(resp *entities.ExplanationResponse) ExplanationDetail {
	return ExplanationDetail{
		ExplanationResponse: *resp,
		Recommendations:     nonNil(extract.Recommendations(&resp.Explanation)),
	}
}
