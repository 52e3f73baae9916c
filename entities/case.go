// Package entities holds the case records exchanged with the upstream case API
// and the derived report types built from them.
package entities

// CaseStatus is the lifecycle state of a case on the upstream API.
type CaseStatus string

const (
	StatusPending    CaseStatus = "pendente"
	StatusProcessing CaseStatus = "processando"
	StatusComplete   CaseStatus = "completo"
	StatusError      CaseStatus = "erro"
)

// Valid reports whether s is one of the four known statuses.
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusComplete, StatusError:
		return true
	}
	return false
}

// InputType is how the report reached the system.
type InputType string

const (
	InputText  InputType = "texto"
	InputAudio InputType = "audio"
)

// Case is one submitted health report. StructuredData is only present on the
// detail response, and only once upstream processing succeeded.
type Case struct {
	ID             int             `json:"id"`
	OriginalReport string          `json:"relato_original"`
	InputType      InputType       `json:"tipo_entrada"`
	Status         CaseStatus      `json:"status"`
	AudioPath      *string         `json:"audio_path,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	CreatedAt      Timestamp       `json:"created_at"`
	StructuredData *StructuredData `json:"structured_data,omitempty"`
}

// IsComplete reports whether the case finished upstream processing.
func (c Case) IsComplete() bool {
	return c.Status == StatusComplete
}

// CaseList is the body of GET /api/relatos.
type CaseList struct {
	Total int    `json:"total"`
	Cases []Case `json:"casos"`
}

// CaseCreated is returned by both submission endpoints.
type CaseCreated struct {
	CaseID         int       `json:"case_id"`
	Status         string    `json:"status"`
	ID             int       `json:"id"`
	OriginalReport string    `json:"relato_original"`
	InputType      InputType `json:"tipo_entrada"`
	AudioPath      *string   `json:"audio_path,omitempty"`
	CreatedAt      Timestamp `json:"created_at"`
	Message        string    `json:"message"`
}

// CaseUpdate is the partial body of PUT /api/relatos/{id}. Nil fields are not sent.
type CaseUpdate struct {
	OriginalReport *string     `json:"relato_original,omitempty"`
	Status         *CaseStatus `json:"status,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (u CaseUpdate) Empty() bool {
	return u.OriginalReport == nil && u.Status == nil
}

// CaseUpdated is the body returned by PUT /api/relatos/{id}.
type CaseUpdated struct {
	Message string `json:"message"`
	Case    Case   `json:"caso"`
}

// CaseDeleted is the body returned by DELETE /api/relatos/{id}.
type CaseDeleted struct {
	Message string `json:"message"`
	CaseID  int    `json:"case_id"`
}
