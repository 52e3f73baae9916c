package entities

// Sex as recorded by the structuring step.
type Sex string

const (
	SexMale        Sex = "M"
	SexFemale      Sex = "F"
	SexUnspecified Sex = "Indefinido"
)

// Valid reports whether s is one of the recorded values.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnspecified
}

// StructuredData holds the fields extracted from a case report. Symptoms and
// IndigenousTerms are JSON arrays serialised into a single text field; decode
// them through package extract, never directly.
type StructuredData struct {
	ID              int       `json:"id"`
	CaseID          int       `json:"case_id"`
	PatientName     string    `json:"paciente_nome,omitempty"`
	PatientSex      Sex       `json:"paciente_sexo,omitempty"`
	Symptoms        string    `json:"sintomas_identificados_ptbr,omitempty"`
	IndigenousTerms string    `json:"correspondencia_indigena,omitempty"`
	Category        string    `json:"categoria_sintoma,omitempty"`
	PatientAge      string    `json:"idade_paciente,omitempty"`
	SymptomDuration string    `json:"duracao_sintomas,omitempty"`
	TriggerFactor   string    `json:"fator_desencadeante,omitempty"`
	Temperature     *float64  `json:"temperatura_graus,omitempty"`
	BloodPressure   string    `json:"pressao_arterial,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

// StructuredDataUpdate is the partial body of PUT /api/relatos/{id}/structured-data.
// A nil field is left untouched upstream.
type StructuredDataUpdate struct {
	PatientName     *string  `json:"paciente_nome,omitempty"`
	PatientSex      *Sex     `json:"paciente_sexo,omitempty"`
	Symptoms        *string  `json:"sintomas_identificados_ptbr,omitempty"`
	IndigenousTerms *string  `json:"correspondencia_indigena,omitempty"`
	Category        *string  `json:"categoria_sintoma,omitempty"`
	PatientAge      *string  `json:"idade_paciente,omitempty"`
	SymptomDuration *string  `json:"duracao_sintomas,omitempty"`
	TriggerFactor   *string  `json:"fator_desencadeante,omitempty"`
	Temperature     *float64 `json:"temperatura_graus,omitempty"`
	BloodPressure   *string  `json:"pressao_arterial,omitempty"`
}

// StructuredDataUpdated is the body returned by the structured-data update.
type StructuredDataUpdated struct {
	Message        string         `json:"message"`
	StructuredData StructuredData `json:"structured_data"`
}

// MedicalExplanation is a generated narrative and severity assessment.
// Recommendations is an encoded list, see extract.Recommendations.
type MedicalExplanation struct {
	ID                    int       `json:"id"`
	CaseID                int       `json:"case_id"`
	ClinicalNarrative     string    `json:"narrativa_clinica,omitempty"`
	SuggestedSeverity     string    `json:"gravidade_sugerida,omitempty"`
	SeverityJustification string    `json:"justificativa_gravidade,omitempty"`
	Recommendations       string    `json:"recomendacoes,omitempty"`
	CreatedAt             Timestamp `json:"created_at"`
}

// ExplanationResponse wraps both explanation endpoints.
type ExplanationResponse struct {
	Message     string             `json:"message"`
	Explanation MedicalExplanation `json:"explanation"`
}
