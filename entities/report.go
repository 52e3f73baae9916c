package entities

import "time"

// SymptomGroup buckets the cases whose decoded symptom list contains Symptom.
type SymptomGroup struct {
	Symptom string `json:"symptom"`
	Count   int    `json:"count"`
	Cases   []Case `json:"-"`
}

// CategoryGroup buckets the cases sharing a symptom category.
type CategoryGroup struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Cases    []Case `json:"-"`
}

// IndigenousTermGroup buckets the cases mentioning a native term. Meaning is
// taken from the first record seen for the term.
type IndigenousTermGroup struct {
	Term    string `json:"termo_nativo"`
	Meaning string `json:"significado"`
	Count   int    `json:"count"`
	Cases   []Case `json:"-"`
}

// TimelinePoint counts completed cases created on one calendar day.
// Percent is the bar width relative to the busiest day, floored at 10.
type TimelinePoint struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary is the header of the reports view.
type Summary struct {
	AnalyzedCases   int       `json:"analyzed_cases"`
	UniqueSymptoms  int       `json:"unique_symptoms"`
	Categories      int       `json:"categories"`
	IndigenousTerms int       `json:"indigenous_terms"`
	GeneratedAt     time.Time `json:"generated_at"`
	Generation      uint64    `json:"generation"`
}

// CasePreview is one row of a drill-down or recent-cases list.
type CasePreview struct {
	ID              int        `json:"id"`
	Report          string     `json:"relato"`
	Date            string     `json:"date"`
	Status          CaseStatus `json:"status,omitempty"`
	PatientName     string     `json:"paciente_nome,omitempty"`
	PatientAge      string     `json:"idade_paciente,omitempty"`
	SymptomDuration string     `json:"duracao_sintomas,omitempty"`
}

// StatusCounts breaks the listed cases down by status. Total also counts
// cases whose status is not one of the four known ones.
type StatusCounts struct {
	Total      int `json:"total"`
	Complete   int `json:"completo"`
	Pending    int `json:"pendente"`
	Processing int `json:"processando"`
	Error      int `json:"erro"`
}

// Overview covers every listed case, not only the analyzed ones.
type Overview struct {
	Status      StatusCounts  `json:"status"`
	RecentCases []CasePreview `json:"recent_cases"`
}

// DrillDown is the detail view of a single group.
type DrillDown struct {
	Kind    string        `json:"kind"`
	Label   string        `json:"label"`
	Meaning string        `json:"significado,omitempty"`
	Count   int           `json:"count"`
	Cases   []CasePreview `json:"cases"`
}

// Report is an immutable snapshot of one pipeline run.
type Report struct {
	Generation      uint64                `json:"generation"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Cases           []Case                `json:"-"`
	Symptoms        []SymptomGroup        `json:"symptoms"`
	Categories      []CategoryGroup       `json:"categories"`
	IndigenousTerms []IndigenousTermGroup `json:"indigenous_terms"`
	Timeline        []TimelinePoint       `json:"timeline"`
	Overview        Overview              `json:"overview"`
}
