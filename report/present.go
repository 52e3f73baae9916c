package report

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/aldeia/relatos-dashboard/entities"
)

// Group kinds accepted by DrillDown.
const (
	KindSymptoms        = "symptoms"
	KindCategories      = "categories"
	KindIndigenousTerms = "indigenous-terms"
	KindTimeline        = "timeline"
)

// DefaultPreviewLength is the number of runes of report text shown per case.
const DefaultPreviewLength = 280

// DefaultRecentCases is how many listed cases the overview shows.
const DefaultRecentCases = 2

// sortByCount orders groups by descending count. The sort is stable so ties
// keep the order in which labels were first encountered.
func sortByCount[T any](groups []T, count func(T) int) {
	sort.SliceStable(groups, func(i, j int) bool {
		return count(groups[i]) > count(groups[j])
	})
}

// Build runs the whole aggregation over the analyzed cases and stamps the
// result with gen. Every case passed in is analyzed; filtering by status is
// the caller's job.
func Build(cases []entities.Case, gen uint64, now time.Time) *entities.Report {
	return &entities.Report{
		Generation:      gen,
		GeneratedAt:     now,
		Cases:           cases,
		Symptoms:        GroupSymptoms(cases),
		Categories:      GroupCategories(cases),
		IndigenousTerms: GroupIndigenousTerms(cases),
		Timeline:        Timeline(cases),
	}
}

// NewOverview counts listed by status and previews the first recent of them,
// in list order. recent of zero or less uses DefaultRecentCases.
func NewOverview(listed []entities.Case, recent, previewLen int) entities.Overview {
	if recent <= 0 {
		recent = DefaultRecentCases
	}

	var counts entities.StatusCounts
	for _, c := range listed {
		counts.Total++
		switch c.Status {
		case entities.StatusComplete:
			counts.Complete++
		case entities.StatusPending:
			counts.Pending++
		case entities.StatusProcessing:
			counts.Processing++
		case entities.StatusError:
			counts.Error++
		}
	}

	n := min(recent, len(listed))
	previews := make([]entities.CasePreview, n)
	for i, c := range listed[:n] {
		previews[i] = Preview(c, previewLen)
	}
	return entities.Overview{Status: counts, RecentCases: previews}
}

// Summarize returns the header figures of r.
func Summarize(r *entities.Report) entities.Summary {
	if r == nil {
		return entities.Summary{}
	}
	return entities.Summary{
		AnalyzedCases:   len(r.Cases),
		UniqueSymptoms:  len(r.Symptoms),
		Categories:      len(r.Categories),
		IndigenousTerms: len(r.IndigenousTerms),
		GeneratedAt:     r.GeneratedAt,
		Generation:      r.Generation,
	}
}

// DrillDown finds the group kind/label in r and lists its cases. previewLen
// of zero or less uses DefaultPreviewLength.
func DrillDown(r *entities.Report, kind, label string, previewLen int) (entities.DrillDown, bool) {
	if r == nil {
		return entities.DrillDown{}, false
	}

	dd := entities.DrillDown{Kind: kind, Label: label}
	var cases []entities.Case

	switch kind {
	case KindSymptoms:
		for _, g := range r.Symptoms {
			if g.Symptom == label {
				dd.Count, cases = g.Count, g.Cases
				break
			}
		}
	case KindCategories:
		for _, g := range r.Categories {
			if g.Category == label {
				dd.Count, cases = g.Count, g.Cases
				break
			}
		}
	case KindIndigenousTerms:
		for _, g := range r.IndigenousTerms {
			if g.Term == label {
				dd.Count, dd.Meaning, cases = g.Count, g.Meaning, g.Cases
				break
			}
		}
	default:
		return entities.DrillDown{}, false
	}

	if cases == nil {
		return entities.DrillDown{}, false
	}

	dd.Cases = make([]entities.CasePreview, len(cases))
	for i, c := range cases {
		dd.Cases[i] = Preview(c, previewLen)
	}
	return dd, true
}

// Preview renders the drill-down row for c.
func Preview(c entities.Case, previewLen int) entities.CasePreview {
	p := entities.CasePreview{
		ID:     c.ID,
		Report: Truncate(c.OriginalReport, previewLen),
		Date:   c.CreatedAt.Date(),
		Status: c.Status,
	}
	if sd := c.StructuredData; sd != nil {
		p.PatientName = sd.PatientName
		p.PatientAge = sd.PatientAge
		p.SymptomDuration = sd.SymptomDuration
	}
	return p
}

// Truncate shortens s to n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		n = DefaultPreviewLength
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
