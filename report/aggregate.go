// Package report groups completed cases by the labels decoded from their
// structured data and presents the groups ordered by frequency.
package report

import (
	"github.com/aldeia/relatos-dashboard/entities"
	"github.com/aldeia/relatos-dashboard/extract"
)

// bucket accumulates one group in first-encounter order. seen guards against
// a case joining the same group twice when its field repeats a label.
type bucket struct {
	label   string
	meaning string
	cases   []entities.Case
	seen    map[int]struct{}
}

type grouper struct {
	order   []*bucket
	byLabel map[string]*bucket
}

func newGrouper() *grouper {
	return &grouper{byLabel: make(map[string]*bucket)}
}

// add files c under label. meaning is kept only from the first call that
// creates the bucket.
func (g *grouper) add(label, meaning string, c entities.Case) {
	b, ok := g.byLabel[label]
	if !ok {
		b = &bucket{label: label, meaning: meaning, seen: make(map[int]struct{})}
		g.byLabel[label] = b
		g.order = append(g.order, b)
	}
	if _, dup := b.seen[c.ID]; dup {
		return
	}
	b.seen[c.ID] = struct{}{}
	b.cases = append(b.cases, c)
}

// GroupSymptoms returns one group per distinct decoded symptom, most frequent first.
func GroupSymptoms(cases []entities.Case) []entities.SymptomGroup {
	g := newGrouper()
	for _, c := range cases {
		for _, entry := range extract.Symptoms(c.StructuredData) {
			g.add(entry.Label, "", c)
		}
	}

	groups := make([]entities.SymptomGroup, len(g.order))
	for i, b := range g.order {
		groups[i] = entities.SymptomGroup{Symptom: b.label, Count: len(b.cases), Cases: b.cases}
	}
	sortByCount(groups, func(gr entities.SymptomGroup) int { return gr.Count })
	return groups
}

// GroupCategories groups cases by their raw symptom category. Cases without a
// category are left out.
func GroupCategories(cases []entities.Case) []entities.CategoryGroup {
	g := newGrouper()
	for _, c := range cases {
		if c.StructuredData == nil || c.StructuredData.Category == "" {
			continue
		}
		g.add(c.StructuredData.Category, "", c)
	}

	groups := make([]entities.CategoryGroup, len(g.order))
	for i, b := range g.order {
		groups[i] = entities.CategoryGroup{Category: b.label, Count: len(b.cases), Cases: b.cases}
	}
	sortByCount(groups, func(gr entities.CategoryGroup) int { return gr.Count })
	return groups
}

// GroupIndigenousTerms groups cases by native term. Bare strings and records
// with the same term merge; the first meaning seen wins.
func GroupIndigenousTerms(cases []entities.Case) []entities.IndigenousTermGroup {
	g := newGrouper()
	for _, c := range cases {
		for _, entry := range extract.IndigenousTerms(c.StructuredData) {
			g.add(entry.Label, entry.Meaning, c)
		}
	}

	groups := make([]entities.IndigenousTermGroup, len(g.order))
	for i, b := range g.order {
		groups[i] = entities.IndigenousTermGroup{
			Term:    b.label,
			Meaning: b.meaning,
			Count:   len(b.cases),
			Cases:   b.cases,
		}
	}
	sortByCount(groups, func(gr entities.IndigenousTermGroup) int { return gr.Count })
	return groups
}
