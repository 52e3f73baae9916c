package report

import (
	"math"
	"sort"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
)

// minBarPercent keeps quiet days visible next to the busiest one.
const minBarPercent = 10

// Timeline counts cases per calendar day in chronological order. Cases whose
// creation date did not parse are bucketed by their raw text after the dated
// points, in first-encounter order.
func Timeline(cases []entities.Case) []entities.TimelinePoint {
	type day struct {
		key   time.Time
		label string
		count int
	}

	dated := make(map[time.Time]*day)
	undated := make(map[string]*day)
	var datedOrder, undatedOrder []*day

	for _, c := range cases {
		ts := c.CreatedAt
		if ts.Valid() {
			y, m, d := ts.Time.Date()
			key := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			if b, ok := dated[key]; ok {
				b.count++
				continue
			}
			b := &day{key: key, label: ts.Date(), count: 1}
			dated[key] = b
			datedOrder = append(datedOrder, b)
			continue
		}

		if b, ok := undated[ts.Raw]; ok {
			b.count++
			continue
		}
		b := &day{label: ts.Raw, count: 1}
		undated[ts.Raw] = b
		undatedOrder = append(undatedOrder, b)
	}

	sort.SliceStable(datedOrder, func(i, j int) bool {
		return datedOrder[i].key.Before(datedOrder[j].key)
	})

	all := append(datedOrder, undatedOrder...)
	points := make([]entities.TimelinePoint, len(all))
	maxCount := 0
	for i, b := range all {
		points[i] = entities.TimelinePoint{Date: b.label, Count: b.count}
		if b.count > maxCount {
			maxCount = b.count
		}
	}
	for i := range points {
		pct := float64(points[i].Count) / float64(maxCount) * 100
		points[i].Percent = math.Max(minBarPercent, math.Round(pct*10)/10)
	}
	return points
}
