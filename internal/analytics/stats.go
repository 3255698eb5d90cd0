package analytics

import (
	"math"
	"time"
)

// Aggregate computes statistics from records. Only completed calls count
// towards the average duration and only rated calls towards the average
// rating; calls_today compares calendar dates in loc.
func Aggregate(records []CallRecord, now time.Time, loc *time.Location) AggregateStats {
	if loc == nil {
		loc = time.UTC
	}
	stats := AggregateStats{
		CallsByDuration: make(map[string]int),
		CallsByAge:      make(map[int]int),
	}

	ty, tm, td := now.In(loc).Date()

	var (
		durationSum, completed int
		ratingSum, rated       int
	)
	for _, r := range records {
		stats.TotalCalls++
		stats.CallsByDuration[r.CallDuration]++
		stats.CallsByAge[r.ChildAge]++

		y, m, d := r.StartedAt.In(loc).Date()
		if y == ty && m == tm && d == td {
			stats.CallsToday++
		}

		if !r.Completed() {
			continue
		}
		if r.ActualDurationSeconds != nil {
			durationSum += *r.ActualDurationSeconds
			completed++
		}
		if r.ParentRating != nil {
			ratingSum += *r.ParentRating
			rated++
		}
	}

	if completed > 0 {
		stats.AverageDurationSeconds = round(float64(durationSum)/float64(completed), 1)
	}
	if rated > 0 {
		stats.AverageRating = round(float64(ratingSum)/float64(rated), 2)
	}
	return stats
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
