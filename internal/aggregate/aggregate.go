// Package aggregate turns a ResultSet into the tabular views shown on the
// dashboard: per-species summaries, per-minute activity buckets and run
// totals. Plain grouping and sorting, nothing clever.
package aggregate

import (
	"sort"

	"github.com/aveslab/perchview/internal/detection"
)

// SpeciesSummary aggregates all detections of one species.
type SpeciesSummary struct {
	Species       string  `json:"species"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	FirstOffset   float64 `json:"first_offset"` // earliest start time in seconds
	LastOffset    float64 `json:"last_offset"`  // latest end time in seconds
	Files         int     `json:"files"`        // distinct files the species was heard in
}

// TimelineBucket counts detections of one species in one minute of audio.
type TimelineBucket struct {
	Minute  int    `json:"minute"` // minute offset from file start
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// Totals summarizes a whole analysis run.
type Totals struct {
	Detections    int     `json:"detections"`
	UniqueSpecies int     `json:"unique_species"`
	Files         int     `json:"files"`
	AvgDuration   float64 `json:"avg_duration"` // mean detection span in seconds
}

// Summarize groups detections by species, sorted by count descending with
// species name as tiebreaker so the order is stable.
func Summarize(rs *detection.ResultSet) []SpeciesSummary {
	type acc struct {
		count    int
		sumConf  float64
		maxConf  float64
		firstOff float64
		lastOff  float64
		files    map[string]struct{}
	}

	groups := make(map[string]*acc)
	for _, d := range rs.Detections() {
		g, ok := groups[d.Species]
		if !ok {
			g = &acc{
				maxConf:  d.Confidence,
				firstOff: d.StartTime,
				lastOff:  d.EndTime,
				files:    make(map[string]struct{}),
			}
			groups[d.Species] = g
		}
		g.count++
		g.sumConf += d.Confidence
		if d.Confidence > g.maxConf {
			g.maxConf = d.Confidence
		}
		if d.StartTime < g.firstOff {
			g.firstOff = d.StartTime
		}
		if d.EndTime > g.lastOff {
			g.lastOff = d.EndTime
		}
		g.files[d.FilePath] = struct{}{}
	}

	summaries := make([]SpeciesSummary, 0, len(groups))
	for species, g := range groups {
		summaries = append(summaries, SpeciesSummary{
			Species:       species,
			Count:         g.count,
			AvgConfidence: g.sumConf / float64(g.count),
			MaxConfidence: g.maxConf,
			FirstOffset:   g.firstOff,
			LastOffset:    g.lastOff,
			Files:         len(g.files),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Species < summaries[j].Species
	})

	return summaries
}

// TopSpecies returns at most n species summaries with the highest counts.
func TopSpecies(rs *detection.ResultSet, n int) []SpeciesSummary {
	summaries := Summarize(rs)
	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

// Timeline buckets detections per minute of audio per species, ordered by
// minute then species.
func Timeline(rs *detection.ResultSet) []TimelineBucket {
	type bucketKey struct {
		minute  int
		species string
	}

	counts := make(map[bucketKey]int)
	for _, d := range rs.Detections() {
		k := bucketKey{minute: int(d.StartTime) / 60, species: d.Species}
		counts[k]++
	}

	buckets := make([]TimelineBucket, 0, len(counts))
	for k, count := range counts {
		buckets = append(buckets, TimelineBucket{
			Minute:  k.minute,
			Species: k.species,
			Count:   count,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Minute != buckets[j].Minute {
			return buckets[i].Minute < buckets[j].Minute
		}
		return buckets[i].Species < buckets[j].Species
	})

	return buckets
}

// Summary computes run totals.
func Summary(rs *detection.ResultSet) Totals {
	species := make(map[string]struct{})
	var spanSum float64
	for _, d := range rs.Detections() {
		species[d.Species] = struct{}{}
		spanSum += d.EndTime - d.StartTime
	}

	totals := Totals{
		Detections:    rs.Len(),
		UniqueSpecies: len(species),
		Files:         rs.Files(),
	}
	if totals.Detections > 0 {
		totals.AvgDuration = spanSum / float64(totals.Detections)
	}
	return totals
}
