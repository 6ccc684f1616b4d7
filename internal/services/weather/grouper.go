package weather

import (
	"math"

	"weathermap/internal/models"
	"weathermap/internal/units"
)

// GroupByDay reduces the forecast series to one summary per distinct UTC
// calendar date, in order of first appearance. Each summary carries the
// minimum of the samples' minima, the maximum of their maxima, the most
// frequent description (earliest-seen wins a tie), and the mean wind speed
// in whole km/h.
func GroupByDay(samples []models.ForecastSample) []models.DailyForecastSummary {
	if len(samples) == 0 {
		return nil
	}

	type dayAccumulator struct {
		minC       float64
		maxC       float64
		windKmhSum float64
		count      int

		descCounts map[string]int
		descOrder  []string
	}

	order := make([]string, 0, 8)
	days := make(map[string]*dayAccumulator)

	for _, s := range samples {
		key := s.DateKey()
		acc, ok := days[key]
		if !ok {
			acc = &dayAccumulator{
				minC:       s.TempMinC,
				maxC:       s.TempMaxC,
				descCounts: make(map[string]int),
			}
			days[key] = acc
			order = append(order, key)
		}

		acc.minC = math.Min(acc.minC, s.TempMinC)
		acc.maxC = math.Max(acc.maxC, s.TempMaxC)
		acc.windKmhSum += units.KmhValue(s.WindSpeedMs)
		acc.count++

		if _, seen := acc.descCounts[s.Description]; !seen {
			acc.descOrder = append(acc.descOrder, s.Description)
		}
		acc.descCounts[s.Description]++
	}

	summaries := make([]models.DailyForecastSummary, 0, len(order))
	for _, key := range order {
		acc := days[key]

		dominant := ""
		best := 0
		for _, desc := range acc.descOrder {
			if acc.descCounts[desc] > best {
				best = acc.descCounts[desc]
				dominant = desc
			}
		}

		summaries = append(summaries, models.DailyForecastSummary{
			DateKey:             key,
			MinC:                acc.minC,
			MaxC:                acc.maxC,
			DominantDescription: dominant,
			AvgWindKmh:          int(math.Round(acc.windKmhSum / float64(acc.count))),
		})
	}

	return summaries
}
