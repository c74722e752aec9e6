package pass

import (
	"sort"
)

// Aggregator reduces classified passes into per-satellite statistics and a
// station-level rollup over a date window. An optional satellite allow-list
// restricts aggregation to a fleet of interest (the commercial satellites
// filter in the daily report).
//
// Aggregation is order-independent: any permutation of the same pass
// multiset yields identical results.
type Aggregator struct {
	allowed map[string]struct{} // nil means every satellite counts
}

// NewAggregator creates an Aggregator. With an empty allow-list all
// satellites are counted.
func NewAggregator(allowList []string) *Aggregator {
	a := &Aggregator{}
	if len(allowList) > 0 {
		a.allowed = make(map[string]struct{}, len(allowList))
		for _, name := range allowList {
			a.allowed[name] = struct{}{}
		}
	}
	return a
}

// Aggregate computes per-satellite stats and the rollup for every pass
// whose start instant falls inside the window. A window with zero passes is
// not an error: it yields an empty stat list and a zero-valued rollup with
// EmptyRatio 0.0.
func (a *Aggregator) Aggregate(passes []Pass, window DateWindow) ([]SatelliteStat, Rollup) {
	bySat := make(map[string]*SatelliteStat)

	var rollup Rollup
	for _, p := range passes {
		if !window.Contains(p.Start) {
			continue
		}
		if a.allowed != nil {
			if _, ok := a.allowed[p.Satellite]; !ok {
				continue
			}
		}

		stat, ok := bySat[p.Satellite]
		if !ok {
			stat = &SatelliteStat{Satellite: p.Satellite}
			bySat[p.Satellite] = stat
		}

		stat.TotalPasses++
		rollup.TotalPasses++
		if p.Empty {
			stat.EmptyPasses++
			rollup.EmptyPasses++
		}
	}

	result := make([]SatelliteStat, 0, len(bySat))
	for _, stat := range bySat {
		stat.EmptyRatio = ratio(stat.EmptyPasses, stat.TotalPasses)
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Satellite < result[j].Satellite
	})

	rollup.EmptyRatio = ratio(rollup.EmptyPasses, rollup.TotalPasses)
	return result, rollup
}

// ratio is empty/total with the zero-passes case defined as 0.0 so an
// empty window never propagates a division error into the report.
func ratio(empty, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(empty) / float64(total)
}
