// Package ranking orders and filters upgrade records for reporting.
package ranking

import (
	"iter"
	"sort"

	"github.com/rewired-gh/kitarb/internal/models"
)

// Rank returns a sorted copy of records. Ties on profit are broken by profit
// percent descending, then base item and kit type ascending.
func Rank(records []models.UpgradeRecord, dir models.Direction) []models.UpgradeRecord {
	ranked := make([]models.UpgradeRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.ProfitRef != b.ProfitRef {
			if dir == models.LeastProfitable {
				return a.ProfitRef < b.ProfitRef
			}
			return a.ProfitRef > b.ProfitRef
		}
		if a.ProfitPercent != b.ProfitPercent {
			return a.ProfitPercent > b.ProfitPercent
		}
		if a.BaseItem != b.BaseItem {
			return a.BaseItem < b.BaseItem
		}
		return a.KitType < b.KitType
	})
	return ranked
}

// TopN returns the first n ranked records, or all of them when n exceeds the count.
func TopN(records []models.UpgradeRecord, n int, dir models.Direction) []models.UpgradeRecord {
	ranked := Rank(records, dir)
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// FilterByKitType yields the records whose kit type is in kitTypes, in source
// order. An empty set passes everything. The sequence can be ranged over
// repeatedly and never modifies records.
func FilterByKitType(records []models.UpgradeRecord, kitTypes map[models.KitType]bool) iter.Seq[models.UpgradeRecord] {
	return func(yield func(models.UpgradeRecord) bool) {
		for _, r := range records {
			if len(kitTypes) > 0 && !kitTypes[r.KitType] {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// KitSet builds a kit type set for FilterByKitType.
func KitSet(kitTypes ...models.KitType) map[models.KitType]bool {
	set := make(map[models.KitType]bool, len(kitTypes))
	for _, k := range kitTypes {
		set[k] = true
	}
	return set
}

// TopProfitable returns up to n profitable records, best first.
func TopProfitable(records []models.UpgradeRecord, n int) []models.UpgradeRecord {
	return TopN(partition(records, true), n, models.MostProfitable)
}

// TopUnprofitable returns up to n unprofitable records, worst first.
func TopUnprofitable(records []models.UpgradeRecord, n int) []models.UpgradeRecord {
	return TopN(partition(records, false), n, models.LeastProfitable)
}

func partition(records []models.UpgradeRecord, profitable bool) []models.UpgradeRecord {
	var out []models.UpgradeRecord
	for _, r := range records {
		if r.IsProfitable == profitable {
			out = append(out, r)
		}
	}
	return out
}

// Thresholds decide which profitable records are worth surfacing. They never
// remove records from a result set.
type Thresholds struct {
	MinProfitRef float64
	MinROI       float64 // fraction, 0.05 = 5%
}

// Passes reports whether r is profitable and clears both thresholds.
func (t Thresholds) Passes(r models.UpgradeRecord) bool {
	if !r.IsProfitable || !r.ProfitPercentDefined() {
		return false
	}
	return r.ProfitRef >= t.MinProfitRef && r.ProfitPercent/100 >= t.MinROI
}

// Highlight returns the ranked records passing t.
func (t Thresholds) Highlight(records []models.UpgradeRecord, n int) []models.UpgradeRecord {
	var out []models.UpgradeRecord
	for _, r := range records {
		if t.Passes(r) {
			out = append(out, r)
		}
	}
	return TopN(out, n, models.MostProfitable)
}
