package award

// MilestoneThresholds is the fixed ascending sequence of lifetime-earnings
// milestones. Crossing one is reported to the caller but grants nothing by
// itself.
var MilestoneThresholds = []int64{10, 100, 1000, 10000, 100000, 500000, 1000000}

// highestCrossed returns the highest threshold T with oldTotal < T <= newTotal,
// or nil when no threshold was crossed by this grant.
func highestCrossed(oldTotal, newTotal int64) *int64 {
	var crossed *int64
	for _, t := range MilestoneThresholds {
		if oldTotal < t && t <= newTotal {
			v := t
			crossed = &v
		}
		if t > newTotal {
			break
		}
	}
	return crossed
}
