package leaderboard

import (
	"bytes"
	"sort"

	"subvault/internal/plan"
	"subvault/internal/subscription"
	"subvault/pkg/pda"
)

const DefaultTopN = 5

type PlanStats struct {
	Plan            plan.Plan `json:"plan"`
	SubscriberCount int       `json:"subscriber_count"`
	TotalEarned     uint64    `json:"total_earned"`
}

type planKey struct {
	creator pda.Address
	planID  uint64
}

// Top ranks plans by subscriber count, then revenue, then address. Every plan
// seeds the map first; subscriptions pointing at no known plan are skipped
// rather than failing the whole aggregation. Revenue is count times the plan's
// price, exact while prices are immutable.
func Top(plans []plan.Plan, subs []subscription.Subscription, n int) []PlanStats {
	stats := make(map[planKey]*PlanStats, len(plans))
	for i := range plans {
		stats[planKey{creator: plans[i].Creator, planID: plans[i].PlanID}] = &PlanStats{Plan: plans[i]}
	}

	for i := range subs {
		if st, ok := stats[planKey{creator: subs[i].Creator, planID: subs[i].PlanID}]; ok {
			st.SubscriberCount++
		}
	}

	ranked := make([]PlanStats, 0, len(stats))
	for _, st := range stats {
		st.TotalEarned = uint64(st.SubscriberCount) * st.Plan.Price
		ranked = append(ranked, *st)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SubscriberCount != ranked[j].SubscriberCount {
			return ranked[i].SubscriberCount > ranked[j].SubscriberCount
		}
		if ranked[i].TotalEarned != ranked[j].TotalEarned {
			return ranked[i].TotalEarned > ranked[j].TotalEarned
		}
		// Address as tie-breaker keeps the order identical for every reader.
		return bytes.Compare(ranked[i].Plan.Address[:], ranked[j].Plan.Address[:]) < 0
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
