package models

import "time"

type PriorityBucket string

const (
	PriorityFresh   PriorityBucket = "fresh"
	PriorityAging   PriorityBucket = "aging"
	PriorityStale   PriorityBucket = "stale"
	PriorityOverdue PriorityBucket = "overdue"
)

// Rank orders buckets by urgency, most urgent first.
func (b PriorityBucket) Rank() int {
	switch b {
	case PriorityOverdue:
		return 0
	case PriorityStale:
		return 1
	case PriorityAging:
		return 2
	default:
		return 3
	}
}

// KitchenOrder is an Order with timing fields derived for the kitchen display.
// It is rebuilt on every refresh and never stored.
type KitchenOrder struct {
	Order
	ElapsedMinutes          int            `json:"elapsed_minutes"`
	EstimatedCompletionTime time.Time      `json:"estimated_completion_time"`
	IsOverdue               bool           `json:"is_overdue"`
	PriorityBucket          PriorityBucket `json:"priority_bucket"`
}
