package services

import (
	"sort"
	"time"

	"github.com/yeremiapane/order-platform/models"
)

// Preparation estimate policy. A heuristic, not measured kitchen throughput.
const (
	BasePrepMinutes = 15
	ItemPrepMinutes = 3

	AgingAfterMinutes = 10
	StaleAfterMinutes = 20
)

// EstimatedPrepMinutes is the expected preparation time for order.
func EstimatedPrepMinutes(order models.Order) int {
	return BasePrepMinutes + ItemPrepMinutes*order.ItemCount()
}

// Annotate derives the kitchen timing fields of order at now. It has no side
// effects and depends only on its arguments.
func Annotate(order models.Order, now time.Time) models.KitchenOrder {
	elapsed := now.Sub(order.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	elapsedMinutes := int(elapsed / time.Minute)

	completion := order.CreatedAt.Add(time.Duration(EstimatedPrepMinutes(order)) * time.Minute)
	overdue := now.After(completion) && !order.Status.IsTerminal()

	bucket := models.PriorityFresh
	switch {
	case overdue:
		bucket = models.PriorityOverdue
	case elapsedMinutes > StaleAfterMinutes:
		bucket = models.PriorityStale
	case elapsedMinutes > AgingAfterMinutes:
		bucket = models.PriorityAging
	}

	return models.KitchenOrder{
		Order:                   order,
		ElapsedMinutes:          elapsedMinutes,
		EstimatedCompletionTime: completion,
		IsOverdue:               overdue,
		PriorityBucket:          bucket,
	}
}

// AnnotateAll annotates every order into a new slice, most urgent first and
// oldest first within a bucket.
func AnnotateAll(orders []models.Order, now time.Time) []models.KitchenOrder {
	annotated := make([]models.KitchenOrder, 0, len(orders))
	for _, order := range orders {
		annotated = append(annotated, Annotate(order, now))
	}

	sort.SliceStable(annotated, func(i, j int) bool {
		ri, rj := annotated[i].PriorityBucket.Rank(), annotated[j].PriorityBucket.Rank()
		if ri != rj {
			return ri < rj
		}
		return annotated[i].CreatedAt.Before(annotated[j].CreatedAt)
	})
	return annotated
}
