package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/services"
)

func orderWithUnits(id string, created time.Time, status models.OrderStatus, quantities ...int) models.Order {
	order := models.Order{ID: id, RestaurantID: "resto-1", Status: status, CreatedAt: created}
	for _, qty := range quantities {
		order.Items = append(order.Items, models.OrderItem{Name: "item", Price: price("1.00"), Quantity: qty})
	}
	return order
}

func TestEstimatedPrepMinutes(t *testing.T) {
	assert.Equal(t, 15, services.EstimatedPrepMinutes(models.Order{}))
	assert.Equal(t, 27, services.EstimatedPrepMinutes(orderWithUnits("a", t0, models.StatusReceived, 2, 1, 1)))
}

func TestAnnotate_OverdueAfterEstimate(t *testing.T) {
	order := orderWithUnits("a", t0, models.StatusInKitchen, 2, 2)

	k := services.Annotate(order, t0.Add(30*time.Minute))
	assert.Equal(t, 30, k.ElapsedMinutes)
	assert.Equal(t, t0.Add(27*time.Minute), k.EstimatedCompletionTime)
	assert.True(t, k.IsOverdue)
	assert.Equal(t, models.PriorityOverdue, k.PriorityBucket)

	// tepat pada estimasi belum terlambat
	k = services.Annotate(order, t0.Add(27*time.Minute))
	assert.False(t, k.IsOverdue)
	assert.Equal(t, models.PriorityStale, k.PriorityBucket)
}

func TestAnnotate_Buckets(t *testing.T) {
	// 10 units -> 45 minute estimate, far enough to see every bucket
	order := orderWithUnits("a", t0, models.StatusConfirmed, 10)

	cases := []struct {
		after  time.Duration
		bucket models.PriorityBucket
	}{
		{0, models.PriorityFresh},
		{10 * time.Minute, models.PriorityFresh},
		{11 * time.Minute, models.PriorityAging},
		{20*time.Minute + 59*time.Second, models.PriorityAging},
		{21 * time.Minute, models.PriorityStale},
		{45 * time.Minute, models.PriorityStale},
		{46 * time.Minute, models.PriorityOverdue},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.bucket, services.Annotate(order, t0.Add(tc.after)).PriorityBucket, "after %s", tc.after)
	}
}

func TestAnnotate_ElapsedIsFlooredAndClamped(t *testing.T) {
	order := orderWithUnits("a", t0, models.StatusReceived, 1)

	assert.Equal(t, 4, services.Annotate(order, t0.Add(4*time.Minute+59*time.Second)).ElapsedMinutes)
	// clock skew: order from the future
	assert.Equal(t, 0, services.Annotate(order, t0.Add(-3*time.Minute)).ElapsedMinutes)
}

func TestAnnotate_TerminalNeverOverdue(t *testing.T) {
	for _, status := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		k := services.Annotate(orderWithUnits("a", t0, status, 1), t0.Add(5*time.Hour))
		assert.False(t, k.IsOverdue, status)
	}
}

func TestAnnotate_PureAndMonotonic(t *testing.T) {
	order := orderWithUnits("a", t0, models.StatusReceived, 3)
	now := t0.Add(12 * time.Minute)

	first := services.Annotate(order, now)
	second := services.Annotate(order, now)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, order.Items[0].Quantity)

	prev := -1
	for m := 0; m < 90; m++ {
		elapsed := services.Annotate(order, t0.Add(time.Duration(m)*time.Minute)).ElapsedMinutes
		assert.GreaterOrEqual(t, elapsed, prev)
		prev = elapsed
	}
}

func TestAnnotateAll_MostUrgentFirst(t *testing.T) {
	now := t0.Add(60 * time.Minute)
	orders := []models.Order{
		orderWithUnits("fresh", now.Add(-2*time.Minute), models.StatusReceived, 1),
		orderWithUnits("aging", now.Add(-15*time.Minute), models.StatusReceived, 10),
		orderWithUnits("overdue-new", now.Add(-40*time.Minute), models.StatusInKitchen, 1),
		orderWithUnits("overdue-old", now.Add(-50*time.Minute), models.StatusInKitchen, 1),
		orderWithUnits("stale", now.Add(-25*time.Minute), models.StatusConfirmed, 10),
	}

	annotated := services.AnnotateAll(orders, now)

	var ids []string
	for _, k := range annotated {
		ids = append(ids, k.ID)
	}
	assert.Equal(t, []string{"overdue-old", "overdue-new", "stale", "aging", "fresh"}, ids)
	// input order untouched
	assert.Equal(t, "fresh", orders[0].ID)
}
