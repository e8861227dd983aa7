package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/order-platform/database"
	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

type serviceFixture struct {
	svc        *services.OrderService
	notifier   *spyNotifier
	restaurant *models.Restaurant
	now        time.Time
}

func newSQLService(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupTestDB(t)
	restaurants := database.NewRestaurantStore(db)
	restaurant, err := restaurants.CreateRestaurant(context.Background(), "Warung Test")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	notifier := &spyNotifier{}
	f := &serviceFixture{
		svc:        services.NewOrderService(database.NewOrderStore(db), restaurants, notifier, logger),
		notifier:   notifier,
		restaurant: restaurant,
		now:        t0,
	}
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func guestInput(restaurantID string, items ...services.ItemInput) services.CreateOrderInput {
	return services.CreateOrderInput{
		RestaurantID: restaurantID,
		Items:        items,
		GuestInfo:    &models.GuestInfo{Name: "Ana", Phone: "555-0100", Email: "ana@example.com"},
	}
}

var guest = services.GuestActor("ana@example.com", "555-0100")

func TestCreateOrder_ExactMoney(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()

	in := guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("12.99"), Quantity: 2, Modifications: []string{" no onion ", ""}},
		services.ItemInput{Name: "Fries", Price: price("4.51"), Quantity: 1},
		services.ItemInput{Name: "Soda", Price: price("1.33"), Quantity: 6},
	)
	order, err := f.svc.CreateOrder(ctx, in, guest)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReceived, order.Status)
	assert.NotEmpty(t, order.ID)
	assert.True(t, order.TotalPrice.Equal(price("38.47")), order.TotalPrice.String())
	assert.Equal(t, []string{"no onion"}, order.Items[0].Modifications)
	assert.Equal(t, t0, order.CreatedAt)

	stored, err := f.svc.GetOrder(ctx, order.ID, guest)
	require.NoError(t, err)
	assert.True(t, stored.TotalPrice.Equal(price("38.47")), stored.TotalPrice.String())
	assert.Equal(t, "$38.47", utils.FormatPrice(stored.TotalPrice))
	require.Len(t, stored.Items, 3)
	assert.Equal(t, "Burger", stored.Items[0].Name)
	assert.Equal(t, "Soda", stored.Items[2].Name)
	assert.True(t, stored.Items[1].Price.Equal(price("4.51")))

	events := f.notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, "created", events[0].event)
}

func TestCreateOrder_SmallAmountsStayExact(t *testing.T) {
	f := newSQLService(t)
	order, err := f.svc.CreateOrder(context.Background(), guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Mint", Price: price("0.10"), Quantity: 3},
	), guest)
	require.NoError(t, err)
	assert.Equal(t, "0.30", order.TotalPrice.StringFixed(2))
	assert.True(t, order.TotalPrice.Equal(price("0.3")))
}

func TestCreateOrder_ClientTotalIsAdvisory(t *testing.T) {
	f := newSQLService(t)
	logger, hook := test.NewNullLogger()
	f.svc.Logger = logger

	in := guestInput(f.restaurant.ID, services.ItemInput{Name: "Tea", Price: price("2.00"), Quantity: 2})
	wrong := decimal.NewFromInt(1)
	in.ClientTotal = &wrong

	order, err := f.svc.CreateOrder(context.Background(), in, guest)
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(price("4.00")))

	var warned bool
	for _, entry := range hook.AllEntries() {
		warned = warned || entry.Level == logrus.WarnLevel
	}
	assert.True(t, warned)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	burger := services.ItemInput{Name: "Burger", Price: price("10.00"), Quantity: 1}

	cases := map[string]services.CreateOrderInput{
		"no items":      guestInput(f.restaurant.ID),
		"no restaurant": guestInput("", burger),
		"zero quantity": guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 0}),
		"no name":       guestInput(f.restaurant.ID, services.ItemInput{Name: " ", Price: price("10"), Quantity: 1}),
		"negative":      guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("-1"), Quantity: 1}),
		"sub cent":      guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("1.005"), Quantity: 1}),
		"too many":      guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("1"), Quantity: models.MaxItemQuantity + 1}),
		"huge quantity": guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("1"), Quantity: 1 << 60}),
		"total too big": guestInput(f.restaurant.ID, services.ItemInput{Name: "Yacht", Price: price("99999999.99"), Quantity: 2}),
	}

	noGuest := guestInput(f.restaurant.ID, burger)
	noGuest.GuestInfo = nil
	cases["no guest info"] = noGuest

	noEmail := guestInput(f.restaurant.ID, burger)
	noEmail.GuestInfo = &models.GuestInfo{Name: "Ana", Phone: "555-0100"}
	cases["guest without email"] = noEmail

	badEmail := guestInput(f.restaurant.ID, burger)
	badEmail.GuestInfo = &models.GuestInfo{Name: "Ana", Phone: "555-0100", Email: "not-an-email"}
	cases["guest with bad email"] = badEmail

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, in, guest)
			assert.True(t, utils.IsKind(err, utils.KindValidation), "got %v", err)
		})
	}
	assert.Empty(t, f.notifier.all())
}

func TestCreateOrder_LargestOrderStillTimesCorrectly(t *testing.T) {
	f := newSQLService(t)
	order, err := f.svc.CreateOrder(context.Background(), guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Dumpling", Price: price("0.50"), Quantity: models.MaxItemQuantity}), guest)
	require.NoError(t, err)

	due := services.EstimatedPrepMinutes(*order)
	assert.Equal(t, services.BasePrepMinutes+services.ItemPrepMinutes*models.MaxItemQuantity, due)

	early := services.Annotate(*order, order.CreatedAt.Add(time.Minute))
	assert.False(t, early.IsOverdue)
	assert.Equal(t, models.PriorityFresh, early.PriorityBucket)

	late := services.Annotate(*order, order.CreatedAt.Add(time.Duration(due+1)*time.Minute))
	assert.True(t, late.IsOverdue)
	assert.Equal(t, models.PriorityOverdue, late.PriorityBucket)
}

func TestCreateOrder_UnknownRestaurant(t *testing.T) {
	f := newSQLService(t)
	_, err := f.svc.CreateOrder(context.Background(), guestInput("missing",
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestCreateOrder_CustomerOwnsOrder(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	in := guestInput(f.restaurant.ID, services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1})
	in.GuestInfo = nil

	order, err := f.svc.CreateOrder(ctx, in, services.CustomerActor("cust-1"))
	require.NoError(t, err)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, "cust-1", *order.CustomerID)
	assert.Nil(t, order.GuestInfo)

	_, err = f.svc.GetOrder(ctx, order.ID, services.CustomerActor("cust-2"))
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
	_, err = f.svc.GetOrder(ctx, order.ID, services.CustomerActor("cust-1"))
	assert.NoError(t, err)
}

func TestGetOrder_GuestCredentials(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, order.ID, services.GuestActor("ana@example.com", "555-0199"))
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))

	_, err = f.svc.GetOrder(ctx, "does-not-exist", guest)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	staff := services.StaffActor(f.restaurant.ID, false)

	order, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)

	eta := t0.Add(20 * time.Minute)
	steps := []services.StatusUpdateRequest{
		{Status: models.StatusConfirmed, EstimatedReadyTime: &eta},
		{Status: models.StatusInKitchen},
		{Status: models.StatusReadyForPickup},
		{Status: models.StatusDelivered},
	}
	for i, step := range steps {
		f.now = t0.Add(time.Duration(i+1) * time.Minute)
		updated, err := f.svc.UpdateStatus(ctx, order.ID, step, staff)
		require.NoError(t, err, step.Status)
		assert.Equal(t, step.Status, updated.Status)
		assert.Equal(t, f.now, updated.UpdatedAt)
	}

	stored, err := f.svc.GetOrder(ctx, order.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	require.NotNil(t, stored.EstimatedReadyTime)
	assert.True(t, eta.Equal(*stored.EstimatedReadyTime))

	_, err = f.svc.UpdateStatus(ctx, order.ID, services.StatusUpdateRequest{Status: models.StatusCancelled}, staff)
	assert.True(t, utils.IsKind(err, utils.KindInvalidTransition))

	events := f.notifier.all()
	require.Len(t, events, 5)
	assert.Equal(t, models.StatusInKitchen, events[3].previous)
	assert.Equal(t, models.StatusReadyForPickup, events[3].order.Status)
}

func TestUpdateStatus_DoubleConfirm(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	staff := services.StaffActor(f.restaurant.ID, false)

	order, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)

	confirm := services.StatusUpdateRequest{Status: models.StatusConfirmed}
	_, err = f.svc.UpdateStatus(ctx, order.ID, confirm, staff)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, order.ID, confirm, staff)
	assert.True(t, utils.IsKind(err, utils.KindInvalidTransition))

	stored, err := f.svc.GetOrder(ctx, order.ID, staff)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestUpdateStatus_ConcurrentConfirmOnlyOneWins(t *testing.T) {
	store := newMemStore()
	notifier := &spyNotifier{}
	logger, _ := test.NewNullLogger()
	svc := services.NewOrderService(store, memRestaurants{"resto-1": {ID: "resto-1"}}, notifier, logger)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, guestInput("resto-1",
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)

	staff := services.StaffActor("resto-1", false)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, order.ID, services.StatusUpdateRequest{Status: models.StatusConfirmed}, staff)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case utils.IsKind(err, utils.KindInvalidTransition):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 19, conflicts)
	// one created event plus exactly one status change
	assert.Len(t, notifier.all(), 2)
}

func TestCancelOrder_Guest(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	staff := services.StaffActor(f.restaurant.ID, false)

	first, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, first.ID, "", services.GuestActor("someone@example.com", "555-0100"))
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))

	cancelled, err := f.svc.CancelOrder(ctx, first.ID, "changed my mind", guest)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", *cancelled.CancellationReason)

	second, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
		services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
	require.NoError(t, err)
	for _, status := range []models.OrderStatus{models.StatusConfirmed, models.StatusInKitchen} {
		_, err = f.svc.UpdateStatus(ctx, second.ID, services.StatusUpdateRequest{Status: status}, staff)
		require.NoError(t, err)
	}
	_, err = f.svc.CancelOrder(ctx, second.ID, "", guest)
	assert.True(t, utils.IsKind(err, utils.KindInvalidTransition))
}

func TestListOrdersAndKitchenView(t *testing.T) {
	f := newSQLService(t)
	ctx := context.Background()
	staff := services.StaffActor(f.restaurant.ID, false)

	var ids []string
	for i := 0; i < 3; i++ {
		f.now = t0.Add(time.Duration(i) * time.Minute)
		order, err := f.svc.CreateOrder(ctx, guestInput(f.restaurant.ID,
			services.ItemInput{Name: "Burger", Price: price("10"), Quantity: 1}), guest)
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	_, err := f.svc.CancelOrder(ctx, ids[0], "", staff)
	require.NoError(t, err)

	all, err := f.svc.ListOrders(ctx, f.restaurant.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	received, err := f.svc.ListOrders(ctx, f.restaurant.ID, []models.OrderStatus{models.StatusReceived})
	require.NoError(t, err)
	assert.Len(t, received, 2)

	f.now = t0.Add(5 * time.Minute)
	kitchen, err := f.svc.KitchenView(ctx, f.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, kitchen, 2)
	assert.Equal(t, ids[1], kitchen[0].ID, "oldest first within a bucket")
	assert.Equal(t, 4, kitchen[0].ElapsedMinutes)

	_, err = f.svc.ListOrders(ctx, "missing", nil)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}
