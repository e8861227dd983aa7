package kds

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

type DisplayState string

const (
	StateDisconnected DisplayState = "disconnected"
	StateConnected    DisplayState = "connected"
)

// OrderSource fetches the current orders of a restaurant.
type OrderSource interface {
	FetchOrders(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error)
}

// StatusUpdater submits a status transition to the order service.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, req services.StatusUpdateRequest) (*models.Order, error)
}

type SoundPlayer interface {
	Play() error
}

type Renderer interface {
	Render(view View)
}

// Notice is a transient message for the operator.
type Notice struct {
	Kind utils.ErrorKind `json:"kind"`
	Text string          `json:"text"`
	At   time.Time       `json:"at"`
}

// View is an immutable snapshot of the display.
type View struct {
	RestaurantID string                `json:"restaurant_id"`
	State        DisplayState          `json:"state"`
	Now          time.Time             `json:"now"`
	LastSync     time.Time             `json:"last_sync"`
	Orders       []models.KitchenOrder `json:"orders"`
	Notice       *Notice               `json:"notice,omitempty"`
	Flash        bool                  `json:"flash"`
	Arrivals     int                   `json:"arrivals"`
	AutoRefresh  bool                  `json:"auto_refresh"`
	SoundOn      bool                  `json:"sound_on"`
	FlashOn      bool                  `json:"flash_on"`
}

// Find returns the displayed order with id.
func (v View) Find(id string) (models.KitchenOrder, bool) {
	for _, order := range v.Orders {
		if order.ID == id {
			return order, true
		}
	}
	return models.KitchenOrder{}, false
}

// Resolve finds the displayed order whose id starts with prefix, the way
// operators type the short ids shown on screen.
func (v View) Resolve(prefix string) (models.KitchenOrder, error) {
	var matches []models.KitchenOrder
	for _, order := range v.Orders {
		if strings.HasPrefix(order.ID, prefix) {
			matches = append(matches, order)
		}
	}
	switch len(matches) {
	case 0:
		return models.KitchenOrder{}, utils.NotFound("no order on the display matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return models.KitchenOrder{}, utils.ValidationError("%q matches %d orders, type more of the id", prefix, len(matches))
	}
}

type Options struct {
	RestaurantID  string
	PollInterval  time.Duration
	ClockInterval time.Duration
	FetchTimeout  time.Duration
	ActionTimeout time.Duration
	FlashDuration time.Duration
	NoticeTTL     time.Duration
	AutoRefresh   bool
	Sound         bool
	Flash         bool

	SoundPlayer SoundPlayer
	Renderer    Renderer
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

func DefaultOptions(restaurantID string) Options {
	return Options{
		RestaurantID:  restaurantID,
		PollInterval:  10 * time.Second,
		ClockInterval: 60 * time.Second,
		FetchTimeout:  10 * time.Second,
		ActionTimeout: 10 * time.Second,
		FlashDuration: 3 * time.Second,
		NoticeTTL:     8 * time.Second,
		AutoRefresh:   true,
		Sound:         true,
		Flash:         true,
	}
}

type actionRequest struct {
	orderID string
	req     services.StatusUpdateRequest
	reply   chan error
}

// Display keeps a live view of a restaurant's active orders. All of its
// mutable state belongs to the Run goroutine; other goroutines talk to it
// through channels and read snapshots.
type Display struct {
	source  OrderSource
	updater StatusUpdater
	opts    Options
	logger  logrus.FieldLogger
	now     func() time.Time

	autoRefresh atomic.Bool
	soundOn     atomic.Bool
	flashOn     atomic.Bool

	refreshCh chan struct{}
	redrawCh  chan struct{}
	dismissCh chan struct{}
	actions   chan actionRequest
	snapshot  atomic.Pointer[View]

	// owned by Run
	state      DisplayState
	orders     []models.Order
	lastCount  int
	arrivals   int
	notice     *Notice
	flashUntil time.Time
	lastSync   time.Time
}

func NewDisplay(source OrderSource, updater StatusUpdater, opts Options) *Display {
	defaults := DefaultOptions(opts.RestaurantID)
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = defaults.ClockInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaults.FetchTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaults.ActionTimeout
	}
	if opts.FlashDuration <= 0 {
		opts.FlashDuration = defaults.FlashDuration
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = defaults.NoticeTTL
	}

	d := &Display{
		source:    source,
		updater:   updater,
		opts:      opts,
		logger:    opts.Logger,
		now:       opts.Now,
		refreshCh: make(chan struct{}, 1),
		redrawCh:  make(chan struct{}, 1),
		dismissCh: make(chan struct{}, 1),
		actions:   make(chan actionRequest),
		state:     StateDisconnected,
	}
	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}
	d.logger = d.logger.WithField("restaurant_id", opts.RestaurantID)
	if d.now == nil {
		d.now = time.Now
	}
	d.autoRefresh.Store(opts.AutoRefresh)
	d.soundOn.Store(opts.Sound)
	d.flashOn.Store(opts.Flash)

	d.snapshot.Store(&View{
		RestaurantID: opts.RestaurantID,
		State:        StateDisconnected,
		AutoRefresh:  opts.AutoRefresh,
		SoundOn:      opts.Sound,
		FlashOn:      opts.Flash,
	})
	return d
}

// Run polls and re-renders until ctx is done. The poll ticker fetches from
// the source; the clock ticker only re-derives timing over the current set.
func (d *Display) Run(ctx context.Context) error {
	poll := time.NewTicker(d.opts.PollInterval)
	defer poll.Stop()
	clock := time.NewTicker(d.opts.ClockInterval)
	defer clock.Stop()

	d.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			if d.autoRefresh.Load() {
				d.refresh(ctx)
			}
		case <-clock.C:
			d.publish()
		case <-d.refreshCh:
			d.refresh(ctx)
		case <-d.redrawCh:
			d.publish()
		case <-d.dismissCh:
			d.notice = nil
			d.publish()
		case action := <-d.actions:
			action.reply <- d.dispatch(ctx, action)
		}
	}
}

// Snapshot returns the last published view.
func (d *Display) Snapshot() View {
	return *d.snapshot.Load()
}

// Refresh asks for an out-of-cycle fetch.
func (d *Display) Refresh() {
	signal(d.refreshCh)
}

func (d *Display) Dismiss() {
	signal(d.dismissCh)
}

func (d *Display) SetAutoRefresh(on bool) {
	d.autoRefresh.Store(on)
	d.requestRedraw()
}

func (d *Display) SetSound(on bool) {
	d.soundOn.Store(on)
	d.requestRedraw()
}

func (d *Display) SetFlash(on bool) {
	d.flashOn.Store(on)
	d.requestRedraw()
}

// Advance moves a displayed order to the stage after the one the operator
// sees. The target is fixed at call time, so a repeated click asks for the
// same target again and is rejected by the server instead of skipping ahead.
func (d *Display) Advance(ctx context.Context, orderID string) error {
	order, ok := d.Snapshot().Find(orderID)
	if !ok {
		return utils.NotFound("order %s is not on the display", orderID)
	}
	next, ok := services.NextStatus(order.Status)
	if !ok {
		return utils.InvalidTransition("order %s is already %s", orderID, order.Status)
	}
	return d.RequestTransition(ctx, orderID, services.StatusUpdateRequest{Status: next})
}

func (d *Display) Cancel(ctx context.Context, orderID, reason string) error {
	req := services.StatusUpdateRequest{Status: models.StatusCancelled}
	if reason != "" {
		req.CancellationReason = &reason
	}
	return d.RequestTransition(ctx, orderID, req)
}

// RequestTransition hands a transition to the Run loop and waits until it has
// been submitted and, on success, the display has refetched.
func (d *Display) RequestTransition(ctx context.Context, orderID string, req services.StatusUpdateRequest) error {
	action := actionRequest{orderID: orderID, req: req, reply: make(chan error, 1)}
	select {
	case d.actions <- action:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-action.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Display) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	orders, err := d.source.FetchOrders(fetchCtx, d.opts.RestaurantID, models.ActiveStatuses)
	cancel()

	if ctx.Err() != nil {
		return
	}

	if err != nil {
		if d.state == StateConnected {
			d.logger.WithError(err).Warn("kitchen display disconnected")
		}
		d.state = StateDisconnected
		if !utils.IsKind(err, utils.KindTransientIO) {
			d.setNotice(err)
		}
		d.publish()
		return
	}

	now := d.now()
	if d.state == StateDisconnected {
		d.logger.Info("kitchen display connected")
	}
	d.state = StateConnected
	d.lastSync = now

	active := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if order.Status.IsActive() {
			active = append(active, order)
		}
	}

	if len(active) > d.lastCount {
		d.signalArrival(len(active)-d.lastCount, now)
	}
	d.lastCount = len(active)
	d.orders = active

	d.publish()
}

func (d *Display) signalArrival(added int, now time.Time) {
	d.arrivals++
	d.logger.WithField("new_orders", added).Info("new order arrived")

	if d.soundOn.Load() && d.opts.SoundPlayer != nil {
		player := d.opts.SoundPlayer
		go func() {
			if err := player.Play(); err != nil {
				d.logger.WithError(err).Warn("failed to play new order alert")
			}
		}()
	}

	if d.flashOn.Load() {
		d.flashUntil = now.Add(d.opts.FlashDuration)
		time.AfterFunc(d.opts.FlashDuration, d.requestRedraw)
	}
}

func (d *Display) dispatch(ctx context.Context, action actionRequest) error {
	actionCtx, cancel := context.WithTimeout(ctx, d.opts.ActionTimeout)
	_, err := d.updater.UpdateStatus(actionCtx, action.orderID, action.req)
	cancel()

	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": action.orderID,
			"status":   action.req.Status,
		}).Warn("status update failed")
		d.setNotice(err)
		// Stale view: show the operator what the server has now.
		if utils.IsKind(err, utils.KindInvalidTransition) {
			d.refresh(ctx)
		} else {
			d.publish()
		}
		return err
	}

	d.refresh(ctx)
	return nil
}

func (d *Display) setNotice(err error) {
	d.notice = &Notice{Kind: utils.KindOf(err), Text: err.Error(), At: d.now()}
	time.AfterFunc(d.opts.NoticeTTL, d.requestRedraw)
}

func (d *Display) requestRedraw() {
	signal(d.redrawCh)
}

// publish re-annotates the working set and swaps in a new snapshot.
func (d *Display) publish() View {
	now := d.now()
	if d.notice != nil && now.Sub(d.notice.At) >= d.opts.NoticeTTL {
		d.notice = nil
	}

	view := View{
		RestaurantID: d.opts.RestaurantID,
		State:        d.state,
		Now:          now,
		LastSync:     d.lastSync,
		Orders:       services.AnnotateAll(d.orders, now),
		Flash:        d.flashOn.Load() && now.Before(d.flashUntil),
		Arrivals:     d.arrivals,
		AutoRefresh:  d.autoRefresh.Load(),
		SoundOn:      d.soundOn.Load(),
		FlashOn:      d.flashOn.Load(),
	}
	if d.notice != nil {
		notice := *d.notice
		view.Notice = &notice
	}

	d.snapshot.Store(&view)
	if d.opts.Renderer != nil {
		d.opts.Renderer.Render(view)
	}
	return view
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
