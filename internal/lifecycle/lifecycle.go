// Package lifecycle governs the status transitions of an inventory item and
// the reminder side effects each transition triggers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartpantry/internal/models"
)

// ErrInvalidTransition is returned when an event is not allowed in the item's current status.
var ErrInvalidTransition = errors.New("lifecycle: invalid transition")

// RestockQuantity is the quantity an item is reset to when it goes on the shopping list.
const RestockQuantity = "1 pcs"

// DefaultRestockHorizon is the expiry assigned to a freshly bought item.
const DefaultRestockHorizon = 7 * 24 * time.Hour

// Event is something that happens to an item
type Event string

const (
	EventConsume           Event = "consume"
	EventDiscard           Event = "discard"
	EventDeplete           Event = "deplete"
	EventAddToShoppingList Event = "add_to_shopping_list"
	EventMarkBought        Event = "mark_bought"
)

// ParseEvent converts an API value into an Event
func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case EventConsume, EventDiscard, EventDeplete, EventAddToShoppingList, EventMarkBought:
		return Event(s), nil
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// DepletionPolicy decides what happens to an item whose quantity a deduction used up
type DepletionPolicy string

const (
	// DepleteToShoppingList resets the quantity, moves the item to the
	// shopping list and sends a low stock alert.
	DepleteToShoppingList DepletionPolicy = "shoppingList"
	// DepleteToConsumed marks the item consumed and keeps the zeroed quantity.
	DepleteToConsumed DepletionPolicy = "consumed"
)

// ParseDepletionPolicy converts a config value into a DepletionPolicy
func ParseDepletionPolicy(s string) (DepletionPolicy, error) {
	switch DepletionPolicy(s) {
	case "":
		return DepleteToShoppingList, nil
	case DepleteToShoppingList, DepleteToConsumed:
		return DepletionPolicy(s), nil
	}
	return "", fmt.Errorf("unknown depletion policy %q", s)
}

// Notifier schedules and cancels item notifications
type Notifier interface {
	ScheduleExpiryReminder(ctx context.Context, item *models.InventoryItem, fireAt time.Time) error
	CancelReminder(ctx context.Context, itemID string) error
	ScheduleLowStockAlert(ctx context.Context, item *models.InventoryItem) error
}

// HookFunc observes a completed transition
type HookFunc func(item *models.InventoryItem, from models.ItemStatus, ev Event)

// Config configures a Machine
type Config struct {
	Policy         DepletionPolicy
	RestockHorizon time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

// Machine applies lifecycle events to items
type Machine struct {
	notifier       Notifier
	policy         DepletionPolicy
	restockHorizon time.Duration
	now            func() time.Time
	log            *slog.Logger
	hooks          []HookFunc
}

// NewMachine creates a new state machine. Zero config fields take defaults.
func NewMachine(notifier Notifier, cfg Config) *Machine {
	m := &Machine{
		notifier:       notifier,
		policy:         cfg.Policy,
		restockHorizon: cfg.RestockHorizon,
		now:            cfg.Now,
		log:            cfg.Logger,
	}
	if m.policy == "" {
		m.policy = DepleteToShoppingList
	}
	if m.restockHorizon <= 0 {
		m.restockHorizon = DefaultRestockHorizon
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Policy returns the configured depletion policy
func (m *Machine) Policy() DepletionPolicy {
	return m.policy
}

// AddHook registers a hook run after every successful transition
func (m *Machine) AddHook(h HookFunc) {
	m.hooks = append(m.hooks, h)
}

// Target returns the status ev leads to from status from.
func (m *Machine) Target(from models.ItemStatus, ev Event) (models.ItemStatus, error) {
	switch from {
	case models.StatusAvailable:
		switch ev {
		case EventConsume:
			return models.StatusConsumed, nil
		case EventDiscard:
			return models.StatusDiscarded, nil
		case EventAddToShoppingList:
			return models.StatusShoppingList, nil
		case EventDeplete:
			if m.policy == DepleteToConsumed {
				return models.StatusConsumed, nil
			}
			return models.StatusShoppingList, nil
		}
	case models.StatusConsumed, models.StatusDiscarded:
		if ev == EventAddToShoppingList {
			return models.StatusShoppingList, nil
		}
	case models.StatusShoppingList:
		if ev == EventMarkBought {
			return models.StatusAvailable, nil
		}
	}
	return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, from)
}

// Register sets the initial status of a new item. The caller arms the
// expiry reminder with Rearm once the item is stored.
func (m *Machine) Register(item *models.InventoryItem) error {
	if item.Status == "" {
		item.Status = models.StatusAvailable
	}
	if item.Status != models.StatusAvailable && item.Status != models.StatusShoppingList {
		return fmt.Errorf("%w: new item cannot start as %s", ErrInvalidTransition, item.Status)
	}
	now := m.now()
	if item.AddedDate.IsZero() {
		item.AddedDate = now
	}
	item.StatusChangedAt = &now
	return nil
}

// Apply moves item through ev, mutating it in place and running side effects.
// Notifier failures are logged and do not undo the transition.
func (m *Machine) Apply(ctx context.Context, item *models.InventoryItem, ev Event) error {
	from := item.Status
	to, err := m.Target(from, ev)
	if err != nil {
		return err
	}
	now := m.now()

	switch {
	case ev == EventConsume, ev == EventDiscard:
		m.cancel(ctx, item)

	case ev == EventDeplete && to == models.StatusConsumed:
		m.cancel(ctx, item)

	case ev == EventDeplete:
		item.Quantity = RestockQuantity
		m.cancel(ctx, item)
		if err := m.notifier.ScheduleLowStockAlert(ctx, item); err != nil {
			m.log.Warn("low stock alert failed", "item_id", item.ItemID, "err", err)
		}

	case ev == EventAddToShoppingList:
		item.Quantity = RestockQuantity
		if from == models.StatusAvailable {
			m.cancel(ctx, item)
		}

	case ev == EventMarkBought:
		item.AddedDate = now
		item.ExpiryDate = now.Add(m.restockHorizon)
	}

	item.Status = to
	item.StatusChangedAt = &now

	if ev == EventMarkBought {
		m.armExpiry(ctx, item)
	}

	m.log.Debug("item transition", "item_id", item.ItemID, "event", ev, "from", from, "to", to)
	for _, h := range m.hooks {
		h(item, from, ev)
	}
	return nil
}

// Rearm schedules the expiry reminder of a stored item. Items that are not
// available are left alone.
func (m *Machine) Rearm(ctx context.Context, item *models.InventoryItem) {
	if item.Status == models.StatusAvailable {
		m.armExpiry(ctx, item)
	}
}

func (m *Machine) cancel(ctx context.Context, item *models.InventoryItem) {
	if err := m.notifier.CancelReminder(ctx, item.ItemID); err != nil {
		m.log.Warn("cancel reminder failed", "item_id", item.ItemID, "err", err)
	}
}

func (m *Machine) armExpiry(ctx context.Context, item *models.InventoryItem) {
	fireAt, ok := ReminderTime(item.ExpiryDate, m.now())
	if !ok {
		return
	}
	if err := m.notifier.ScheduleExpiryReminder(ctx, item, fireAt); err != nil {
		m.log.Warn("schedule expiry reminder failed", "item_id", item.ItemID, "err", err)
	}
}

// ReminderTime returns 09:00 on the day before expiry, in the location of
// now. ok is false when that moment has already passed.
func ReminderTime(expiry, now time.Time) (time.Time, bool) {
	if expiry.IsZero() {
		return time.Time{}, false
	}
	d := expiry.In(now.Location()).AddDate(0, 0, -1)
	at := time.Date(d.Year(), d.Month(), d.Day(), 9, 0, 0, 0, now.Location())
	if at.Before(now) {
		return time.Time{}, false
	}
	return at, true
}
