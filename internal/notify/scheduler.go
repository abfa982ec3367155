// Package notify persists item reminders and delivers them to connected
// websocket clients when they fall due.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartpantry/internal/models"

	"github.com/google/uuid"
)

// LowStockDelay is how long after depletion a low stock alert fires
const LowStockDelay = time.Second

// ReminderStore persists reminders
type ReminderStore interface {
	SaveReminder(ctx context.Context, reminder *models.Reminder) error
	DeleteRemindersForItem(ctx context.Context, itemID string) error
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkDelivered(ctx context.Context, reminderID string) error
}

// Scheduler implements lifecycle.Notifier on top of a ReminderStore
type Scheduler struct {
	store ReminderStore
	now   func() time.Time
	log   *slog.Logger
}

// NewScheduler creates a new scheduler. now and logger may be nil.
func NewScheduler(store ReminderStore, now func() time.Time, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: store, now: now, log: logger}
}

// ScheduleExpiryReminder replaces any pending reminder of the item with one firing at fireAt
func (s *Scheduler) ScheduleExpiryReminder(ctx context.Context, item *models.InventoryItem, fireAt time.Time) error {
	if err := s.store.DeleteRemindersForItem(ctx, item.ItemID); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}
	r := &models.Reminder{
		ReminderID: uuid.NewString(),
		ItemID:     item.ItemID,
		Kind:       models.ReminderExpiry,
		FireAt:     fireAt.UTC(),
		Title:      "Item Expiring Soon",
		Body:       fmt.Sprintf("Your %s expires tomorrow! Use it in a recipe.", item.Name),
	}
	if err := s.store.SaveReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	s.log.Debug("expiry reminder scheduled", "item_id", item.ItemID, "fire_at", r.FireAt)
	return nil
}

// CancelReminder drops every pending reminder of the item
func (s *Scheduler) CancelReminder(ctx context.Context, itemID string) error {
	if err := s.store.DeleteRemindersForItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	return nil
}

// ScheduleLowStockAlert queues an out of stock alert that fires almost immediately
func (s *Scheduler) ScheduleLowStockAlert(ctx context.Context, item *models.InventoryItem) error {
	r := &models.Reminder{
		ReminderID: uuid.NewString(),
		ItemID:     item.ItemID,
		Kind:       models.ReminderLowStock,
		FireAt:     s.now().Add(LowStockDelay).UTC(),
		Title:      "Item Out of Stock",
		Body:       fmt.Sprintf("You just ran out of %s. It's been added to your Shopping List.", item.Name),
	}
	if err := s.store.SaveReminder(ctx, r); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}
