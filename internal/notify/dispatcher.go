package notify

import (
	"context"
	"log/slog"
	"time"

	"smartpantry/internal/monitoring"
)

// DefaultPollInterval is how often the dispatcher looks for due reminders
const DefaultPollInterval = 30 * time.Second

// Publisher delivers messages to subscribers
type Publisher interface {
	Publish(msg Message) (int, error)
}

// DispatcherConfig configures a Dispatcher
type DispatcherConfig struct {
	PollInterval time.Duration
	// CheckInAt is the offset from local midnight of the daily "did you cook"
	// prompt. Zero disables it.
	CheckInAt time.Duration
	Now       func() time.Time
	Metrics   *monitoring.Metrics
	Logger    *slog.Logger
}

// Dispatcher publishes reminders once they fall due
type Dispatcher struct {
	store       ReminderStore
	publisher   Publisher
	interval    time.Duration
	checkInAt   time.Duration
	lastCheckIn time.Time
	now         func() time.Time
	metrics     *monitoring.Metrics
	log         *slog.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(store ReminderStore, publisher Publisher, cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		publisher: publisher,
		interval:  cfg.PollInterval,
		checkInAt: cfg.CheckInAt,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
	}
	if d.interval <= 0 {
		d.interval = DefaultPollInterval
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

// Run dispatches until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("reminder dispatcher started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("reminder dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil && ctx.Err() == nil {
				d.log.Error("reminder dispatch failed", "err", err)
			}
		}
	}
}

// Tick delivers every due reminder and returns how many were delivered.
// Reminders nobody received stay pending for the next tick.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.now()
	d.checkIn(now)

	due, err := d.store.DueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range due {
		n, err := d.publisher.Publish(Message{
			Type:       "reminder",
			ReminderID: r.ReminderID,
			ItemID:     r.ItemID,
			Kind:       string(r.Kind),
			Title:      r.Title,
			Body:       r.Body,
			FireAt:     r.FireAt,
		})
		if err != nil {
			d.log.Warn("publish reminder failed", "reminder_id", r.ReminderID, "err", err)
			continue
		}
		if n == 0 {
			continue
		}
		if err := d.store.MarkDelivered(ctx, r.ReminderID); err != nil {
			return sent, err
		}
		d.metrics.RecordReminder(string(r.Kind))
		sent++
	}
	d.metrics.RecordWaitingReminders(len(due) - sent)
	return sent, nil
}

func (d *Dispatcher) checkIn(now time.Time) {
	if d.checkInAt <= 0 {
		return
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := midnight.Add(d.checkInAt)
	if now.Before(at) || !d.lastCheckIn.Before(midnight) {
		return
	}

	n, err := d.publisher.Publish(Message{
		Type:   "check_in",
		Title:  "Did you cook today?",
		Body:   "Keep your inventory fresh! Tap to update what you used.",
		FireAt: at,
	})
	if err != nil || n == 0 {
		return
	}
	d.lastCheckIn = now
	d.metrics.RecordReminder("check_in")
}
