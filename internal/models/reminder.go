package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// ReminderKind represents the kind of notification a reminder delivers
type ReminderKind string

const (
	ReminderExpiry   ReminderKind = "expiry"
	ReminderLowStock ReminderKind = "low_stock"
)

// Reminder is a scheduled one-shot notification about an inventory item
type Reminder struct {
	gorm.Model
	ReminderID string       `gorm:"column:reminder_id;unique_index" json:"reminder_id"`
	ItemID     string       `gorm:"column:item_id;index" json:"item_id"`
	Kind       ReminderKind `gorm:"type:varchar(16)" json:"kind"`
	FireAt     time.Time    `gorm:"index" json:"fire_at"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Delivered  bool         `json:"delivered"`
}

// TableName sets the table name for Reminder
func (Reminder) TableName() string {
	return "reminders"
}
