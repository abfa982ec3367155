package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// InventoryItem represents a food item in the pantry
type InventoryItem struct {
	gorm.Model
	ItemID          string     `gorm:"column:item_id;unique_index" json:"item_id"`
	Name            string     `json:"name"`
	Quantity        string     `json:"quantity"` // display string, e.g. "500 g"
	Category        Category   `gorm:"type:varchar(16)" json:"category"`
	ProductType     string     `gorm:"type:varchar(16)" json:"product_type"`
	ExpiryDate      time.Time  `json:"expiry_date"`
	AddedDate       time.Time  `json:"added_date"`
	Barcode         *string    `json:"barcode,omitempty"`
	Brand           *string    `json:"brand,omitempty"`
	ImageURL        *string    `gorm:"column:image_url" json:"image_url,omitempty"`
	Status          ItemStatus `gorm:"type:varchar(16);index" json:"status"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
}

// TableName sets the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Category represents where an item is stored
type Category string

const (
	CategoryFridge Category = "fridge"
	CategoryPantry Category = "pantry"
)

// ParseCategory converts a stored or user supplied value into a Category
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryFridge, CategoryPantry:
		return Category(s), nil
	case "Fridge":
		return CategoryFridge, nil
	case "Pantry":
		return CategoryPantry, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Value implements driver.Valuer
func (c Category) Value() (driver.Value, error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return nil, err
	}
	return string(c), nil
}

// Scan implements sql.Scanner
func (c *Category) Scan(value interface{}) error {
	s, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ItemStatus represents the lifecycle status of an inventory item
type ItemStatus string

const (
	StatusAvailable    ItemStatus = "available"
	StatusConsumed     ItemStatus = "consumed"
	StatusDiscarded    ItemStatus = "discarded"
	StatusShoppingList ItemStatus = "shoppingList"
)

// ParseItemStatus converts a stored or user supplied value into an ItemStatus
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case StatusAvailable, StatusConsumed, StatusDiscarded, StatusShoppingList:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

// Value implements driver.Valuer
func (s ItemStatus) Value() (driver.Value, error) {
	if _, err := ParseItemStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// Scan implements sql.Scanner
func (s *ItemStatus) Scan(value interface{}) error {
	str, err := scanString(value)
	if err != nil {
		return err
	}
	parsed, err := ParseItemStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T for string enum", value)
	}
}
