package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartpantry/internal/models"

	"github.com/jinzhu/gorm"
)

// ItemOrder selects the ordering of QueryItems results
type ItemOrder string

const (
	// OrderAdded is the collection order: oldest first, ties by row id.
	OrderAdded  ItemOrder = "added"
	OrderExpiry ItemOrder = "expiry"
	OrderName   ItemOrder = "name"
)

// ItemFilter narrows QueryItems. Zero fields do not filter.
type ItemFilter struct {
	Statuses       []models.ItemStatus
	Category       models.Category
	NameContains   string
	ExpiringBefore *time.Time
	ChangedFrom    *time.Time
	ChangedTo      *time.Time
	Order          ItemOrder
}

// Store persists inventory items, recipes and reminders with gorm.
// Times are written and compared in UTC: sqlite keeps them as text.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db, nil
}

// Inventory items

// SaveItem inserts or updates an item, matching on ItemID
func (s *Store) SaveItem(ctx context.Context, item *models.InventoryItem) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if item.ItemID == "" {
		return fmt.Errorf("save item: empty item id")
	}
	item.ExpiryDate = item.ExpiryDate.UTC()
	item.AddedDate = item.AddedDate.UTC()
	if item.StatusChangedAt != nil {
		changed := item.StatusChangedAt.UTC()
		item.StatusChangedAt = &changed
	}
	if item.ID == 0 {
		var existing models.InventoryItem
		err := db.Select("id, created_at").Where("item_id = ?", item.ItemID).First(&existing).Error
		switch {
		case err == nil:
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
		case !gorm.IsRecordNotFoundError(err):
			return fmt.Errorf("save item %s: %w", item.ItemID, translateError(err))
		}
	}
	if err := db.Save(item).Error; err != nil {
		return fmt.Errorf("save item %s: %w", item.ItemID, translateError(err))
	}
	return nil
}

// GetItem loads an item by its ItemID
func (s *Store) GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var item models.InventoryItem
	if err := db.Where("item_id = ?", itemID).First(&item).Error; err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, translateError(err))
	}
	return &item, nil
}

// QueryItems returns the items matching filter
func (s *Store) QueryItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Model(&models.InventoryItem{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN (?)", filter.Statuses)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.NameContains != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.NameContains)+"%")
	}
	if filter.ExpiringBefore != nil {
		q = q.Where("expiry_date <= ?", filter.ExpiringBefore.UTC())
	}
	if filter.ChangedFrom != nil {
		q = q.Where("status_changed_at >= ?", filter.ChangedFrom.UTC())
	}
	if filter.ChangedTo != nil {
		q = q.Where("status_changed_at <= ?", filter.ChangedTo.UTC())
	}

	switch filter.Order {
	case OrderExpiry:
		q = q.Order("expiry_date asc").Order("id asc")
	case OrderName:
		q = q.Order("LOWER(name) asc").Order("id asc")
	default:
		q = q.Order("added_date asc").Order("id asc")
	}

	var items []models.InventoryItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("query items: %w", translateError(err))
	}
	return items, nil
}

// DeleteItem permanently removes an item and its pending reminders
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(db.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("item_id = ?", itemID).Delete(&models.InventoryItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete item %s: %w", itemID, ErrNotFound)
		}
		return tx.Unscoped().Where("item_id = ?", itemID).Delete(&models.Reminder{}).Error
	}))
}

// Recipes

// SaveRecipe inserts or updates a recipe, matching on RecipeID
func (s *Store) SaveRecipe(ctx context.Context, recipe *models.Recipe) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if recipe.RecipeID == "" {
		return fmt.Errorf("save recipe: empty recipe id")
	}
	recipe.CreatedDate = recipe.CreatedDate.UTC()
	if recipe.ID == 0 {
		var existing models.Recipe
		err := db.Select("id, created_at").Where("recipe_id = ?", recipe.RecipeID).First(&existing).Error
		switch {
		case err == nil:
			recipe.ID = existing.ID
			recipe.CreatedAt = existing.CreatedAt
		case !gorm.IsRecordNotFoundError(err):
			return fmt.Errorf("save recipe %s: %w", recipe.RecipeID, translateError(err))
		}
	}
	if err := db.Save(recipe).Error; err != nil {
		return fmt.Errorf("save recipe %s: %w", recipe.RecipeID, translateError(err))
	}
	return nil
}

// GetRecipe loads a recipe by its RecipeID
func (s *Store) GetRecipe(ctx context.Context, recipeID string) (*models.Recipe, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var recipe models.Recipe
	if err := db.Where("recipe_id = ?", recipeID).First(&recipe).Error; err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", recipeID, translateError(err))
	}
	return &recipe, nil
}

// ListRecipes returns saved recipes, newest first
func (s *Store) ListRecipes(ctx context.Context, favoritesOnly bool) ([]models.Recipe, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("created_date desc").Order("id desc")
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", translateError(err))
	}
	return recipes, nil
}

// DeleteRecipe permanently removes a recipe
func (s *Store) DeleteRecipe(ctx context.Context, recipeID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Unscoped().Where("recipe_id = ?", recipeID).Delete(&models.Recipe{})
	if res.Error != nil {
		return fmt.Errorf("delete recipe %s: %w", recipeID, translateError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete recipe %s: %w", recipeID, ErrNotFound)
	}
	return nil
}

// Reminders

// SaveReminder stores a scheduled reminder
func (s *Store) SaveReminder(ctx context.Context, reminder *models.Reminder) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	reminder.FireAt = reminder.FireAt.UTC()
	if err := db.Save(reminder).Error; err != nil {
		return fmt.Errorf("save reminder %s: %w", reminder.ReminderID, translateError(err))
	}
	return nil
}

// DeleteRemindersForItem drops the undelivered reminders of an item
func (s *Store) DeleteRemindersForItem(ctx context.Context, itemID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Unscoped().
		Where("item_id = ? AND delivered = ?", itemID, false).
		Delete(&models.Reminder{}).Error
	if err != nil {
		return fmt.Errorf("delete reminders for %s: %w", itemID, translateError(err))
	}
	return nil
}

// PendingReminders returns the undelivered reminders of an item
func (s *Store) PendingReminders(ctx context.Context, itemID string) ([]models.Reminder, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var reminders []models.Reminder
	err = db.Where("item_id = ? AND delivered = ?", itemID, false).
		Order("fire_at asc").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("pending reminders for %s: %w", itemID, translateError(err))
	}
	return reminders, nil
}

// DueReminders returns undelivered reminders whose fire time is not after now
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var reminders []models.Reminder
	err = db.Where("delivered = ? AND fire_at <= ?", false, now.UTC()).
		Order("fire_at asc").Order("id asc").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", translateError(err))
	}
	return reminders, nil
}

// MarkDelivered flags a reminder as delivered
func (s *Store) MarkDelivered(ctx context.Context, reminderID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Reminder{}).
		Where("reminder_id = ?", reminderID).
		Update("delivered", true)
	if res.Error != nil {
		return fmt.Errorf("mark reminder %s delivered: %w", reminderID, translateError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark reminder %s delivered: %w", reminderID, ErrNotFound)
	}
	return nil
}
