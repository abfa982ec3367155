package pantry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartpantry/internal/classifier"
	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/models"
	"smartpantry/internal/quantity"

	"github.com/google/uuid"
)

// unknownProductName is used when a barcode lookup returns no product name
const unknownProductName = "Unknown product"

// NewItem describes an item entered by the user. Empty fields are inferred.
type NewItem struct {
	Name        string     `json:"name" binding:"required"`
	Quantity    string     `json:"quantity"`
	Category    string     `json:"category"`
	ProductType string     `json:"product_type"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	Barcode     string     `json:"barcode"`
	Brand       string     `json:"brand"`
	ImageURL    string     `json:"image_url"`
}

// ListFilter narrows ListItems
type ListFilter struct {
	Status   string
	Category string
	Query    string
	Order    string
}

// AddItem adds a manually entered item to the pantry as available
func (s *Service) AddItem(ctx context.Context, in NewItem) (*models.InventoryItem, error) {
	return s.addItem(ctx, in, nil, models.StatusAvailable)
}

// AddFromBarcode looks a barcode up and adds the product as available.
// Storage category and expiry come from the inferred product type.
func (s *Service) AddFromBarcode(ctx context.Context, barcode string) (*models.InventoryItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: empty barcode", ErrInvalidInput)
	}
	if s.lookup == nil {
		return nil, ErrLookupUnavailable
	}

	start := time.Now()
	product, err := s.lookup.LookupProduct(ctx, barcode)
	elapsed := time.Since(start).Seconds()
	switch {
	case err != nil:
		s.metrics.RecordLookup("error", elapsed)
		return nil, fmt.Errorf("lookup %s: %w", barcode, err)
	case product == nil:
		s.metrics.RecordLookup("not_found", elapsed)
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, barcode)
	}
	s.metrics.RecordLookup("found", elapsed)

	name := strings.TrimSpace(product.Name)
	if name == "" {
		name = unknownProductName
	}
	pt := classifier.Classify(name, product.CategoryTags)

	in := NewItem{
		Name:     name,
		Quantity: product.Quantity,
		Barcode:  barcode,
		Brand:    product.Brand,
		ImageURL: product.ImageURL,
	}
	return s.addItem(ctx, in, &pt, models.StatusAvailable)
}

// AddShoppingEntry puts a new item straight on the shopping list
func (s *Service) AddShoppingEntry(ctx context.Context, name string) (*models.InventoryItem, error) {
	return s.addItem(ctx, NewItem{Name: name, Quantity: lifecycle.RestockQuantity}, nil, models.StatusShoppingList)
}

func (s *Service) addItem(ctx context.Context, in NewItem, inferred *classifier.ProductType, status models.ItemStatus) (*models.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	var pt classifier.ProductType
	switch {
	case in.ProductType != "":
		pt = classifier.ParseProductType(in.ProductType)
		if pt == classifier.TypeUnknown && !strings.EqualFold(strings.TrimSpace(in.ProductType), pt.String()) {
			return nil, fmt.Errorf("%w: product type must be one of %s", ErrInvalidInput, productTypeNames())
		}
	case inferred != nil:
		pt = *inferred
	default:
		pt = classifier.Classify(name, nil)
	}
	s.metrics.RecordClassification(pt.String())

	category := pt.StorageCategory()
	if in.Category != "" {
		c, err := models.ParseCategory(in.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		category = c
	}

	now := s.now()
	expiry := pt.EstimatedExpiry(now)
	if in.ExpiryDate != nil && !in.ExpiryDate.IsZero() {
		expiry = *in.ExpiryDate
	}

	item := &models.InventoryItem{
		ItemID:      uuid.NewString(),
		Name:        name,
		Quantity:    normalizeQuantity(in.Quantity),
		Category:    category,
		ProductType: pt.String(),
		ExpiryDate:  expiry,
		AddedDate:   now,
		Barcode:     optional(in.Barcode),
		Brand:       optional(in.Brand),
		ImageURL:    optional(in.ImageURL),
		Status:      status,
	}

	if err := s.machine.Register(item); err != nil {
		return nil, err
	}
	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	s.machine.Rearm(ctx, item)
	s.log.Info("item added", "item_id", item.ItemID, "name", item.Name, "type", item.ProductType, "status", item.Status)
	return item, nil
}

// normalizeQuantity re-renders a bare "<number> <unit>" ("1000g" becomes
// "1.0 kg"), keeps anything else as an opaque label and defaults to one piece.
func normalizeQuantity(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return lifecycle.RestockQuantity
	}
	q, err := quantity.ParseWhole(text)
	if err != nil {
		return text
	}
	return q.String()
}

// GetItem returns a single item
func (s *Service) GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	return s.store.GetItem(ctx, itemID)
}

// Reminders returns the notifications still scheduled for an item
func (s *Service) Reminders(ctx context.Context, itemID string) ([]models.Reminder, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.PendingReminders(ctx, itemID)
}

// ListItems returns items matching the filter, in collection order by default
func (s *Service) ListItems(ctx context.Context, f ListFilter) ([]models.InventoryItem, error) {
	filter := database.ItemFilter{
		NameContains: strings.TrimSpace(f.Query),
		Order:        database.ItemOrder(f.Order),
	}
	switch filter.Order {
	case "", database.OrderAdded, database.OrderExpiry, database.OrderName:
	default:
		return nil, fmt.Errorf("%w: unknown order %q", ErrInvalidInput, f.Order)
	}
	if f.Status != "" {
		st, err := models.ParseItemStatus(f.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Statuses = []models.ItemStatus{st}
	}
	if f.Category != "" {
		c, err := models.ParseCategory(f.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Category = c
	}
	return s.store.QueryItems(ctx, filter)
}

// Transition applies a lifecycle event to a stored item and saves it
func (s *Service) Transition(ctx context.Context, itemID string, ev lifecycle.Event) (*models.InventoryItem, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.machine.Apply(ctx, item, ev); err != nil {
		return nil, err
	}
	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("transition %s: %w", itemID, err)
	}
	return item, nil
}

// Delete removes an item for good
func (s *Service) Delete(ctx context.Context, itemID string) error {
	if err := s.store.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.log.Info("item deleted", "item_id", itemID)
	return nil
}

// ExpiringSoon returns available items expiring within the window, soonest first
func (s *Service) ExpiringSoon(ctx context.Context, within time.Duration) ([]models.InventoryItem, error) {
	cutoff := s.now().Add(within)
	return s.store.QueryItems(ctx, database.ItemFilter{
		Statuses:       []models.ItemStatus{models.StatusAvailable},
		ExpiringBefore: &cutoff,
		Order:          database.OrderExpiry,
	})
}

// ShoppingList returns the items waiting to be bought
func (s *Service) ShoppingList(ctx context.Context) ([]models.InventoryItem, error) {
	return s.store.QueryItems(ctx, database.ItemFilter{
		Statuses: []models.ItemStatus{models.StatusShoppingList},
		Order:    database.OrderName,
	})
}

// Suggestions returns consumed and discarded items that can be re-added to the list
func (s *Service) Suggestions(ctx context.Context) ([]models.InventoryItem, error) {
	return s.store.QueryItems(ctx, database.ItemFilter{
		Statuses: []models.ItemStatus{models.StatusConsumed, models.StatusDiscarded},
		Order:    database.OrderName,
	})
}

func productTypeNames() string {
	names := make([]string, len(classifier.AllTypes))
	for i, t := range classifier.AllTypes {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
