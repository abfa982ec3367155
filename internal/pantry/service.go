// Package pantry is the application service of the pantry tracker. It ties
// the quantity engine, the classifier and the item lifecycle to persistence,
// product lookup and recipe generation.
package pantry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/models"
	"smartpantry/internal/monitoring"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductNotFound    = errors.New("product not found")
	ErrLookupUnavailable  = errors.New("product lookup not configured")
	ErrRecipesUnavailable = errors.New("recipe generation not configured")
	ErrEmptyPantry        = errors.New("no available items")

	// Re-exported so callers need not import the lower layers.
	ErrNotFound          = database.ErrNotFound
	ErrInvalidTransition = lifecycle.ErrInvalidTransition
)

// DefaultPriorityWindow is how close to expiry an item must be to count as a
// priority ingredient for recipe suggestions.
const DefaultPriorityWindow = 3 * 24 * time.Hour

// Store is the persistence the service needs
type Store interface {
	SaveItem(ctx context.Context, item *models.InventoryItem) error
	GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error)
	QueryItems(ctx context.Context, filter database.ItemFilter) ([]models.InventoryItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	PendingReminders(ctx context.Context, itemID string) ([]models.Reminder, error)

	SaveRecipe(ctx context.Context, recipe *models.Recipe) error
	GetRecipe(ctx context.Context, recipeID string) (*models.Recipe, error)
	ListRecipes(ctx context.Context, favoritesOnly bool) ([]models.Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID string) error
}

// Product is what a barcode lookup knows about a product
type Product struct {
	Barcode      string
	Name         string
	Brand        string
	ImageURL     string
	Quantity     string
	CategoryTags []string
}

// ProductLookup resolves barcodes. A nil product with a nil error means the
// barcode is unknown.
type ProductLookup interface {
	LookupProduct(ctx context.Context, barcode string) (*Product, error)
}

// RecipeGenerator proposes and writes recipes from pantry contents
type RecipeGenerator interface {
	GenerateRecipeOptions(ctx context.Context, ingredients, priority, favorites []string) ([]models.RecipeOption, error)
	GenerateFullRecipe(ctx context.Context, title string, ingredients []string) (*models.Recipe, error)
}

// Config holds the optional collaborators and settings of a Service
type Config struct {
	Lookup         ProductLookup
	Recipes        RecipeGenerator
	Metrics        *monitoring.Metrics
	Logger         *slog.Logger
	Now            func() time.Time
	PriorityWindow time.Duration
}

// Service implements the pantry operations
type Service struct {
	store          Store
	machine        *lifecycle.Machine
	lookup         ProductLookup
	recipes        RecipeGenerator
	metrics        *monitoring.Metrics
	log            *slog.Logger
	now            func() time.Time
	priorityWindow time.Duration
}

// NewService creates a new pantry service
func NewService(store Store, machine *lifecycle.Machine, cfg Config) *Service {
	s := &Service{
		store:          store,
		machine:        machine,
		lookup:         cfg.Lookup,
		recipes:        cfg.Recipes,
		metrics:        cfg.Metrics,
		log:            cfg.Logger,
		now:            cfg.Now,
		priorityWindow: cfg.PriorityWindow,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.priorityWindow <= 0 {
		s.priorityWindow = DefaultPriorityWindow
	}
	if s.metrics != nil {
		machine.AddHook(func(item *models.InventoryItem, from models.ItemStatus, ev lifecycle.Event) {
			s.metrics.RecordTransition(string(ev), string(from), string(item.Status))
		})
	}
	return s
}

// Policy returns the depletion policy the service applies
func (s *Service) Policy() lifecycle.DepletionPolicy {
	return s.machine.Policy()
}

func (s *Service) availableItems(ctx context.Context, order database.ItemOrder) ([]models.InventoryItem, error) {
	return s.store.QueryItems(ctx, database.ItemFilter{
		Statuses: []models.ItemStatus{models.StatusAvailable},
		Order:    order,
	})
}
