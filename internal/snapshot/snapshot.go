// Package snapshot encodes the pantry and saved recipes into a compact
// msgpack document for backups and sharing between devices.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"smartpantry/internal/models"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the current snapshot format version
const Version = 1

// ContentType is the MIME type of an encoded snapshot
const ContentType = "application/x-msgpack"

// ErrUnsupportedVersion is returned when decoding a snapshot from a newer format
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

type Snapshot struct {
	Version    int      `msgpack:"v"`
	ExportedMs int64    `msgpack:"exported,omitempty"`
	Items      []Item   `msgpack:"items,omitempty"`
	Recipes    []Recipe `msgpack:"recipes,omitempty"`
}

type Item struct {
	UUID            string `msgpack:"uuid"`
	Name            string `msgpack:"name"`
	Quantity        string `msgpack:"qty,omitempty"`
	Category        string `msgpack:"category,omitempty"`
	ProductType     string `msgpack:"type,omitempty"`
	ExpiryMs        int64  `msgpack:"expiry,omitempty"`
	AddedMs         int64  `msgpack:"added,omitempty"`
	Barcode         string `msgpack:"barcode,omitempty"`
	Brand           string `msgpack:"brand,omitempty"`
	ImageURL        string `msgpack:"image,omitempty"`
	Status          string `msgpack:"status"`
	StatusChangedMs int64  `msgpack:"changed,omitempty"`
}

type Recipe struct {
	UUID        string   `msgpack:"uuid"`
	Title       string   `msgpack:"title"`
	Description string   `msgpack:"description,omitempty"`
	Ingredients []string `msgpack:"ingredients,omitempty"`
	Steps       []string `msgpack:"steps,omitempty"`
	PrepMinutes int      `msgpack:"prep,omitempty"`
	Difficulty  string   `msgpack:"difficulty,omitempty"`
	Calories    int      `msgpack:"kcal,omitempty"`
	Protein     int      `msgpack:"protein,omitempty"`
	Carbs       int      `msgpack:"carbs,omitempty"`
	Fat         int      `msgpack:"fat,omitempty"`
	Favorite    bool     `msgpack:"fav,omitempty"`
	CreatedMs   int64    `msgpack:"created,omitempty"`
}

// New builds a snapshot of items and recipes taken at now
func New(items []models.InventoryItem, recipes []models.Recipe, now time.Time) *Snapshot {
	s := &Snapshot{
		Version:    Version,
		ExportedMs: toMs(now),
		Items:      make([]Item, 0, len(items)),
		Recipes:    make([]Recipe, 0, len(recipes)),
	}
	for i := range items {
		s.Items = append(s.Items, fromItem(&items[i]))
	}
	for i := range recipes {
		s.Recipes = append(s.Recipes, fromRecipe(&recipes[i]))
	}
	return s
}

// Encode serializes a snapshot
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot produced by Encode
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if s.Version < 1 || s.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	return &s, nil
}

// InventoryItems converts the snapshot items back into models. Items with an
// unknown status or category are rejected.
func (s *Snapshot) InventoryItems() ([]models.InventoryItem, error) {
	out := make([]models.InventoryItem, 0, len(s.Items))
	for _, it := range s.Items {
		status, err := models.ParseItemStatus(it.Status)
		if err != nil {
			return nil, fmt.Errorf("snapshot: item %s: %w", it.UUID, err)
		}
		category, err := models.ParseCategory(it.Category)
		if err != nil {
			return nil, fmt.Errorf("snapshot: item %s: %w", it.UUID, err)
		}
		item := models.InventoryItem{
			ItemID:      it.UUID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			Category:    category,
			ProductType: it.ProductType,
			ExpiryDate:  fromMs(it.ExpiryMs),
			AddedDate:   fromMs(it.AddedMs),
			Barcode:     optional(it.Barcode),
			Brand:       optional(it.Brand),
			ImageURL:    optional(it.ImageURL),
			Status:      status,
		}
		if it.StatusChangedMs != 0 {
			t := fromMs(it.StatusChangedMs)
			item.StatusChangedAt = &t
		}
		out = append(out, item)
	}
	return out, nil
}

// SavedRecipes converts the snapshot recipes back into models
func (s *Snapshot) SavedRecipes() []models.Recipe {
	out := make([]models.Recipe, 0, len(s.Recipes))
	for _, r := range s.Recipes {
		out = append(out, models.Recipe{
			RecipeID:        r.UUID,
			Title:           r.Title,
			Description:     r.Description,
			Ingredients:     models.StringSlice(r.Ingredients),
			Steps:           models.StringSlice(r.Steps),
			PrepTimeMinutes: r.PrepMinutes,
			Difficulty:      r.Difficulty,
			Calories:        r.Calories,
			Protein:         r.Protein,
			Carbs:           r.Carbs,
			Fat:             r.Fat,
			IsFavorite:      r.Favorite,
			CreatedDate:     fromMs(r.CreatedMs),
		})
	}
	return out
}

func fromItem(it *models.InventoryItem) Item {
	out := Item{
		UUID:        it.ItemID,
		Name:        it.Name,
		Quantity:    it.Quantity,
		Category:    string(it.Category),
		ProductType: it.ProductType,
		ExpiryMs:    toMs(it.ExpiryDate),
		AddedMs:     toMs(it.AddedDate),
		Barcode:     deref(it.Barcode),
		Brand:       deref(it.Brand),
		ImageURL:    deref(it.ImageURL),
		Status:      string(it.Status),
	}
	if it.StatusChangedAt != nil {
		out.StatusChangedMs = toMs(*it.StatusChangedAt)
	}
	return out
}

func fromRecipe(r *models.Recipe) Recipe {
	return Recipe{
		UUID:        r.RecipeID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: []string(r.Ingredients),
		Steps:       []string(r.Steps),
		PrepMinutes: r.PrepTimeMinutes,
		Difficulty:  r.Difficulty,
		Calories:    r.Calories,
		Protein:     r.Protein,
		Carbs:       r.Carbs,
		Fat:         r.Fat,
		Favorite:    r.IsFavorite,
		CreatedMs:   toMs(r.CreatedDate),
	}
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
