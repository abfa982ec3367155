package snapshot

import (
	"testing"
	"time"

	"smartpantry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeDecode(t *testing.T) {
	now := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	changed := now.Add(-time.Hour)
	barcode := "4006381333931"

	items := []models.InventoryItem{
		{
			ItemID:          "i1",
			Name:            "Milk",
			Quantity:        "1.5 l",
			Category:        models.CategoryFridge,
			ProductType:     "dairy",
			ExpiryDate:      now.Add(7 * 24 * time.Hour),
			AddedDate:       now,
			Barcode:         &barcode,
			Status:          models.StatusAvailable,
			StatusChangedAt: &changed,
		},
		{ItemID: "i2", Name: "Eggs", Quantity: "1 pcs", Category: models.CategoryPantry, Status: models.StatusShoppingList},
	}
	recipes := []models.Recipe{{
		RecipeID:    "r1",
		Title:       "Pancakes",
		Ingredients: models.StringSlice{"200 ml milk"},
		Steps:       models.StringSlice{"Mix", "Fry"},
		Calories:    420,
		IsFavorite:  true,
		CreatedDate: now,
	}}

	data, err := Encode(New(items, recipes, now))
	require.NoError(t, err)

	snap, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Version, snap.Version)
	assert.Equal(t, now.UnixMilli(), snap.ExportedMs)

	gotItems, err := snap.InventoryItems()
	require.NoError(t, err)
	require.Len(t, gotItems, 2)
	assert.Equal(t, "Milk", gotItems[0].Name)
	assert.Equal(t, items[0].ExpiryDate, gotItems[0].ExpiryDate)
	require.NotNil(t, gotItems[0].Barcode)
	assert.Equal(t, barcode, *gotItems[0].Barcode)
	require.NotNil(t, gotItems[0].StatusChangedAt)
	assert.Equal(t, changed, *gotItems[0].StatusChangedAt)
	assert.Nil(t, gotItems[1].Brand)
	assert.True(t, gotItems[1].ExpiryDate.IsZero())
	assert.Equal(t, models.StatusShoppingList, gotItems[1].Status)

	gotRecipes := snap.SavedRecipes()
	require.Len(t, gotRecipes, 1)
	assert.Equal(t, models.StringSlice{"Mix", "Fry"}, gotRecipes[0].Steps)
	assert.True(t, gotRecipes[0].IsFavorite)
	assert.Equal(t, 420, gotRecipes[0].Calories)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte{0xc1})
	assert.Error(t, err)

	future, err := msgpack.Marshal(&Snapshot{Version: Version + 1})
	require.NoError(t, err)
	_, err = Decode(future)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestInventoryItems_RejectsBadStatus(t *testing.T) {
	s := &Snapshot{Version: Version, Items: []Item{{UUID: "x", Name: "Rice", Category: "pantry", Status: "eaten"}}}
	_, err := s.InventoryItems()
	assert.Error(t, err)
}
