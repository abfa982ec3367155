package report

import (
	"bytes"
	"testing"
	"time"

	"smartpantry/internal/models"
	"smartpantry/internal/pantry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestShoppingList(t *testing.T) {
	brand := "Ferrero"
	data, err := ShoppingList([]models.InventoryItem{
		{Name: "Milk", Quantity: "1 pcs", Category: models.CategoryFridge},
		{Name: "Nutella", Quantity: "1 pcs", Category: models.CategoryPantry, Brand: &brand},
	})
	require.NoError(t, err)

	f := open(t, data)
	rows, err := f.GetRows("Shopping List")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Quantity", "Category", "Brand", "Barcode"}, rows[0])
	assert.Equal(t, []string{"Milk", "1 pcs", "fridge"}, rows[1][:3])
	assert.Equal(t, "Ferrero", rows[2][3])
}

func TestShoppingList_Empty(t *testing.T) {
	data, err := ShoppingList(nil)
	require.NoError(t, err)

	rows, err := open(t, data).GetRows("Shopping List")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestInsights(t *testing.T) {
	data, err := Insights(&pantry.Insights{
		From:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Consumed:     3,
		Discarded:    1,
		WasteRate:    0.25,
		TopConsumed:  []pantry.NameCount{{Name: "Milk", Count: 2}, {Name: "Eggs", Count: 1}},
		TopDiscarded: []pantry.NameCount{{Name: "Spinach", Count: 1}},
	})
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"Summary", "Top Consumed", "Top Discarded"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"From", "2025-06-01"}, summary[0])
	assert.Equal(t, []string{"To", "-"}, summary[1])
	assert.Equal(t, []string{"Consumed", "3"}, summary[2])

	top, err := f.GetRows("Top Consumed")
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"Milk", "2"}, top[1])

	discarded, err := f.GetRows("Top Discarded")
	require.NoError(t, err)
	assert.Equal(t, []string{"Spinach", "1"}, discarded[1])
}
