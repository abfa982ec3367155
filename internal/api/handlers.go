package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"smartpantry/internal/lifecycle"
	"smartpantry/internal/models"
	"smartpantry/internal/pantry"
	"smartpantry/internal/report"
	"smartpantry/internal/snapshot"

	"github.com/gin-gonic/gin"
)

const (
	// maxImportSize bounds the accepted snapshot body
	maxImportSize = 32 << 20
	// maxExpiringDays keeps the look-ahead window well inside time.Duration
	maxExpiringDays = 3650
)

// Inventory handlers

func (p *PantryAPI) ListItems(c *gin.Context) {
	items, err := p.Service.ListItems(c.Request.Context(), pantry.ListFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Order:    c.Query("order"),
	})
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (p *PantryAPI) AddItem(c *gin.Context) {
	var in pantry.NewItem
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := p.Service.AddItem(c.Request.Context(), in)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (p *PantryAPI) AddFromBarcode(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := p.Service.AddFromBarcode(c.Request.Context(), req.Barcode)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (p *PantryAPI) ExpiringSoon(c *gin.Context) {
	days := 3
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxExpiringDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days must be an integer between 0 and %d", maxExpiringDays)})
			return
		}
		days = n
	}

	items, err := p.Service.ExpiringSoon(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (p *PantryAPI) GetItem(c *gin.Context) {
	item, err := p.Service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (p *PantryAPI) ItemReminders(c *gin.Context) {
	reminders, err := p.Service.Reminders(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}

func (p *PantryAPI) DeleteItem(c *gin.Context) {
	if err := p.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (p *PantryAPI) transition(ev lifecycle.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := p.Service.Transition(c.Request.Context(), c.Param("id"), ev)
		if err != nil {
			p.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// Shopping list handlers

func (p *PantryAPI) ShoppingList(c *gin.Context) {
	items, err := p.Service.ShoppingList(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (p *PantryAPI) AddShoppingEntry(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := p.Service.AddShoppingEntry(c.Request.Context(), req.Name)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (p *PantryAPI) Suggestions(c *gin.Context) {
	items, err := p.Service.Suggestions(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (p *PantryAPI) ExportShoppingList(c *gin.Context) {
	items, err := p.Service.ShoppingList(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	data, err := report.ShoppingList(items)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shopping-list.xlsx"`)
	c.Data(http.StatusOK, report.ContentType, data)
}

// Recipe handlers

func (p *PantryAPI) ListRecipes(c *gin.Context) {
	favorites := c.Query("favorites") == "true"
	list, err := p.Service.ListRecipes(c.Request.Context(), favorites)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (p *PantryAPI) SaveRecipe(c *gin.Context) {
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := p.Service.SaveRecipe(c.Request.Context(), &recipe); err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (p *PantryAPI) RecipeOptions(c *gin.Context) {
	options, err := p.Service.SuggestRecipes(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (p *PantryAPI) GenerateRecipe(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := p.Service.GenerateRecipe(c.Request.Context(), req.Title)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (p *PantryAPI) GetRecipe(c *gin.Context) {
	recipe, err := p.Service.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (p *PantryAPI) DeleteRecipe(c *gin.Context) {
	if err := p.Service.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

func (p *PantryAPI) ToggleFavorite(c *gin.Context) {
	recipe, err := p.Service.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (p *PantryAPI) CookSavedRecipe(c *gin.Context) {
	rep, err := p.Service.CookSavedRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (p *PantryAPI) Cook(c *gin.Context) {
	var req struct {
		Ingredients []string `json:"ingredients" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := p.Service.CookRecipe(c.Request.Context(), req.Ingredients)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Insight and backup handlers

func (p *PantryAPI) Insights(c *gin.Context) {
	in, ok := p.insights(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, in)
}

func (p *PantryAPI) ExportInsights(c *gin.Context) {
	in, ok := p.insights(c)
	if !ok {
		return
	}
	data, err := report.Insights(in)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="insights.xlsx"`)
	c.Data(http.StatusOK, report.ContentType, data)
}

func (p *PantryAPI) insights(c *gin.Context) (*pantry.Insights, bool) {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	in, err := p.Service.Insights(c.Request.Context(), from, to)
	if err != nil {
		p.fail(c, err)
		return nil, false
	}
	return in, true
}

func (p *PantryAPI) Export(c *gin.Context) {
	snap, err := p.Service.Export(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	data, err := snapshot.Encode(snap)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pantry.msgpack"`)
	c.Data(http.StatusOK, snapshot.ContentType, data)
}

func (p *PantryAPI) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := p.Service.Import(c.Request.Context(), snap)
	if err != nil {
		p.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. A plain
// date read with endOfDay covers that whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
