package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/models"
	"smartpantry/internal/monitoring"
	"smartpantry/internal/notify"
	"smartpantry/internal/pantry"
	"smartpantry/internal/report"
	"smartpantry/internal/snapshot"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGenerator returns fixed recipes
type stubGenerator struct{}

func (stubGenerator) GenerateRecipeOptions(_ context.Context, ingredients, _, _ []string) ([]models.RecipeOption, error) {
	return []models.RecipeOption{{Title: "Omelette", Description: "Uses " + ingredients[0]}}, nil
}

func (stubGenerator) GenerateFullRecipe(_ context.Context, title string, _ []string) (*models.Recipe, error) {
	return &models.Recipe{Title: title, Ingredients: models.StringSlice{"2 pcs Eggs"}}, nil
}

type testEnv struct {
	api     *PantryAPI
	store   *database.Store
	monitor *monitoring.Monitor
}

func newTestEnv(t *testing.T, gen pantry.RecipeGenerator, secret string) *testEnv {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewStore(db)
	monitor := monitoring.NewMonitor()
	metrics := monitoring.NewMetrics(monitor)
	machine := lifecycle.NewMachine(notify.NewScheduler(store, nil, nil), lifecycle.Config{})
	cfg := pantry.Config{Metrics: metrics}
	if gen != nil {
		cfg.Recipes = gen
	}
	svc := pantry.NewService(store, machine, cfg)

	api := NewPantryAPI(svc, Options{
		Hub:       notify.NewHub(nil),
		Monitor:   monitor,
		JWTSecret: secret,
	})
	return &testEnv{api: api, store: store, monitor: monitor}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.api.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil, "")
	w := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestItems_CRUD(t *testing.T) {
	e := newTestEnv(t, nil, "")

	w := e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Milk", "quantity": "1 l"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[models.InventoryItem](t, w)
	assert.Equal(t, models.StatusAvailable, item.Status)
	assert.Equal(t, models.CategoryFridge, item.Category)

	w = e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"quantity": "1 l"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items/"+item.ItemID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items?status=available", nil)
	assert.Len(t, decode[[]models.InventoryItem](t, w), 1)

	w = e.do(t, http.MethodGet, "/api/v1/items?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items/expiring?days=30", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.InventoryItem](t, w), 1)

	w = e.do(t, http.MethodGet, "/api/v1/items/expiring?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items/expiring?days=200000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodDelete, "/api/v1/items/"+item.ItemID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items/"+item.ItemID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestItems_Transitions(t *testing.T) {
	e := newTestEnv(t, nil, "")
	w := e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Yogurt"})
	item := decode[models.InventoryItem](t, w)

	w = e.do(t, http.MethodGet, "/api/v1/items/"+item.ItemID+"/reminders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Reminder](t, w), 1)

	w = e.do(t, http.MethodPost, "/api/v1/items/"+item.ItemID+"/consume", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusConsumed, decode[models.InventoryItem](t, w).Status)

	w = e.do(t, http.MethodGet, "/api/v1/items/"+item.ItemID+"/reminders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Reminder](t, w))

	w = e.do(t, http.MethodGet, "/api/v1/items/missing/reminders", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/items/"+item.ItemID+"/consume", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/items/"+item.ItemID+"/shopping-list", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/shopping-list", nil)
	assert.Len(t, decode[[]models.InventoryItem](t, w), 1)

	w = e.do(t, http.MethodPost, "/api/v1/items/"+item.ItemID+"/bought", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusAvailable, decode[models.InventoryItem](t, w).Status)

	w = e.do(t, http.MethodPost, "/api/v1/items/missing/discard", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.NotEmpty(t, e.monitor.GetMetrics())
}

func TestShoppingList_Export(t *testing.T) {
	e := newTestEnv(t, nil, "")

	w := e.do(t, http.MethodPost, "/api/v1/shopping-list", map[string]any{"name": "Bread"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.StatusShoppingList, decode[models.InventoryItem](t, w).Status)

	w = e.do(t, http.MethodGet, "/api/v1/shopping-list/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())

	w = e.do(t, http.MethodGet, "/api/v1/shopping-list/suggestions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCook(t *testing.T) {
	e := newTestEnv(t, nil, "")
	e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Milk", "quantity": "1 l"})
	e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Eggs", "quantity": "2 pcs"})

	w := e.do(t, http.MethodPost, "/api/v1/cook", map[string]any{
		"ingredients": []string{"200 ml Milk", "2 pcs Eggs", "a pinch of salt"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[pantry.CookReport](t, w)
	assert.Len(t, rep.Deducted, 1)
	assert.Len(t, rep.Depleted, 1)
	assert.Len(t, rep.Skipped, 1)

	w = e.do(t, http.MethodPost, "/api/v1/recipes/missing/cook", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipes_Unavailable(t *testing.T) {
	e := newTestEnv(t, nil, "")
	e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Eggs"})

	w := e.do(t, http.MethodPost, "/api/v1/recipes/options", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecipes_Flow(t *testing.T) {
	e := newTestEnv(t, stubGenerator{}, "")

	w := e.do(t, http.MethodPost, "/api/v1/recipes/options", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Eggs", "quantity": "6 pcs"})

	w = e.do(t, http.MethodPost, "/api/v1/recipes/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Omelette", decode[[]models.RecipeOption](t, w)[0].Title)

	w = e.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]any{"title": "Omelette"})
	require.Equal(t, http.StatusOK, w.Code)
	recipe := decode[models.Recipe](t, w)

	w = e.do(t, http.MethodPost, "/api/v1/recipes", recipe)
	require.Equal(t, http.StatusCreated, w.Code)
	saved := decode[models.Recipe](t, w)

	w = e.do(t, http.MethodPost, "/api/v1/recipes/"+saved.RecipeID+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Recipe](t, w).IsFavorite)

	w = e.do(t, http.MethodGet, "/api/v1/recipes?favorites=true", nil)
	assert.Len(t, decode[[]models.Recipe](t, w), 1)

	w = e.do(t, http.MethodPost, "/api/v1/recipes/"+saved.RecipeID+"/cook", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[pantry.CookReport](t, w).Deducted, 1)

	w = e.do(t, http.MethodDelete, "/api/v1/recipes/"+saved.RecipeID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/v1/recipes/"+saved.RecipeID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsights(t *testing.T) {
	e := newTestEnv(t, nil, "")
	w := e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Spinach"})
	item := decode[models.InventoryItem](t, w)
	e.do(t, http.MethodPost, "/api/v1/items/"+item.ItemID+"/discard", nil)

	w = e.do(t, http.MethodGet, "/api/v1/insights", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[pantry.Insights](t, w).Discarded)

	today := time.Now().Format("2006-01-02")
	w = e.do(t, http.MethodGet, "/api/v1/insights?from="+today+"&to="+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[pantry.Insights](t, w).Discarded)

	w = e.do(t, http.MethodGet, "/api/v1/insights?from=2025-06-10&to=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/insights?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/insights/export.xlsx", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
}

func TestExportImport(t *testing.T) {
	src := newTestEnv(t, nil, "")
	src.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Rice", "quantity": "1 kg"})

	w := src.do(t, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snapshot.ContentType, w.Header().Get("Content-Type"))
	data := w.Body.Bytes()

	dst := newTestEnv(t, nil, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	dst.api.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[pantry.ImportResult](t, rec).Items)

	w = dst.do(t, http.MethodGet, "/api/v1/items", nil)
	items := decode[[]models.InventoryItem](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].Name)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader([]byte("not msgpack")))
	rec = httptest.NewRecorder()
	dst.api.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t, nil, "")
	e.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Milk"})

	w := e.do(t, http.MethodGet, "/api/v1/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]any](t, w))
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	e := newTestEnv(t, nil, "s3cret")

	w := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items", nil, "Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items", nil, "Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, "s3cret"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/items?access_token="+signToken(t, jwt.SigningMethodHS256, "s3cret"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(pantry.ErrProductNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(database.ErrConflict))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(pantry.ErrLookupUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestParseDate(t *testing.T) {
	start, err := parseDate("2025-06-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), start)

	end, err := parseDate("2025-06-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 999999999, time.Local), end)

	exact, err := parseDate("2025-06-01T10:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), exact)

	zero, err := parseDate("", true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseDate("june", false)
	assert.Error(t, err)
}
