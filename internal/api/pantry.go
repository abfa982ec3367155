package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/monitoring"
	"smartpantry/internal/notify"
	"smartpantry/internal/pantry"
	"smartpantry/internal/recipes"
	"smartpantry/internal/snapshot"

	"github.com/gin-gonic/gin"
)

// Options carries the optional collaborators of the API
type Options struct {
	Hub       *notify.Hub
	Monitor   *monitoring.Monitor
	JWTSecret string
	Logger    *slog.Logger
}

// PantryAPI represents the main API handler for the pantry
type PantryAPI struct {
	Router  *gin.Engine
	Service *pantry.Service
	Hub     *notify.Hub
	Monitor *monitoring.Monitor
	log     *slog.Logger
}

// NewPantryAPI creates a new pantry API instance
func NewPantryAPI(svc *pantry.Service, opts Options) *PantryAPI {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger))

	api := &PantryAPI{
		Router:  router,
		Service: svc,
		Hub:     opts.Hub,
		Monitor: opts.Monitor,
		log:     opts.Logger,
	}

	api.setupRoutes(opts.JWTSecret)
	return api
}

// setupRoutes configures all API endpoints
func (p *PantryAPI) setupRoutes(jwtSecret string) {
	// Health check
	p.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "SmartPantry API is running"})
	})

	v1 := p.Router.Group("/api/v1")
	if jwtSecret != "" {
		v1.Use(AuthMiddleware(jwtSecret))
	}
	{
		// Inventory
		v1.GET("/items", p.ListItems)
		v1.POST("/items", p.AddItem)
		v1.POST("/items/barcode", p.AddFromBarcode)
		v1.GET("/items/expiring", p.ExpiringSoon)
		v1.GET("/items/:id", p.GetItem)
		v1.DELETE("/items/:id", p.DeleteItem)
		v1.GET("/items/:id/reminders", p.ItemReminders)
		v1.POST("/items/:id/consume", p.transition(lifecycle.EventConsume))
		v1.POST("/items/:id/discard", p.transition(lifecycle.EventDiscard))
		v1.POST("/items/:id/shopping-list", p.transition(lifecycle.EventAddToShoppingList))
		v1.POST("/items/:id/bought", p.transition(lifecycle.EventMarkBought))

		// Shopping list
		v1.GET("/shopping-list", p.ShoppingList)
		v1.POST("/shopping-list", p.AddShoppingEntry)
		v1.GET("/shopping-list/suggestions", p.Suggestions)
		v1.GET("/shopping-list/export.xlsx", p.ExportShoppingList)

		// Recipes
		v1.GET("/recipes", p.ListRecipes)
		v1.POST("/recipes", p.SaveRecipe)
		v1.POST("/recipes/options", p.RecipeOptions)
		v1.POST("/recipes/generate", p.GenerateRecipe)
		v1.GET("/recipes/:id", p.GetRecipe)
		v1.DELETE("/recipes/:id", p.DeleteRecipe)
		v1.POST("/recipes/:id/favorite", p.ToggleFavorite)
		v1.POST("/recipes/:id/cook", p.CookSavedRecipe)
		v1.POST("/cook", p.Cook)

		// Insights and backups
		v1.GET("/insights", p.Insights)
		v1.GET("/insights/export.xlsx", p.ExportInsights)
		v1.GET("/export", p.Export)
		v1.POST("/import", p.Import)

		// Notifications and in-process counters
		v1.GET("/ws", p.WebSocket)
		v1.GET("/metrics", p.Metrics)
	}
}

// Metrics returns the in-process counter snapshot
func (p *PantryAPI) Metrics(c *gin.Context) {
	if p.Monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, p.Monitor.GetMetrics())
}

// WebSocket subscribes the caller to reminder notifications
func (p *PantryAPI) WebSocket(c *gin.Context) {
	if p.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications are disabled"})
		return
	}
	if err := p.Hub.ServeWS(c.Writer, c.Request); err != nil {
		p.log.Warn("websocket upgrade failed", "err", err)
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, pantry.ErrNotFound), errors.Is(err, pantry.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, pantry.ErrInvalidInput), errors.Is(err, snapshot.ErrUnsupportedVersion):
		return http.StatusBadRequest
	case errors.Is(err, pantry.ErrInvalidTransition), errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pantry.ErrEmptyPantry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pantry.ErrLookupUnavailable), errors.Is(err, pantry.ErrRecipesUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, recipes.ErrMalformedReply), errors.Is(err, recipes.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (p *PantryAPI) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		p.log.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
