package pantry

import (
	"context"
	"fmt"
	"strings"

	"smartpantry/internal/database"
	"smartpantry/internal/models"

	"github.com/google/uuid"
)

// SuggestRecipes asks the generator for recipe ideas built from the available
// items. Items expiring inside the priority window and the titles of
// favourite recipes are passed along as hints.
func (s *Service) SuggestRecipes(ctx context.Context) ([]models.RecipeOption, error) {
	if s.recipes == nil {
		return nil, ErrRecipesUnavailable
	}

	ingredients, err := s.ingredientLines(ctx)
	if err != nil {
		return nil, err
	}

	expiring, err := s.ExpiringSoon(ctx, s.priorityWindow)
	if err != nil {
		return nil, fmt.Errorf("suggest recipes: %w", err)
	}
	priority := make([]string, 0, len(expiring))
	for _, it := range expiring {
		priority = append(priority, it.Name)
	}

	favs, err := s.store.ListRecipes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("suggest recipes: %w", err)
	}
	favorites := make([]string, 0, len(favs))
	for _, r := range favs {
		favorites = append(favorites, r.Title)
	}

	options, err := s.recipes.GenerateRecipeOptions(ctx, ingredients, priority, favorites)
	if err != nil {
		s.metrics.RecordRecipeRequest("options", "error")
		return nil, fmt.Errorf("suggest recipes: %w", err)
	}
	s.metrics.RecordRecipeRequest("options", "ok")
	return options, nil
}

// GenerateRecipe asks the generator for the full recipe behind a suggested
// title. The result is not saved.
func (s *Service) GenerateRecipe(ctx context.Context, title string) (*models.Recipe, error) {
	if s.recipes == nil {
		return nil, ErrRecipesUnavailable
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	ingredients, err := s.ingredientLines(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipes.GenerateFullRecipe(ctx, title, ingredients)
	if err != nil {
		s.metrics.RecordRecipeRequest("full", "error")
		return nil, fmt.Errorf("generate recipe %q: %w", title, err)
	}
	s.metrics.RecordRecipeRequest("full", "ok")

	if recipe.RecipeID == "" {
		recipe.RecipeID = uuid.NewString()
	}
	if recipe.Title == "" {
		recipe.Title = title
	}
	if recipe.CreatedDate.IsZero() {
		recipe.CreatedDate = s.now()
	}
	return recipe, nil
}

// SaveRecipe stores a recipe, assigning an id and creation date when missing
func (s *Service) SaveRecipe(ctx context.Context, recipe *models.Recipe) error {
	recipe.Title = strings.TrimSpace(recipe.Title)
	if recipe.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if recipe.RecipeID == "" {
		recipe.RecipeID = uuid.NewString()
	}
	if recipe.CreatedDate.IsZero() {
		recipe.CreatedDate = s.now()
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = models.StringSlice{}
	}
	if recipe.Steps == nil {
		recipe.Steps = models.StringSlice{}
	}
	return s.store.SaveRecipe(ctx, recipe)
}

// ToggleFavorite flips the favourite flag of a saved recipe
func (s *Service) ToggleFavorite(ctx context.Context, recipeID string) (*models.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	recipe.IsFavorite = !recipe.IsFavorite
	if err := s.store.SaveRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe returns a saved recipe
func (s *Service) GetRecipe(ctx context.Context, recipeID string) (*models.Recipe, error) {
	return s.store.GetRecipe(ctx, recipeID)
}

// ListRecipes returns saved recipes, newest first
func (s *Service) ListRecipes(ctx context.Context, favoritesOnly bool) ([]models.Recipe, error) {
	return s.store.ListRecipes(ctx, favoritesOnly)
}

// DeleteRecipe removes a saved recipe
func (s *Service) DeleteRecipe(ctx context.Context, recipeID string) error {
	return s.store.DeleteRecipe(ctx, recipeID)
}

// ingredientLines describes the available items as "<name> (<quantity>)"
func (s *Service) ingredientLines(ctx context.Context) ([]string, error) {
	items, err := s.availableItems(ctx, database.OrderName)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyPantry
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s (%s)", it.Name, it.Quantity))
	}
	return lines, nil
}
