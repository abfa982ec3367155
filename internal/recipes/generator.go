// Package recipes generates recipe ideas and full recipes from pantry
// contents with a chat model.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"smartpantry/internal/models"

	"github.com/tmc/langchaingo/prompts"
)

// ErrMalformedReply is returned when the model reply holds no usable JSON
var ErrMalformedReply = errors.New("malformed model reply")

// optionCount is the number of ideas requested per suggestion round
const optionCount = 3

var optionsPrompt = prompts.NewPromptTemplate(
	`Suggest {{.count}} DISTINCT meal ideas using some or all of these ingredients: {{.ingredients}}. You can assume basic pantry staples and the ideas should be realistic.
{{- if .priority}}

CRITICAL: You MUST prioritize using these expiring ingredients: {{.priority}}. Try to include them in the suggestions.
{{- end}}
{{- if .favorites}}

The user loves these dishes: {{.favorites}}. Try to suggest recipes with a similar style or flavor profile if possible.
{{- end}}

Return ONLY valid JSON matching this structure, with no other text:
{"options": [{"title": "Recipe title", "description": "Short description of the dish."}]}`,
	[]string{"count", "ingredients", "priority", "favorites"},
)

var fullRecipePrompt = prompts.NewPromptTemplate(
	`Create a full, detailed recipe for "{{.title}}" using these ingredients: {{.ingredients}}.

IMPORTANT:
1. The recipe must be for ONE PERSON (single serving).
2. List ingredients in this EXACT format: [Quantity] [Unit] [Ingredient Name] (e.g. "100 g Pasta", "1 pcs Egg", "200 ml Milk").
3. Use metric units (g, ml, pcs) where possible.
4. Include a short appetizing description.
5. Estimate nutrition facts for one serving.

Return ONLY valid JSON matching this structure, with no other text:
{"title": "{{.title}}", "description": "...", "ingredients": ["100 g Pasta"], "steps": ["Step 1"], "prepTime": 20, "difficulty": "Easy", "calories": 500, "protein": 20, "carbs": 40, "fat": 15}`,
	[]string{"title", "ingredients"},
)

type optionsReply struct {
	Options []models.RecipeOption `json:"options"`
}

type recipeReply struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	PrepTime    int      `json:"prepTime"`
	Difficulty  string   `json:"difficulty"`
	Calories    int      `json:"calories"`
	Protein     int      `json:"protein"`
	Carbs       int      `json:"carbs"`
	Fat         int      `json:"fat"`
}

// Generator implements recipe generation on top of a Completer
type Generator struct {
	completer Completer
	log       *slog.Logger
}

// NewGenerator creates a new recipe generator
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, log: logger}
}

// GenerateRecipeOptions asks for three distinct meal ideas
func (g *Generator) GenerateRecipeOptions(ctx context.Context, ingredients, priority, favorites []string) ([]models.RecipeOption, error) {
	prompt, err := optionsPrompt.Format(map[string]any{
		"count":       optionCount,
		"ingredients": strings.Join(ingredients, ", "),
		"priority":    strings.Join(priority, ", "),
		"favorites":   strings.Join(favorites, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build options prompt: %w", err)
	}

	reply, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed optionsReply
	if err := decodeReply(reply, &parsed); err != nil {
		g.log.Warn("unusable recipe options reply", "err", err)
		return nil, err
	}

	options := make([]models.RecipeOption, 0, len(parsed.Options))
	for _, o := range parsed.Options {
		o.Title = strings.TrimSpace(o.Title)
		if o.Title == "" {
			continue
		}
		o.Description = strings.TrimSpace(o.Description)
		options = append(options, o)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no recipe options", ErrMalformedReply)
	}
	if len(options) > optionCount {
		options = options[:optionCount]
	}
	return options, nil
}

// GenerateFullRecipe asks for a complete single-serving recipe
func (g *Generator) GenerateFullRecipe(ctx context.Context, title string, ingredients []string) (*models.Recipe, error) {
	prompt, err := fullRecipePrompt.Format(map[string]any{
		"title":       title,
		"ingredients": strings.Join(ingredients, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe prompt: %w", err)
	}

	reply, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed recipeReply
	if err := decodeReply(reply, &parsed); err != nil {
		g.log.Warn("unusable recipe reply", "title", title, "err", err)
		return nil, err
	}
	if len(parsed.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: recipe has no ingredients", ErrMalformedReply)
	}

	recipe := &models.Recipe{
		Title:           strings.TrimSpace(parsed.Title),
		Description:     strings.TrimSpace(parsed.Description),
		Ingredients:     models.StringSlice(trimAll(parsed.Ingredients)),
		Steps:           models.StringSlice(trimAll(parsed.Steps)),
		PrepTimeMinutes: parsed.PrepTime,
		Difficulty:      parsed.Difficulty,
		Calories:        parsed.Calories,
		Protein:         parsed.Protein,
		Carbs:           parsed.Carbs,
		Fat:             parsed.Fat,
	}
	if recipe.Title == "" {
		recipe.Title = title
	}
	return recipe, nil
}

// decodeReply extracts the outermost JSON object from a model reply, which
// may be wrapped in prose or markdown code fences.
func decodeReply(reply string, v any) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object", ErrMalformedReply)
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
