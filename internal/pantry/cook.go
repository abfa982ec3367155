package pantry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartpantry/internal/database"
	"smartpantry/internal/lifecycle"
	"smartpantry/internal/models"
	"smartpantry/internal/quantity"

	"golang.org/x/text/cases"
)

// Reasons a recipe line left the pantry untouched
const (
	SkipNoMatch      = "no_match"
	SkipUnparseable  = "unparseable"
	SkipUnitMismatch = "unit_mismatch"
)

// Deduction records one ingredient line taken from an item
type Deduction struct {
	Line     string            `json:"line"`
	ItemID   string            `json:"item_id"`
	ItemName string            `json:"item_name"`
	Before   string            `json:"before"`
	After    string            `json:"after"`
	Status   models.ItemStatus `json:"status"`
}

// SkippedLine records a line that changed nothing
type SkippedLine struct {
	Line   string `json:"line"`
	ItemID string `json:"item_id,omitempty"`
	Reason string `json:"reason"`
}

// CookReport summarizes a cook-recipe run
type CookReport struct {
	Deducted []Deduction   `json:"deducted"`
	Depleted []Deduction   `json:"depleted"`
	Skipped  []SkippedLine `json:"skipped"`
}

// CookRecipe deducts each ingredient line from the first available item whose
// name appears in the line, in collection order. Lines run sequentially and
// see the deductions of earlier lines. Lines that cannot be matched, parsed
// or converted are skipped and reported; they are never an error.
func (s *Service) CookRecipe(ctx context.Context, lines []string) (*CookReport, error) {
	items, err := s.availableItems(ctx, database.OrderAdded)
	if err != nil {
		return nil, fmt.Errorf("cook recipe: %w", err)
	}

	fold := cases.Fold()
	folded := make([]string, len(items))
	for i := range items {
		folded[i] = fold.String(strings.TrimSpace(items[i].Name))
	}

	report := &CookReport{
		Deducted: []Deduction{},
		Depleted: []Deduction{},
		Skipped:  []SkippedLine{},
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		qty, _, ok := quantity.SplitIngredientLine(line)
		if !ok {
			report.skip(line, "", SkipUnparseable)
			s.metrics.RecordDeduction(SkipUnparseable)
			continue
		}

		idx := matchItem(items, folded, fold.String(line))
		if idx < 0 {
			report.skip(line, "", SkipNoMatch)
			s.metrics.RecordDeduction(SkipNoMatch)
			continue
		}
		item := &items[idx]

		before := item.Quantity
		after, err := quantity.Deduct(qty, before)
		if err != nil {
			reason := SkipUnparseable
			if errors.Is(err, quantity.ErrUnitMismatch) {
				reason = SkipUnitMismatch
			}
			s.log.Debug("ingredient skipped", "line", line, "item_id", item.ItemID, "reason", reason, "err", err)
			report.skip(line, item.ItemID, reason)
			s.metrics.RecordDeduction(reason)
			continue
		}

		item.Quantity = after
		d := Deduction{Line: line, ItemID: item.ItemID, ItemName: item.Name, Before: before, After: after, Status: item.Status}

		if quantity.IsDepleted(after) {
			if err := s.machine.Apply(ctx, item, lifecycle.EventDeplete); err != nil {
				return report, fmt.Errorf("cook recipe: deplete %s: %w", item.ItemID, err)
			}
			d.After = item.Quantity
			d.Status = item.Status
			report.Depleted = append(report.Depleted, d)
			s.metrics.RecordDeduction("depleted")
		} else {
			report.Deducted = append(report.Deducted, d)
			s.metrics.RecordDeduction("deducted")
		}

		if err := s.store.SaveItem(ctx, item); err != nil {
			return report, fmt.Errorf("cook recipe: save %s: %w", item.ItemID, err)
		}
	}

	s.log.Info("recipe cooked",
		"lines", len(lines),
		"deducted", len(report.Deducted),
		"depleted", len(report.Depleted),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// CookSavedRecipe cooks the ingredient lines of a stored recipe
func (s *Service) CookSavedRecipe(ctx context.Context, recipeID string) (*CookReport, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.CookRecipe(ctx, recipe.Ingredients)
}

// matchItem returns the index of the first still-available item whose folded
// name is contained in the folded line, or -1.
func matchItem(items []models.InventoryItem, folded []string, line string) int {
	for i := range items {
		if items[i].Status != models.StatusAvailable || folded[i] == "" {
			continue
		}
		if strings.Contains(line, folded[i]) {
			return i
		}
	}
	return -1
}

func (r *CookReport) skip(line, itemID, reason string) {
	r.Skipped = append(r.Skipped, SkippedLine{Line: line, ItemID: itemID, Reason: reason})
}
