package pantry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"smartpantry/internal/database"
	"smartpantry/internal/models"
)

// topItemsLimit caps the top consumed and top discarded lists
const topItemsLimit = 5

// NameCount is an item name with the number of times it occurred
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Insights summarizes what left the pantry in a period
type Insights struct {
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	Consumed     int         `json:"consumed"`
	Discarded    int         `json:"discarded"`
	WasteRate    float64     `json:"waste_rate"`
	TopConsumed  []NameCount `json:"top_consumed"`
	TopDiscarded []NameCount `json:"top_discarded"`
}

// Insights counts items consumed and discarded between from and to, using
// the time of their last status change. A zero from or to leaves that side open.
func (s *Service) Insights(ctx context.Context, from, to time.Time) (*Insights, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%w: period ends before it starts", ErrInvalidInput)
	}

	filter := database.ItemFilter{
		Statuses: []models.ItemStatus{models.StatusConsumed, models.StatusDiscarded},
	}
	if !from.IsZero() {
		filter.ChangedFrom = &from
	}
	if !to.IsZero() {
		filter.ChangedTo = &to
	}
	items, err := s.store.QueryItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	consumed := map[string]*NameCount{}
	discarded := map[string]*NameCount{}
	out := &Insights{From: from, To: to}
	for _, it := range items {
		switch it.Status {
		case models.StatusConsumed:
			out.Consumed++
			tally(consumed, it.Name)
		case models.StatusDiscarded:
			out.Discarded++
			tally(discarded, it.Name)
		}
	}
	if total := out.Consumed + out.Discarded; total > 0 {
		out.WasteRate = float64(out.Discarded) / float64(total)
	}
	out.TopConsumed = top(consumed, topItemsLimit)
	out.TopDiscarded = top(discarded, topItemsLimit)
	return out, nil
}

func tally(counts map[string]*NameCount, name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if nc, ok := counts[key]; ok {
		nc.Count++
		return
	}
	counts[key] = &NameCount{Name: strings.TrimSpace(name), Count: 1}
}

func top(counts map[string]*NameCount, n int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for _, nc := range counts {
		out = append(out, *nc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
