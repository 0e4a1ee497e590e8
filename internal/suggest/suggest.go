// Package suggest ranks open tenders for a vendor from their bidding history.
package suggest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/david/tender-finder/internal/models"
	"github.com/david/tender-finder/internal/qualify"
)

const (
	topN            = 3
	poolSize        = 50
	fallbackSize    = 25
	maxResults      = 10
	budgetTolerance = 0.4
)

// Source supplies candidate tenders. Both methods return approved tenders
// ordered by ascending deadline.
type Source interface {
	SuggestionPool(ctx context.Context, categories, sectors []string, limit int) ([]models.Tender, error)
	UpcomingTenders(ctx context.Context, limit int) ([]models.Tender, error)
}

// Preferences summarise the tenders a vendor has applied to.
type Preferences struct {
	Categories []string `json:"categories"`
	Sectors    []string `json:"sectors"`
	AvgBudget  float64  `json:"avgBudget"`
	HasBudget  bool     `json:"hasBudget"`
}

// Learn tallies history into preferences. Ties keep first-seen order.
func Learn(history []models.Tender) Preferences {
	var (
		categories = newTally()
		sectors    = newTally()
		sum        float64
		n          int
	)
	for _, t := range history {
		categories.add(t.Category)
		sectors.add(t.Sector)
		if mid, ok := midpoint(t); ok {
			sum += mid
			n++
		}
	}

	p := Preferences{Categories: categories.top(topN), Sectors: sectors.top(topN)}
	if n > 0 {
		p.AvgBudget = sum / float64(n)
		p.HasBudget = true
	}
	return p
}

// Accepts reports whether t passes the category/sector and budget filters.
func (p Preferences) Accepts(t models.Tender) bool {
	if len(p.Categories) > 0 || len(p.Sectors) > 0 {
		if !contains(p.Categories, t.Category) && !contains(p.Sectors, t.Sector) {
			return false
		}
	}
	if p.HasBudget && p.AvgBudget != 0 {
		if mid, ok := midpoint(t); ok && math.Abs(mid-p.AvgBudget) > p.AvgBudget*budgetTolerance {
			return false
		}
	}
	return true
}

// Suggest returns up to ten tenders for a vendor who applied to history and
// owns documents of ownedDocs types.
//
// When ownedDocs is empty the document filter is skipped, since a vendor who
// has uploaded nothing would otherwise never see a suggestion.
func Suggest(ctx context.Context, src Source, history []models.Tender, ownedDocs []string) ([]models.Tender, error) {
	prefs := Learn(history)

	pool, err := src.SuggestionPool(ctx, prefs.Categories, prefs.Sectors, poolSize)
	if err != nil {
		return nil, fmt.Errorf("suggestion pool: %w", err)
	}

	out := make([]models.Tender, 0, maxResults)
	for _, t := range pool {
		if prefs.Accepts(t) && ownsDocs(ownedDocs, t) {
			out = append(out, t)
		}
	}

	if len(out) == 0 {
		upcoming, err := src.UpcomingTenders(ctx, fallbackSize)
		if err != nil {
			return nil, fmt.Errorf("upcoming tenders: %w", err)
		}
		for _, t := range upcoming {
			if ownsDocs(ownedDocs, t) {
				out = append(out, t)
			}
		}
	}

	SortByDeadline(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// SortByDeadline orders tenders by ascending deadline, undated ones last.
func SortByDeadline(ts []models.Tender) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i].Deadline, ts[j].Deadline
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}

func ownsDocs(owned []string, t models.Tender) bool {
	if len(owned) == 0 {
		return true
	}
	return qualify.OwnsAll(owned, t.RequiredDocs)
}

func midpoint(t models.Tender) (float64, bool) {
	lower, upper, ok := t.BudgetBounds()
	if !ok {
		return 0, false
	}
	return (lower + upper) / 2, true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(v string) {
	if v == "" {
		return
	}
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally) top(n int) []string {
	keys := append([]string(nil), t.order...)
	sort.SliceStable(keys, func(i, j int) bool { return t.counts[keys[i]] > t.counts[keys[j]] })
	if len(keys) > n {
		keys = keys[:n]
	}
	if keys == nil {
		keys = []string{}
	}
	return keys
}
