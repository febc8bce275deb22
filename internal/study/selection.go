package study

import (
	"cmp"
	"slices"
	"time"

	"github.com/conorfennell/part66/internal/domain"
)

const (
	tierOverdue = iota
	tierNew
	tierNotDue
)

type candidate struct {
	card  domain.Card
	tier  int
	due   time.Time
	order int
}

// selectBatch picks up to n cards. Reviewed cards that are overdue come
// first, oldest due date first, then never-reviewed cards, then cards that
// are not due yet, soonest first. Ties keep the order of cards.
func selectBatch(cards []domain.Card, progress map[string]domain.Progress, n int, now time.Time) []domain.Card {
	cands := make([]candidate, 0, len(cards))
	for i, c := range cards {
		cand := candidate{card: c, order: i, tier: tierNew, due: c.CreatedAt}
		if p, ok := progress[c.ID]; ok && p.Status != domain.StatusNew {
			cand.due = p.NextReview
			if p.Due(now) {
				cand.tier = tierOverdue
			} else {
				cand.tier = tierNotDue
			}
		}
		cands = append(cands, cand)
	}

	slices.SortFunc(cands, func(a, b candidate) int {
		if a.tier != b.tier {
			return cmp.Compare(a.tier, b.tier)
		}
		if a.tier != tierNew {
			if c := a.due.Compare(b.due); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.order, b.order)
	})

	batch := make([]domain.Card, 0, min(n, len(cands)))
	for _, c := range cands[:min(n, len(cands))] {
		batch = append(batch, c.card)
	}
	return batch
}
