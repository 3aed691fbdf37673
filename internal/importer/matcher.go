package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ledgerloom/ledgerloom/internal/model"
	"github.com/ledgerloom/ledgerloom/internal/service"
)

// Matcher proposes existing manual entries to merge with imported records.
type Matcher struct {
	store service.Storage
}

// NewMatcher creates a match candidate finder backed by the given store.
func NewMatcher(store service.Storage) *Matcher {
	return &Matcher{store: store}
}

// FindCandidates returns eligible entries ranked by ascending distance in
// days from the record's date, ties broken by entry id. Amount equality is
// a hard filter applied by the store query: a false positive on amount is
// far more damaging than a missed match, while bank posting dates commonly
// drift a few days from the user's own date.
func (m *Matcher) FindCandidates(ctx context.Context, accountID string, rec model.RawRecord) ([]model.MatchCandidate, error) {
	entries, err := m.store.FindMatchable(ctx, accountID, rec.Amount.Abs())
	if err != nil {
		return nil, fmt.Errorf("failed to find matchable entries: %w", err)
	}

	candidates := make([]model.MatchCandidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, model.MatchCandidate{
			Entry:        entry,
			DateDistance: dayDistance(entry.Date, rec.Date),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DateDistance != candidates[j].DateDistance {
			return candidates[i].DateDistance < candidates[j].DateDistance
		}
		return candidates[i].Entry.ID < candidates[j].Entry.ID
	})

	return candidates, nil
}

// FindBestMatch returns the head of the ranked candidate list, or nil when
// no entry is eligible.
func (m *Matcher) FindBestMatch(ctx context.Context, accountID string, rec model.RawRecord) (*model.MatchCandidate, error) {
	candidates, err := m.FindCandidates(ctx, accountID, rec)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// dayDistance is the absolute number of calendar days between two dates,
// ignoring time of day.
func dayDistance(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
