package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
)

// PickStore validates and persists picks. It holds no locks of its own;
// PoolService serializes it against result recording.
type PickStore struct {
	catalog *fixture.Catalog
	picks   pick.Repository
	results result.Repository
}

func NewPickStore(catalog *fixture.Catalog, picks pick.Repository, results result.Repository) *PickStore {
	return &PickStore{
		catalog: catalog,
		picks:   picks,
		results: results,
	}
}

// Submit checks, in order: unknown fixture, participant id, lock (a recorded
// result first, then the clock), outcome validity. A rejected call writes
// nothing.
func (s *PickStore) Submit(ctx context.Context, participantID, fixtureID string, in OutcomeInput, now time.Time) (pick.Pick, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	item, ok := s.catalog.Get(fixtureID)
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: fixture=%s", ErrUnknownFixture, fixtureID)
	}
	key, display, err := normalizeParticipant(participantID)
	if err != nil {
		return pick.Pick{}, err
	}

	_, hasResult, err := s.results.Get(ctx, item.ID)
	if err != nil {
		return pick.Pick{}, persistenceError("get result", err)
	}
	if hasResult {
		return pick.Pick{}, fmt.Errorf("%w: fixture=%s: result already recorded", ErrFixtureLocked, item.ID)
	}
	if !item.IsOpen(now) {
		return pick.Pick{}, fmt.Errorf("%w: fixture=%s: kickoff was at %s", ErrFixtureLocked, item.ID, item.KickoffAt.Format(time.RFC3339))
	}

	predicted, err := in.build()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("fixture=%s: %w", item.ID, err)
	}

	prior, exists, err := s.picks.Get(ctx, key, item.ID)
	if err != nil {
		return pick.Pick{}, persistenceError("get pick", err)
	}
	if exists && prior.DisplayName != "" {
		display = prior.DisplayName
	}

	p := pick.Pick{
		ParticipantID: key,
		DisplayName:   display,
		FixtureID:     item.ID,
		Outcome:       predicted,
		SubmittedAt:   now.UTC(),
	}
	if err := s.picks.Upsert(ctx, p); err != nil {
		return pick.Pick{}, persistenceError("upsert pick", err)
	}
	return p, nil
}

func (s *PickStore) Get(ctx context.Context, participantID, fixtureID string) (pick.Pick, bool, error) {
	key, _, err := normalizeParticipant(participantID)
	if err != nil {
		return pick.Pick{}, false, err
	}
	p, ok, err := s.picks.Get(ctx, key, strings.TrimSpace(fixtureID))
	if err != nil {
		return pick.Pick{}, false, persistenceError("get pick", err)
	}
	return p, ok, nil
}

// AllFor lists every pick on a fixture; the scoring path reads it after lock.
func (s *PickStore) AllFor(ctx context.Context, fixtureID string) ([]pick.Pick, error) {
	items, err := s.picks.ListByFixture(ctx, fixtureID)
	if err != nil {
		return nil, persistenceError("list picks by fixture", err)
	}
	return items, nil
}

// ForParticipant lists a participant's picks in catalog order.
func (s *PickStore) ForParticipant(ctx context.Context, participantID string) ([]pick.Pick, error) {
	key, _, err := normalizeParticipant(participantID)
	if err != nil {
		return nil, err
	}
	items, err := s.picks.ListByParticipant(ctx, key)
	if err != nil {
		return nil, persistenceError("list picks by participant", err)
	}

	byFixture := make(map[string]pick.Pick, len(items))
	for _, item := range items {
		byFixture[item.FixtureID] = item
	}
	out := make([]pick.Pick, 0, len(items))
	for _, item := range s.catalog.List() {
		if p, ok := byFixture[item.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func normalizeParticipant(raw string) (string, string, error) {
	key, display, err := pick.NormalizeParticipant(raw)
	if err != nil {
		if errors.Is(err, pick.ErrInvalidParticipant) {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", "", err
	}
	return key, display, nil
}
