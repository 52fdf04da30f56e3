package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
)

// ResultStore records administrator results. Authorization happens before
// it is called.
type ResultStore struct {
	catalog *fixture.Catalog
	results result.Repository
}

func NewResultStore(catalog *fixture.Catalog, results result.Repository) *ResultStore {
	return &ResultStore{
		catalog: catalog,
		results: results,
	}
}

// Record writes or overwrites the result of a fixture, regardless of kickoff.
func (s *ResultStore) Record(ctx context.Context, fixtureID string, in OutcomeInput, now time.Time) (result.Result, error) {
	res, err := s.Prepare(fixtureID, in, now)
	if err != nil {
		return result.Result{}, err
	}
	if err := s.Save(ctx, res); err != nil {
		return result.Result{}, err
	}
	return res, nil
}

// Prepare validates a result without writing it.
func (s *ResultStore) Prepare(fixtureID string, in OutcomeInput, now time.Time) (result.Result, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	item, ok := s.catalog.Get(fixtureID)
	if !ok {
		return result.Result{}, fmt.Errorf("%w: fixture=%s", ErrUnknownFixture, fixtureID)
	}

	actual, err := in.build()
	if err != nil {
		return result.Result{}, fmt.Errorf("fixture=%s: %w", item.ID, err)
	}
	return result.Result{
		FixtureID:  item.ID,
		Outcome:    actual,
		RecordedAt: now.UTC(),
	}, nil
}

// Save persists a result built by Prepare.
func (s *ResultStore) Save(ctx context.Context, res result.Result) error {
	if err := s.results.Upsert(ctx, res); err != nil {
		return persistenceError("upsert result", err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, fixtureID string) (result.Result, bool, error) {
	res, ok, err := s.results.Get(ctx, strings.TrimSpace(fixtureID))
	if err != nil {
		return result.Result{}, false, persistenceError("get result", err)
	}
	return res, ok, nil
}

// List returns results of fixtures known to the catalog.
func (s *ResultStore) List(ctx context.Context) ([]result.Result, error) {
	items, err := s.results.List(ctx)
	if err != nil {
		return nil, persistenceError("list results", err)
	}
	out := make([]result.Result, 0, len(items))
	for _, item := range items {
		if _, ok := s.catalog.Get(item.FixtureID); ok {
			out = append(out, item)
		}
	}
	return out, nil
}
