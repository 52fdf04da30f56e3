package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
	"github.com/riskibarqy/prediction-pool/internal/domain/standings"
	"github.com/riskibarqy/prediction-pool/internal/platform/cache"
	"github.com/riskibarqy/prediction-pool/internal/platform/logging"
)

const standingsCacheKey = "standings"

// Authorizer decides whether a supplied secret grants admin rights.
type Authorizer interface {
	IsAdmin(secret string) bool
}

type PoolConfig struct {
	Rules          scoring.Rules
	RebuildWorkers int
}

// PickEntry is one fixture of a batch submission.
type PickEntry struct {
	FixtureID string
	Outcome   OutcomeInput
}

// PickOutcome reports one entry of a batch submission. Err is nil on success.
type PickOutcome struct {
	FixtureID string
	Pick      pick.Pick
	Err       error
}

// ResultEntry is one fixture of a batch result recording.
type ResultEntry struct {
	FixtureID string
	Outcome   OutcomeInput
}

// ResultOutcome reports one entry of a batch result recording. Err is nil on success.
type ResultOutcome struct {
	FixtureID string
	Result    result.Result
	Err       error
}

// FixtureStatus is a fixture with its lifecycle state and result, if any.
type FixtureStatus struct {
	Fixture fixture.Fixture
	State   fixture.State
	Result  *result.Result
}

// PoolService orchestrates picks, results and scoring. Submissions for a
// fixture share its read lock; recording a result takes the write lock, so a
// pick either commits before the result or observes it and fails.
type PoolService struct {
	catalog *fixture.Catalog
	picks   *PickStore
	results *ResultStore
	admin   Authorizer
	rules   scoring.Rules
	workers int
	clock   clock.Clock
	cache   *cache.Store[[]standings.Row]
	logger  *logging.Logger

	fixtureLocks map[string]*sync.RWMutex

	mu      sync.RWMutex
	scored  map[string][]scoring.ScoredPick
	pending map[string]struct{}
}

func NewPoolService(
	cfg PoolConfig,
	catalog *fixture.Catalog,
	picks *PickStore,
	results *ResultStore,
	admin Authorizer,
	clk clock.Clock,
	cacheStore *cache.Store[[]standings.Row],
	logger *logging.Logger,
) (*PoolService, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: fixture catalog is required", ErrInvalidInput)
	}
	if cfg.RebuildWorkers < 1 {
		cfg.RebuildWorkers = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	if cacheStore == nil {
		cacheStore = cache.NewStore[[]standings.Row](0, clk)
	}
	if logger == nil {
		logger = logging.Default()
	}

	locks := make(map[string]*sync.RWMutex, catalog.Len())
	for _, item := range catalog.List() {
		locks[item.ID] = &sync.RWMutex{}
	}

	return &PoolService{
		catalog:      catalog,
		picks:        picks,
		results:      results,
		admin:        admin,
		rules:        cfg.Rules,
		workers:      cfg.RebuildWorkers,
		clock:        clk,
		cache:        cacheStore,
		logger:       logger.Named("usecase.pool"),
		fixtureLocks: locks,
		scored:       make(map[string][]scoring.ScoredPick),
		pending:      make(map[string]struct{}),
	}, nil
}

func (s *PoolService) Rules() scoring.Rules {
	return s.rules
}

func (s *PoolService) Fixtures(round string) []fixture.Fixture {
	return s.catalog.ListByRound(round)
}

func (s *PoolService) Rounds() []string {
	return s.catalog.Rounds()
}

func (s *PoolService) Fixture(fixtureID string) (fixture.Fixture, error) {
	item, ok := s.catalog.Get(fixtureID)
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrUnknownFixture, strings.TrimSpace(fixtureID))
	}
	return item, nil
}

// SubmitPick stores a pick using the service clock.
func (s *PoolService) SubmitPick(ctx context.Context, participantID, fixtureID string, in OutcomeInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.SubmitPick")
	defer span.End()

	lock, ok := s.fixtureLocks[strings.TrimSpace(fixtureID)]
	if ok {
		lock.RLock()
		defer lock.RUnlock()
	}

	p, err := s.picks.Submit(ctx, participantID, fixtureID, in, s.clock.Now())
	if err != nil {
		s.logRejected(ctx, "pick rejected", err, "fixture_id", fixtureID, "participant_id", participantID)
		return pick.Pick{}, err
	}
	return p, nil
}

// SubmitPicks applies each entry independently; one failing entry does not
// affect the others.
func (s *PoolService) SubmitPicks(ctx context.Context, participantID string, entries []PickEntry) ([]PickOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.SubmitPicks")
	defer span.End()

	if _, _, err := normalizeParticipant(participantID); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one pick is required", ErrInvalidInput)
	}

	out := make([]PickOutcome, 0, len(entries))
	for _, entry := range entries {
		p, err := s.SubmitPick(ctx, participantID, entry.FixtureID, entry.Outcome)
		out = append(out, PickOutcome{
			FixtureID: strings.TrimSpace(entry.FixtureID),
			Pick:      p,
			Err:       err,
		})
	}
	return out, nil
}

// RecordResult writes a result and rescores its fixture before returning, so
// the standings returned afterwards already reflect it. A rejected call leaves
// the result, the scores and the fixture state as they were.
func (s *PoolService) RecordResult(ctx context.Context, adminSecret, fixtureID string, in OutcomeInput) (result.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.RecordResult")
	defer span.End()

	if !s.authorized(ctx, adminSecret, "fixture_id", fixtureID) {
		return result.Result{}, ErrUnauthorized
	}

	res, err := s.recordLocked(ctx, strings.TrimSpace(fixtureID), in)
	if err != nil {
		return result.Result{}, err
	}
	s.refreshStandings(ctx)
	return res, nil
}

// RecordResults applies each entry independently, like SubmitPicks, and
// refreshes the standings once at the end.
func (s *PoolService) RecordResults(ctx context.Context, adminSecret string, entries []ResultEntry) ([]ResultOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.RecordResults")
	defer span.End()

	if !s.authorized(ctx, adminSecret, "entries", len(entries)) {
		return nil, ErrUnauthorized
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one result is required", ErrInvalidInput)
	}

	out := make([]ResultOutcome, 0, len(entries))
	recorded := 0
	for _, entry := range entries {
		fixtureID := strings.TrimSpace(entry.FixtureID)
		res, err := s.recordLocked(ctx, fixtureID, entry.Outcome)
		if err == nil {
			recorded++
		}
		out = append(out, ResultOutcome{FixtureID: fixtureID, Result: res, Err: err})
	}
	if recorded > 0 {
		s.refreshStandings(ctx)
	}
	return out, nil
}

func (s *PoolService) authorized(ctx context.Context, secret string, args ...any) bool {
	if s.admin != nil && s.admin.IsAdmin(secret) {
		return true
	}
	args = append(args, "error", ErrUnauthorized)
	s.logger.WarnContext(ctx, "result rejected", args...)
	return false
}

// recordLocked validates the result and scores the fixture's picks before
// writing anything; once the write succeeds nothing else can fail.
func (s *PoolService) recordLocked(ctx context.Context, fixtureID string, in OutcomeInput) (result.Result, error) {
	lock, ok := s.fixtureLocks[fixtureID]
	if !ok {
		err := fmt.Errorf("%w: fixture=%s", ErrUnknownFixture, fixtureID)
		s.logRejected(ctx, "result rejected", err, "fixture_id", fixtureID)
		return result.Result{}, err
	}
	lock.Lock()
	defer lock.Unlock()

	res, err := s.results.Prepare(fixtureID, in, s.clock.Now())
	if err != nil {
		s.logRejected(ctx, "result rejected", err, "fixture_id", fixtureID)
		return result.Result{}, err
	}
	picks, err := s.picks.AllFor(ctx, res.FixtureID)
	if err != nil {
		s.logRejected(ctx, "result rejected", err, "fixture_id", fixtureID)
		return result.Result{}, err
	}
	scored := s.rules.ScoreFixture(picks, res)

	if err := s.results.Save(ctx, res); err != nil {
		s.logRejected(ctx, "result rejected", err, "fixture_id", fixtureID)
		return result.Result{}, err
	}

	s.mu.Lock()
	s.scored[res.FixtureID] = scored
	delete(s.pending, res.FixtureID)
	s.mu.Unlock()
	s.cache.Delete(ctx, standingsCacheKey)

	s.logger.InfoContext(ctx, "result recorded", "fixture_id", res.FixtureID, "outcome", res.Outcome.String(), "scored_picks", len(scored))
	return res, nil
}

// refreshStandings warms the standings cache. A failure here only concerns
// fixtures queued by an earlier rebuild and is retried on the next read.
func (s *PoolService) refreshStandings(ctx context.Context) {
	if _, err := s.Standings(ctx); err != nil {
		s.logger.ErrorContext(ctx, "refresh standings failed", "error", err)
	}
}

// Standings returns the ranked table over every fixture with a result.
func (s *PoolService) Standings(ctx context.Context) ([]standings.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.Standings")
	defer span.End()

	rows, err := s.cache.GetOrLoad(ctx, standingsCacheKey, func(ctx context.Context) ([]standings.Row, error) {
		if err := s.scorePending(ctx); err != nil {
			return nil, err
		}
		return standings.Compute(s.allScored()), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]standings.Row(nil), rows...), nil
}

// ScoredPicks lists every scored pick in catalog order, then by participant.
func (s *PoolService) ScoredPicks(ctx context.Context) ([]scoring.ScoredPick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.ScoredPicks")
	defer span.End()

	if err := s.scorePending(ctx); err != nil {
		return nil, err
	}
	return s.allScored(), nil
}

func (s *PoolService) PicksFor(ctx context.Context, participantID string) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.PicksFor")
	defer span.End()

	return s.picks.ForParticipant(ctx, participantID)
}

func (s *PoolService) FixtureState(ctx context.Context, fixtureID string) (fixture.State, error) {
	status, err := s.FixtureStatus(ctx, fixtureID)
	if err != nil {
		return "", err
	}
	return status.State, nil
}

func (s *PoolService) FixtureStatus(ctx context.Context, fixtureID string) (FixtureStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.FixtureStatus")
	defer span.End()

	item, err := s.Fixture(fixtureID)
	if err != nil {
		return FixtureStatus{}, err
	}
	res, hasResult, err := s.results.Get(ctx, item.ID)
	if err != nil {
		return FixtureStatus{}, err
	}

	status := FixtureStatus{
		Fixture: item,
		State:   fixture.ResolveState(item, s.clock.Now(), hasResult, s.isScored(item.ID)),
	}
	if hasResult {
		status.Result = &res
	}
	return status, nil
}

// FixtureStatuses lists fixtures of a round (all when round is empty) with state.
func (s *PoolService) FixtureStatuses(ctx context.Context, round string) ([]FixtureStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.FixtureStatuses")
	defer span.End()

	recorded, err := s.results.List(ctx)
	if err != nil {
		return nil, err
	}
	byFixture := make(map[string]result.Result, len(recorded))
	for _, item := range recorded {
		byFixture[item.FixtureID] = item
	}

	now := s.clock.Now()
	fixtures := s.catalog.ListByRound(round)
	out := make([]FixtureStatus, 0, len(fixtures))
	for _, item := range fixtures {
		res, hasResult := byFixture[item.ID]
		status := FixtureStatus{
			Fixture: item,
			State:   fixture.ResolveState(item, now, hasResult, s.isScored(item.ID)),
		}
		if hasResult {
			res := res
			status.Result = &res
		}
		out = append(out, status)
	}
	return out, nil
}

// Rebuild rescores every fixture that has a persisted result, in parallel,
// then refreshes the standings.
func (s *PoolService) Rebuild(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PoolService.Rebuild")
	defer span.End()

	recorded, err := s.results.List(ctx)
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		workers  sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for _, res := range recorded {
		res := res
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			lock := s.fixtureLocks[res.FixtureID]
			lock.Lock()
			defer lock.Unlock()

			if err := s.rescoreFixture(ctx, res); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}); err != nil {
			workers.Done()
			return fmt.Errorf("submit rescore task to worker pool: %w", err)
		}
	}
	workers.Wait()

	s.cache.Delete(ctx, standingsCacheKey)
	if firstErr != nil {
		s.logger.ErrorContext(ctx, "rebuild scores failed", "error", firstErr)
		return firstErr
	}

	s.logger.InfoContext(ctx, "scores rebuilt", "fixtures", len(recorded))
	_, err = s.Standings(ctx)
	return err
}

// rescoreFixture replaces every scored pick of an already persisted result.
// On failure the old scores are dropped and the fixture is queued for the
// next read.
func (s *PoolService) rescoreFixture(ctx context.Context, res result.Result) error {
	picks, err := s.picks.AllFor(ctx, res.FixtureID)
	if err != nil {
		s.mu.Lock()
		delete(s.scored, res.FixtureID)
		s.pending[res.FixtureID] = struct{}{}
		s.mu.Unlock()
		return err
	}

	scored := s.rules.ScoreFixture(picks, res)

	s.mu.Lock()
	s.scored[res.FixtureID] = scored
	delete(s.pending, res.FixtureID)
	s.mu.Unlock()
	return nil
}

func (s *PoolService) scorePending(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	for _, id := range ids {
		lock := s.fixtureLocks[id]
		lock.Lock()
		err := s.rescorePending(ctx, id)
		lock.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PoolService) rescorePending(ctx context.Context, fixtureID string) error {
	s.mu.RLock()
	_, stillPending := s.pending[fixtureID]
	s.mu.RUnlock()
	if !stillPending {
		return nil
	}

	res, ok, err := s.results.Get(ctx, fixtureID)
	if err != nil {
		return err
	}
	if !ok {
		s.mu.Lock()
		delete(s.pending, fixtureID)
		s.mu.Unlock()
		return nil
	}
	return s.rescoreFixture(ctx, res)
}

func (s *PoolService) allScored() []scoring.ScoredPick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scoring.ScoredPick, 0)
	for _, item := range s.catalog.List() {
		out = append(out, s.scored[item.ID]...)
	}
	return out
}

func (s *PoolService) isScored(fixtureID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.scored[fixtureID]
	return ok
}

func (s *PoolService) logRejected(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, ErrPersistenceUnavailable) {
		s.logger.ErrorContext(ctx, msg, args...)
		return
	}
	s.logger.WarnContext(ctx, msg, args...)
}
