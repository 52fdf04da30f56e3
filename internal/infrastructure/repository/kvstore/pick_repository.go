package kvstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-pool/internal/domain/kv"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
)

// PickRepository stores one JSON record per (fixture, participant) key.
type PickRepository struct {
	store kv.Store
}

func NewPickRepository(store kv.Store) *PickRepository {
	return &PickRepository{store: store}
}

func (r *PickRepository) Get(ctx context.Context, participantID, fixtureID string) (pick.Pick, bool, error) {
	return r.getByKey(ctx, pickKey(fixtureID, participantID))
}

func (r *PickRepository) Upsert(ctx context.Context, p pick.Pick) error {
	encoded, err := sonic.Marshal(pickToRecord(p))
	if err != nil {
		return fmt.Errorf("encode pick record: %w", err)
	}
	if err := r.store.Put(ctx, pickKey(p.FixtureID, p.ParticipantID), encoded); err != nil {
		return fmt.Errorf("put pick fixture=%s participant=%s: %w", p.FixtureID, p.ParticipantID, err)
	}
	return nil
}

func (r *PickRepository) ListByFixture(ctx context.Context, fixtureID string) ([]pick.Pick, error) {
	keys, err := r.store.ListKeys(ctx, pickFixturePrefix(fixtureID))
	if err != nil {
		return nil, fmt.Errorf("list pick keys fixture=%s: %w", fixtureID, err)
	}
	return r.loadAll(ctx, keys)
}

func (r *PickRepository) ListByParticipant(ctx context.Context, participantID string) ([]pick.Pick, error) {
	keys, err := r.store.ListKeys(ctx, pickPrefix)
	if err != nil {
		return nil, fmt.Errorf("list pick keys: %w", err)
	}

	escaped := url.PathEscape(participantID)
	owned := make([]string, 0)
	for _, key := range keys {
		if participantFromPickKey(key) == escaped && strings.Count(key, "/") == 2 {
			owned = append(owned, key)
		}
	}
	return r.loadAll(ctx, owned)
}

func (r *PickRepository) loadAll(ctx context.Context, keys []string) ([]pick.Pick, error) {
	out := make([]pick.Pick, 0, len(keys))
	for _, key := range keys {
		item, ok, err := r.getByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FixtureID != out[j].FixtureID {
			return out[i].FixtureID < out[j].FixtureID
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

func (r *PickRepository) getByKey(ctx context.Context, key string) (pick.Pick, bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("get pick key=%s: %w", key, err)
	}
	if !ok {
		return pick.Pick{}, false, nil
	}

	var rec pickRecord
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return pick.Pick{}, false, fmt.Errorf("decode pick key=%s: %w", key, err)
	}
	item, err := pickFromRecord(rec)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("decode pick key=%s: %w", key, err)
	}
	return item, true, nil
}
