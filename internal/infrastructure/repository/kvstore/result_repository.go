package kvstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-pool/internal/domain/kv"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
)

type ResultRepository struct {
	store kv.Store
}

func NewResultRepository(store kv.Store) *ResultRepository {
	return &ResultRepository{store: store}
}

func (r *ResultRepository) Get(ctx context.Context, fixtureID string) (result.Result, bool, error) {
	return r.getByKey(ctx, resultKey(fixtureID))
}

func (r *ResultRepository) Upsert(ctx context.Context, item result.Result) error {
	encoded, err := sonic.Marshal(resultToRecord(item))
	if err != nil {
		return fmt.Errorf("encode result record: %w", err)
	}
	if err := r.store.Put(ctx, resultKey(item.FixtureID), encoded); err != nil {
		return fmt.Errorf("put result fixture=%s: %w", item.FixtureID, err)
	}
	return nil
}

func (r *ResultRepository) List(ctx context.Context) ([]result.Result, error) {
	keys, err := r.store.ListKeys(ctx, resultPrefix)
	if err != nil {
		return nil, fmt.Errorf("list result keys: %w", err)
	}

	out := make([]result.Result, 0, len(keys))
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
		return out[i].FixtureID < out[j].FixtureID
	})
	return out, nil
}

func (r *ResultRepository) getByKey(ctx context.Context, key string) (result.Result, bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return result.Result{}, false, fmt.Errorf("get result key=%s: %w", key, err)
	}
	if !ok {
		return result.Result{}, false, nil
	}

	var rec resultRecord
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return result.Result{}, false, fmt.Errorf("decode result key=%s: %w", key, err)
	}
	item, err := resultFromRecord(rec)
	if err != nil {
		return result.Result{}, false, fmt.Errorf("decode result key=%s: %w", key, err)
	}
	return item, true, nil
}
