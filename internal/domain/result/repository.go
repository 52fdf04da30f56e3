package result

import "context"

type Repository interface {
	Get(ctx context.Context, fixtureID string) (Result, bool, error)
	Upsert(ctx context.Context, r Result) error
	List(ctx context.Context) ([]Result, error)
}
