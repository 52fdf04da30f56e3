package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
)

// LoadCatalog reads the fixture list once per tournament run.
func LoadCatalog(ctx context.Context, src fixture.Source) (*fixture.Catalog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LoadCatalog")
	defer span.End()

	catalog, err := fixture.Load(ctx, src)
	if err != nil {
		if errors.Is(err, fixture.ErrMalformed) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFixtureData, err)
		}
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return catalog, nil
}
