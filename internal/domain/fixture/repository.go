package fixture

import "context"

// Source reads the raw fixture list for a tournament run.
type Source interface {
	Load(ctx context.Context) ([]Fixture, error)
}

// Load reads src once and freezes the result into a Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	fixtures, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(fixtures)
}
