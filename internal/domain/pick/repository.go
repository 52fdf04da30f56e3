package pick

import "context"

// Repository persists picks keyed by (participant, fixture).
type Repository interface {
	Get(ctx context.Context, participantID, fixtureID string) (Pick, bool, error)
	Upsert(ctx context.Context, p Pick) error
	ListByFixture(ctx context.Context, fixtureID string) ([]Pick, error)
	ListByParticipant(ctx context.Context, participantID string) ([]Pick, error)
}
