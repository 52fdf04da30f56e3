package result

import (
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/outcome"
)

// Result is the administrator-recorded outcome of a fixture. A fixture has at
// most one; recording again overwrites it.
type Result struct {
	FixtureID  string
	Outcome    outcome.Outcome
	RecordedAt time.Time
}
