package scoring

// Tier names the rule that produced a pick's points.
type Tier string

const (
	TierNone           Tier = "NONE"
	TierCategory       Tier = "CATEGORY"
	TierGoalDifference Tier = "GOAL_DIFFERENCE"
	TierExact          Tier = "EXACT"
)

// ScoredPick is derived from one (pick, result) pair. It is never persisted.
type ScoredPick struct {
	ParticipantID string
	DisplayName   string
	FixtureID     string
	Points        int
	Tier          Tier
}
