package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
)

var ErrInvalidRules = errors.New("invalid scoring rules")

// Rules holds tier point values. GoalDifferencePoints of zero disables that tier.
type Rules struct {
	ExactPoints          int
	CategoryPoints       int
	GoalDifferencePoints int
}

func DefaultRules() Rules {
	return Rules{
		ExactPoints:    3,
		CategoryPoints: 1,
	}
}

func (r Rules) Validate() error {
	if r.CategoryPoints < 0 {
		return fmt.Errorf("%w: category points must be >= 0, got %d", ErrInvalidRules, r.CategoryPoints)
	}
	if r.ExactPoints <= r.CategoryPoints {
		return fmt.Errorf("%w: exact points (%d) must exceed category points (%d)", ErrInvalidRules, r.ExactPoints, r.CategoryPoints)
	}
	if r.GoalDifferencePoints != 0 && (r.GoalDifferencePoints < r.CategoryPoints || r.GoalDifferencePoints > r.ExactPoints) {
		return fmt.Errorf("%w: goal difference points (%d) must be between %d and %d", ErrInvalidRules, r.GoalDifferencePoints, r.CategoryPoints, r.ExactPoints)
	}
	return nil
}

// Evaluate scores p against res. A nil pick is an abstention and scores zero.
func (r Rules) Evaluate(p *pick.Pick, res result.Result) (int, Tier) {
	if p == nil {
		return 0, TierNone
	}
	predicted, actual := p.Outcome, res.Outcome

	if predicted.Score != nil && actual.Score != nil {
		if *predicted.Score == *actual.Score {
			return r.ExactPoints, TierExact
		}
		if r.GoalDifferencePoints > 0 && predicted.Score.GoalDifference() == actual.Score.GoalDifference() {
			return r.GoalDifferencePoints, TierGoalDifference
		}
	}
	if predicted.Category != "" && predicted.Category == actual.Category {
		return r.CategoryPoints, TierCategory
	}
	return 0, TierNone
}

// Score returns only the points of Evaluate.
func (r Rules) Score(p *pick.Pick, res result.Result) int {
	points, _ := r.Evaluate(p, res)
	return points
}

// ScoreFixture scores every pick placed on res's fixture, ordered by participant.
func (r Rules) ScoreFixture(picks []pick.Pick, res result.Result) []ScoredPick {
	out := make([]ScoredPick, 0, len(picks))
	for i := range picks {
		if picks[i].FixtureID != res.FixtureID {
			continue
		}
		points, tier := r.Evaluate(&picks[i], res)
		out = append(out, ScoredPick{
			ParticipantID: picks[i].ParticipantID,
			DisplayName:   picks[i].DisplayName,
			FixtureID:     res.FixtureID,
			Points:        points,
			Tier:          tier,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}
