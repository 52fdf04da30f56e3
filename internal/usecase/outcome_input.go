package usecase

import (
	"fmt"

	"github.com/riskibarqy/prediction-pool/internal/domain/outcome"
)

// OutcomeInput is an unvalidated outcome as received from a caller. Goals are
// floats so fractional input reaches validation instead of failing decoding.
type OutcomeInput struct {
	Category  string
	HomeGoals *float64
	AwayGoals *float64
}

func ScoreInput(home, away int) OutcomeInput {
	h, a := float64(home), float64(away)
	return OutcomeInput{HomeGoals: &h, AwayGoals: &a}
}

func (in OutcomeInput) build() (outcome.Outcome, error) {
	var score *outcome.Score
	switch {
	case in.HomeGoals != nil && in.AwayGoals != nil:
		parsed, err := outcome.ScoreFromNumbers(*in.HomeGoals, *in.AwayGoals)
		if err != nil {
			return outcome.Outcome{}, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
		}
		score = parsed
	case in.HomeGoals != nil || in.AwayGoals != nil:
		return outcome.Outcome{}, fmt.Errorf("%w: both home and away goals are required", ErrInvalidOutcome)
	}

	out, err := outcome.New(in.Category, score)
	if err != nil {
		return outcome.Outcome{}, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
	}
	return out, nil
}
