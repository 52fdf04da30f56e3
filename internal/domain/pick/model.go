package pick

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/prediction-pool/internal/domain/outcome"
)

const MaxParticipantIDLength = 40

var ErrInvalidParticipant = errors.New("invalid participant")

// Pick is one participant's prediction for one fixture. ParticipantID is the
// normalized key; DisplayName keeps the spelling the participant typed.
type Pick struct {
	ParticipantID string
	DisplayName   string
	FixtureID     string
	Outcome       outcome.Outcome
	SubmittedAt   time.Time
}

// NormalizeParticipant returns the case-insensitive key and the display form
// of a participant id.
func NormalizeParticipant(raw string) (key string, display string, err error) {
	display = strings.Join(strings.Fields(raw), " ")
	if display == "" {
		return "", "", fmt.Errorf("%w: participant id is required", ErrInvalidParticipant)
	}
	if utf8.RuneCountInString(display) > MaxParticipantIDLength {
		return "", "", fmt.Errorf("%w: participant id exceeds %d characters", ErrInvalidParticipant, MaxParticipantIDLength)
	}
	return strings.ToLower(display), display, nil
}
